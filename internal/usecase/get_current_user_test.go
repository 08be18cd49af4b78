package usecase

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"dojo-hub/internal/domain"
	"dojo-hub/internal/infrastructure/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSession = &domain.RawSession{
	UserID:    "user-123",
	Email:     "ann@example.com",
	SessionID: "sess-abc",
}

var testProfile = domain.UserProfile{
	UserID:      "user-123",
	DisplayName: "Ann",
	Email:       "ann@example.com",
}

func newResolver(sessions *mockSessionProvider, c domain.ProfileCache, svc *profileService) *GetCurrentUser {
	return NewGetCurrentUser(sessions, c, svc, &mockTokenIssuer{token: "bridge-token"}, slog.Default())
}

func newRealCache(t *testing.T) *cache.ProfileCache {
	t.Helper()
	c := cache.NewProfileCache(time.Hour)
	t.Cleanup(c.Close)
	return c
}

func TestGetCurrentUser_NoSession(t *testing.T) {
	sessions := &mockSessionProvider{}
	svc := newProfileService(testProfile)

	uc := newResolver(sessions, &mockCache{}, svc)
	profile, err := uc.Execute(context.Background(), "")

	assert.NoError(t, err)
	assert.Nil(t, profile)
	assert.Equal(t, 0, svc.fetchCount())
}

func TestGetCurrentUser_Resolved(t *testing.T) {
	sessions := &mockSessionProvider{session: testSession}
	svc := newProfileService(testProfile)

	uc := newResolver(sessions, &mockCache{}, svc)
	profile, err := uc.Execute(context.Background(), "ory_kratos_session=abc")

	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "Ann", profile.DisplayName)
	assert.Equal(t, "ory_kratos_session=abc", sessions.cookie)
	assert.Equal(t, []string{"bridge-token"}, svc.tokens)
}

func TestGetCurrentUser_ProfileGone(t *testing.T) {
	sessions := &mockSessionProvider{session: testSession}
	svc := newProfileService()

	uc := newResolver(sessions, &mockCache{}, svc)
	profile, err := uc.Execute(context.Background(), "ory_kratos_session=abc")

	assert.NoError(t, err)
	assert.Nil(t, profile)
}

func TestGetCurrentUser_ProviderError(t *testing.T) {
	sessions := &mockSessionProvider{err: domain.ErrKratosUnavailable}

	uc := newResolver(sessions, &mockCache{}, newProfileService())
	profile, err := uc.Execute(context.Background(), "ory_kratos_session=abc")

	assert.Nil(t, profile)
	assert.ErrorIs(t, err, domain.ErrKratosUnavailable)
}

func TestGetCurrentUser_FetchErrorNotFoldedIntoAnonymous(t *testing.T) {
	sessions := &mockSessionProvider{session: testSession}
	svc := newProfileService(testProfile)
	svc.fetchErr = domain.ErrUpstreamFetch

	uc := newResolver(sessions, &mockCache{}, svc)
	profile, err := uc.Execute(context.Background(), "ory_kratos_session=abc")

	assert.Nil(t, profile)
	assert.ErrorIs(t, err, domain.ErrUpstreamFetch)
}

func TestGetCurrentUser_MintError(t *testing.T) {
	sessions := &mockSessionProvider{session: testSession}
	svc := newProfileService(testProfile)
	tokens := &mockTokenIssuer{err: domain.ErrConfiguration}

	uc := NewGetCurrentUser(sessions, &mockCache{}, svc, tokens, slog.Default())
	_, err := uc.Execute(context.Background(), "ory_kratos_session=abc")

	assert.ErrorIs(t, err, domain.ErrTokenGeneration)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Equal(t, 0, svc.fetchCount())
}

func TestGetCurrentUser_CachedWithinTTL(t *testing.T) {
	sessions := &mockSessionProvider{session: testSession}
	svc := newProfileService(testProfile)

	uc := newResolver(sessions, newRealCache(t), svc)
	for range 3 {
		profile, err := uc.Execute(context.Background(), "ory_kratos_session=abc")
		require.NoError(t, err)
		assert.Equal(t, "Ann", profile.DisplayName)
	}

	assert.Equal(t, 3, sessions.calls)
	assert.Equal(t, 1, svc.fetchCount())
}

func TestGetCurrentUser_FetchErrorNotCached(t *testing.T) {
	sessions := &mockSessionProvider{session: testSession}
	svc := newProfileService(testProfile)
	svc.fetchErr = errors.New("boom")

	uc := newResolver(sessions, newRealCache(t), svc)
	_, err := uc.Execute(context.Background(), "ory_kratos_session=abc")
	require.Error(t, err)

	svc.fetchErr = nil
	profile, err := uc.Execute(context.Background(), "ory_kratos_session=abc")
	require.NoError(t, err)
	assert.Equal(t, "Ann", profile.DisplayName)
	assert.Equal(t, 2, svc.fetchCount())
}

// A display name edit is visible on the next resolve without waiting for the TTL.
func TestDisplayNameEditVisibleOnNextResolve(t *testing.T) {
	sessions := &mockSessionProvider{session: testSession}
	svc := newProfileService(testProfile)
	profiles := newRealCache(t)
	tokens := &mockTokenIssuer{token: "bridge-token"}
	csrf := &mockCSRF{token: "csrf-ok"}

	resolver := NewGetCurrentUser(sessions, profiles, svc, tokens, slog.Default())
	invalidator := NewInvalidateProfile(profiles, nil, slog.Default())
	update := NewUpdateProfile(svc, tokens, csrf, invalidator, slog.Default())

	before, err := resolver.Execute(context.Background(), "ory_kratos_session=abc")
	require.NoError(t, err)
	assert.Equal(t, "Ann", before.DisplayName)

	name := "Sensei Ann"
	_, err = update.Execute(context.Background(), testSession, "csrf-ok", domain.ProfileUpdate{DisplayName: &name})
	require.NoError(t, err)

	after, err := resolver.Execute(context.Background(), "ory_kratos_session=abc")
	require.NoError(t, err)
	assert.Equal(t, "Sensei Ann", after.DisplayName)
	assert.Equal(t, 2, svc.fetchCount())
}
