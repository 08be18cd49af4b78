package usecase

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"dojo-hub/internal/domain"
	"dojo-hub/internal/infrastructure/credential"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore() *memStore {
	store := newMemStore()
	store.creds["user-123"] = &domain.LocalCredential{UserID: "user-123", Email: "ann@example.com"}
	return store
}

func TestRequestPasswordReset_IssuesToken(t *testing.T) {
	store := seededStore()
	mailer := newMockMailer()
	uc := NewRequestPasswordReset(store, mailer, slog.Default())

	require.NoError(t, uc.Execute(context.Background(), "ann@example.com"))

	plain := mailer.resets["ann@example.com"]
	require.NotEmpty(t, plain)
	tokens := store.tokensFor("user-123", domain.TokenKindReset)
	require.Len(t, tokens, 1)
	assert.True(t, credential.TokenMatches(plain, tokens[0].TokenHash))
}

func TestRequestPasswordReset_UnknownEmail(t *testing.T) {
	store := seededStore()
	mailer := newMockMailer()
	uc := NewRequestPasswordReset(store, mailer, slog.Default())

	assert.NoError(t, uc.Execute(context.Background(), "nobody@example.com"))
	assert.Empty(t, mailer.resets)
	assert.Empty(t, store.tokens)
}

func TestRequestPasswordReset_PurgesStaleTokens(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := seededStore()
	store.tokens["stale"] = &domain.CredentialToken{
		UserID: "user-999", Kind: domain.TokenKindVerification, TokenHash: "stale",
		CreatedAt: now.Add(-2 * time.Hour),
	}
	uc := NewRequestPasswordReset(store, newMockMailer(), slog.Default())
	uc.now = func() time.Time { return now }

	require.NoError(t, uc.Execute(context.Background(), "ann@example.com"))

	_, found := store.tokens["stale"]
	assert.False(t, found)
}

func TestRequestPasswordReset_ReplacesPreviousToken(t *testing.T) {
	store := seededStore()
	mailer := newMockMailer()
	uc := NewRequestPasswordReset(store, mailer, slog.Default())

	require.NoError(t, uc.Execute(context.Background(), "ann@example.com"))
	first := mailer.resets["ann@example.com"]
	require.NoError(t, uc.Execute(context.Background(), "ann@example.com"))

	tokens := store.tokensFor("user-123", domain.TokenKindReset)
	require.Len(t, tokens, 1)
	assert.False(t, credential.TokenMatches(first, tokens[0].TokenHash))
}

func TestResetPassword(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	setup := func(t *testing.T, issuedAt time.Time) (*memStore, *mockCache, *ResetPassword, string) {
		t.Helper()
		store := seededStore()
		mailer := newMockMailer()
		req := NewRequestPasswordReset(store, mailer, slog.Default())
		req.now = func() time.Time { return issuedAt }
		require.NoError(t, req.Execute(context.Background(), "ann@example.com"))

		c := &mockCache{}
		reset := NewResetPassword(store, NewInvalidateProfile(c, nil, slog.Default()), slog.Default())
		reset.now = func() time.Time { return now }
		return store, c, reset, mailer.resets["ann@example.com"]
	}

	t.Run("stores new hash", func(t *testing.T) {
		store, c, reset, plain := setup(t, now.Add(-time.Minute))

		require.NoError(t, reset.Execute(context.Background(), plain, "n3w-passw0rd"))

		ok, err := credential.VerifyPassword("n3w-passw0rd", store.creds["user-123"].PasswordHash)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []string{"user-123"}, c.invalidated)

		err = reset.Execute(context.Background(), plain, "another-one")
		assert.ErrorIs(t, err, domain.ErrTokenNotFound)
	})

	t.Run("expired", func(t *testing.T) {
		store, _, reset, plain := setup(t, now.Add(-credential.TokenExpiry-time.Second))

		err := reset.Execute(context.Background(), plain, "n3w-passw0rd")
		assert.ErrorIs(t, err, domain.ErrTokenExpired)
		assert.Empty(t, store.creds["user-123"].PasswordHash)
	})

	t.Run("invalid password keeps token", func(t *testing.T) {
		store, _, reset, plain := setup(t, now)

		err := reset.Execute(context.Background(), plain, "")
		assert.ErrorIs(t, err, domain.ErrInvalidPassword)
		assert.Len(t, store.tokensFor("user-123", domain.TokenKindReset), 1)
	})
}
