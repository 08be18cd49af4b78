package usecase

import (
	"context"
	"log/slog"
	"testing"

	"dojo-hub/internal/domain"
	"dojo-hub/internal/infrastructure/credential"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChangePassword(t *testing.T, current string) (*memStore, *mockCache, *ChangePassword) {
	t.Helper()
	store := seededStore()
	if current != "" {
		hash, err := credential.HashPassword(current)
		require.NoError(t, err)
		store.creds["user-123"].PasswordHash = hash
	}
	c := &mockCache{}
	uc := NewChangePassword(store, &mockCSRF{token: "csrf-ok"}, NewInvalidateProfile(c, nil, slog.Default()), slog.Default())
	return store, c, uc
}

func TestChangePassword_Success(t *testing.T) {
	store, c, uc := newChangePassword(t, "old-passw0rd")
	store.tokens["r"] = &domain.CredentialToken{UserID: "user-123", Kind: domain.TokenKindReset, TokenHash: "r"}

	err := uc.Execute(context.Background(), testSession, "csrf-ok", "old-passw0rd", "new-passw0rd")

	require.NoError(t, err)
	ok, err := credential.VerifyPassword("new-passw0rd", store.creds["user-123"].PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, store.tokensFor("user-123", domain.TokenKindReset))
	assert.Equal(t, []string{"user-123"}, c.invalidated)
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	store, c, uc := newChangePassword(t, "old-passw0rd")
	before := store.creds["user-123"].PasswordHash

	err := uc.Execute(context.Background(), testSession, "csrf-ok", "guess", "new-passw0rd")

	assert.ErrorIs(t, err, domain.ErrWrongPassword)
	assert.Equal(t, before, store.creds["user-123"].PasswordHash)
	assert.Empty(t, c.invalidated)
}

func TestChangePassword_NoLocalPassword(t *testing.T) {
	_, _, uc := newChangePassword(t, "")

	err := uc.Execute(context.Background(), testSession, "csrf-ok", "anything", "new-passw0rd")

	assert.ErrorIs(t, err, domain.ErrWrongPassword)
}

func TestChangePassword_BadCSRF(t *testing.T) {
	_, _, uc := newChangePassword(t, "old-passw0rd")

	err := uc.Execute(context.Background(), testSession, "nope", "old-passw0rd", "new-passw0rd")

	assert.ErrorIs(t, err, domain.ErrCSRFInvalid)
}

func TestChangePassword_MalformedStoredHash(t *testing.T) {
	store, _, uc := newChangePassword(t, "")
	store.creds["user-123"].PasswordHash = "not-a-bcrypt-hash"

	err := uc.Execute(context.Background(), testSession, "csrf-ok", "old", "new-passw0rd")

	assert.ErrorIs(t, err, domain.ErrMalformedHash)
}
