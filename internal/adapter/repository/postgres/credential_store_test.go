package postgres

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"dojo-hub/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*CredentialStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewCredentialStore(mock, slog.Default()), mock
}

func TestCredentialStore_EnsureSchema(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS local_credentials").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialStore_EnsureCredential(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO local_credentials").
		WithArgs("user-1", "aikidoka@example.com").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.EnsureCredential(context.Background(), "user-1", "aikidoka@example.com"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialStore_GetCredentialByEmail(t *testing.T) {
	store, mock := newMockStore(t)
	verifiedAt := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	updatedAt := verifiedAt.Add(time.Hour)

	rows := pgxmock.NewRows([]string{"user_id", "email", "password_hash", "email_verified_at", "updated_at"}).
		AddRow("user-1", "aikidoka@example.com", "$2a$12$hash", &verifiedAt, updatedAt)
	mock.ExpectQuery("SELECT user_id, email, password_hash").
		WithArgs("Aikidoka@Example.com").
		WillReturnRows(rows)

	cred, err := store.GetCredentialByEmail(context.Background(), "Aikidoka@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", cred.UserID)
	assert.Equal(t, "$2a$12$hash", cred.PasswordHash)
	require.NotNil(t, cred.EmailVerifiedAt)
	assert.Equal(t, verifiedAt, *cred.EmailVerifiedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialStore_GetCredentialByUserID_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT user_id, email, password_hash").
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	cred, err := store.GetCredentialByUserID(context.Background(), "ghost")
	assert.Nil(t, cred)
	assert.True(t, errors.Is(err, domain.ErrUserNotFound))
}

func TestCredentialStore_SetPasswordHash(t *testing.T) {
	t.Run("updates existing row", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec("UPDATE local_credentials SET password_hash").
			WithArgs("user-1", "new-hash").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, store.SetPasswordHash(context.Background(), "user-1", "new-hash"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing user", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec("UPDATE local_credentials SET password_hash").
			WithArgs("ghost", "new-hash").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := store.SetPasswordHash(context.Background(), "ghost", "new-hash")
		assert.True(t, errors.Is(err, domain.ErrUserNotFound))
	})

	t.Run("database error", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec("UPDATE local_credentials SET password_hash").
			WithArgs("user-1", "new-hash").
			WillReturnError(errors.New("connection reset"))

		err := store.SetPasswordHash(context.Background(), "user-1", "new-hash")
		assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
	})
}

func TestCredentialStore_MarkEmailVerified(t *testing.T) {
	store, mock := newMockStore(t)
	at := time.Now()

	mock.ExpectExec("UPDATE local_credentials SET email_verified_at").
		WithArgs("user-1", at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, store.MarkEmailVerified(context.Background(), "user-1", at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialStore_CreateToken_AssignsID(t *testing.T) {
	store, mock := newMockStore(t)
	createdAt := time.Now()

	mock.ExpectExec("INSERT INTO credential_tokens").
		WithArgs(pgxmock.AnyArg(), "user-1", "reset", "token-hash", createdAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	token := &domain.CredentialToken{
		UserID:    "user-1",
		Kind:      domain.TokenKindReset,
		TokenHash: "token-hash",
		CreatedAt: createdAt,
	}
	require.NoError(t, store.CreateToken(context.Background(), token))
	assert.Len(t, token.ID, 36)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialStore_ConsumeToken(t *testing.T) {
	store, mock := newMockStore(t)
	createdAt := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{"id", "user_id", "kind", "token_hash", "created_at"}).
		AddRow("tok-1", "user-1", "verification", "token-hash", createdAt)
	mock.ExpectQuery("DELETE FROM credential_tokens").
		WithArgs("verification", "token-hash").
		WillReturnRows(rows)

	token, err := store.ConsumeToken(context.Background(), domain.TokenKindVerification, "token-hash")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token.ID)
	assert.Equal(t, domain.TokenKindVerification, token.Kind)
	assert.Equal(t, createdAt, token.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialStore_ConsumeToken_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("DELETE FROM credential_tokens").
		WithArgs("reset", "unknown").
		WillReturnError(pgx.ErrNoRows)

	token, err := store.ConsumeToken(context.Background(), domain.TokenKindReset, "unknown")
	assert.Nil(t, token)
	assert.True(t, errors.Is(err, domain.ErrTokenNotFound))
}

func TestCredentialStore_DeleteTokens(t *testing.T) {
	store, mock := newMockStore(t)
	cutoff := time.Now().Add(-time.Hour)

	mock.ExpectExec("DELETE FROM credential_tokens WHERE user_id").
		WithArgs("user-1", "reset").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec("DELETE FROM credential_tokens WHERE created_at").
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	require.NoError(t, store.DeleteTokensForUser(context.Background(), "user-1", domain.TokenKindReset))
	n, err := store.DeleteTokensCreatedBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
