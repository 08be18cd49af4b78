package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dojo-hub/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS local_credentials (
	user_id           TEXT PRIMARY KEY,
	email             TEXT NOT NULL UNIQUE,
	password_hash     TEXT NOT NULL DEFAULT '',
	email_verified_at TIMESTAMPTZ,
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS credential_tokens (
	id         UUID PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES local_credentials(user_id) ON DELETE CASCADE,
	kind       TEXT NOT NULL,
	token_hash TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS credential_tokens_user_kind_idx ON credential_tokens (user_id, kind);`

// CredentialStore implements domain.CredentialStore for PostgreSQL.
type CredentialStore struct {
	db     PgxIface
	logger *slog.Logger
}

// NewCredentialStore creates a new PostgreSQL credential store.
func NewCredentialStore(db PgxIface, logger *slog.Logger) *CredentialStore {
	return &CredentialStore{
		db:     db,
		logger: logger.With("component", "credential_store"),
	}
}

// EnsureSchema creates the credential tables if they do not exist.
func (s *CredentialStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("%w: create schema: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *CredentialStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// EnsureCredential creates the credential row for a user or refreshes its email.
func (s *CredentialStore) EnsureCredential(ctx context.Context, userID, email string) error {
	query := `
		INSERT INTO local_credentials (user_id, email, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET email = EXCLUDED.email, updated_at = now()`

	if _, err := s.db.Exec(ctx, query, userID, email); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// GetCredentialByEmail returns the credential for email, case-insensitively.
func (s *CredentialStore) GetCredentialByEmail(ctx context.Context, email string) (*domain.LocalCredential, error) {
	query := `
		SELECT user_id, email, password_hash, email_verified_at, updated_at
		FROM local_credentials
		WHERE lower(email) = lower($1)`

	return s.scanCredential(s.db.QueryRow(ctx, query, email))
}

// GetCredentialByUserID returns the credential for userID.
func (s *CredentialStore) GetCredentialByUserID(ctx context.Context, userID string) (*domain.LocalCredential, error) {
	query := `
		SELECT user_id, email, password_hash, email_verified_at, updated_at
		FROM local_credentials
		WHERE user_id = $1`

	return s.scanCredential(s.db.QueryRow(ctx, query, userID))
}

func (s *CredentialStore) scanCredential(row pgx.Row) (*domain.LocalCredential, error) {
	var c domain.LocalCredential
	err := row.Scan(&c.UserID, &c.Email, &c.PasswordHash, &c.EmailVerifiedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return &c, nil
}

// SetPasswordHash replaces the password hash of userID.
func (s *CredentialStore) SetPasswordHash(ctx context.Context, userID, hash string) error {
	query := `UPDATE local_credentials SET password_hash = $2, updated_at = now() WHERE user_id = $1`

	tag, err := s.db.Exec(ctx, query, userID, hash)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// MarkEmailVerified records when userID confirmed their email.
func (s *CredentialStore) MarkEmailVerified(ctx context.Context, userID string, at time.Time) error {
	query := `UPDATE local_credentials SET email_verified_at = $2, updated_at = now() WHERE user_id = $1`

	tag, err := s.db.Exec(ctx, query, userID, at)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// CreateToken stores a hashed single-use token.
func (s *CredentialStore) CreateToken(ctx context.Context, token *domain.CredentialToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}

	query := `
		INSERT INTO credential_tokens (id, user_id, kind, token_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.Exec(ctx, query, token.ID, token.UserID, string(token.Kind), token.TokenHash, token.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	s.logger.InfoContext(ctx, "credential token stored", "kind", token.Kind, "user_id", token.UserID)
	return nil
}

// ConsumeToken deletes and returns the token matching tokenHash in one statement.
func (s *CredentialStore) ConsumeToken(ctx context.Context, kind domain.CredentialTokenKind, tokenHash string) (*domain.CredentialToken, error) {
	query := `
		DELETE FROM credential_tokens
		WHERE kind = $1 AND token_hash = $2
		RETURNING id, user_id, kind, token_hash, created_at`

	var (
		t       domain.CredentialToken
		rawKind string
	)
	err := s.db.QueryRow(ctx, query, string(kind), tokenHash).
		Scan(&t.ID, &t.UserID, &rawKind, &t.TokenHash, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	t.Kind = domain.CredentialTokenKind(rawKind)
	return &t, nil
}

// DeleteTokensForUser removes every token of kind issued to userID.
func (s *CredentialStore) DeleteTokensForUser(ctx context.Context, userID string, kind domain.CredentialTokenKind) error {
	query := `DELETE FROM credential_tokens WHERE user_id = $1 AND kind = $2`

	if _, err := s.db.Exec(ctx, query, userID, string(kind)); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// DeleteTokensCreatedBefore removes tokens created before the cutoff.
func (s *CredentialStore) DeleteTokensCreatedBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM credential_tokens WHERE created_at < $1`

	tag, err := s.db.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return tag.RowsAffected(), nil
}
