package domain

import "time"

// CredentialTokenKind distinguishes single-use email tokens.
type CredentialTokenKind string

const (
	TokenKindVerification CredentialTokenKind = "verification"
	TokenKindReset        CredentialTokenKind = "reset"
)

// CredentialToken is a stored single-use token. Only the SHA-256 hash of the
// plaintext token is kept.
type CredentialToken struct {
	ID        string
	UserID    string
	Kind      CredentialTokenKind
	TokenHash string
	CreatedAt time.Time
}

// LocalCredential is the locally stored password record for a user.
type LocalCredential struct {
	UserID          string
	Email           string
	PasswordHash    string
	EmailVerifiedAt *time.Time
	UpdatedAt       time.Time
}
