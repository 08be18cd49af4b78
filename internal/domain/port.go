package domain

import (
	"context"
	"time"
)

// SessionProvider resolves the identity provider session bound to a request.
// A request without a session yields (nil, nil).
type SessionProvider interface {
	GetSession(ctx context.Context, cookieHeader string) (*RawSession, error)
}

// ProfileFetcher loads a profile from the profile service using a bridge token.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, userID, token string) (*UserProfile, error)
}

// ProfileWriter applies a profile edit on the profile service.
type ProfileWriter interface {
	UpdateProfile(ctx context.Context, userID, token string, update ProfileUpdate) (*UserProfile, error)
}

// LoadFunc produces a fresh profile for a cache miss.
type LoadFunc func(ctx context.Context) (*UserProfile, error)

// ProfileCache memoizes profiles per user with a TTL and explicit invalidation.
type ProfileCache interface {
	GetOrLoad(ctx context.Context, userID string, load LoadFunc) (*UserProfile, error)
	Invalidate(userID string)
}

// InvalidationBroadcaster fans a profile invalidation out to other replicas.
type InvalidationBroadcaster interface {
	Publish(ctx context.Context, userID string) error
}

// TokenIssuer mints and verifies bridge tokens for the profile service.
type TokenIssuer interface {
	Mint(session *RawSession) (string, error)
	Verify(token string) (*TokenClaims, error)
}

// CSRFTokenGenerator generates and checks CSRF tokens bound to session identifiers.
type CSRFTokenGenerator interface {
	Generate(sessionID string) (string, error)
	Valid(sessionID, token string) bool
}

// CredentialStore persists local password hashes and single-use tokens.
type CredentialStore interface {
	EnsureCredential(ctx context.Context, userID, email string) error
	GetCredentialByEmail(ctx context.Context, email string) (*LocalCredential, error)
	GetCredentialByUserID(ctx context.Context, userID string) (*LocalCredential, error)
	SetPasswordHash(ctx context.Context, userID, hash string) error
	MarkEmailVerified(ctx context.Context, userID string, at time.Time) error

	CreateToken(ctx context.Context, token *CredentialToken) error
	// ConsumeToken removes and returns the token with the given hash, so a
	// token can be redeemed at most once.
	ConsumeToken(ctx context.Context, kind CredentialTokenKind, tokenHash string) (*CredentialToken, error)
	DeleteTokensForUser(ctx context.Context, userID string, kind CredentialTokenKind) error
	DeleteTokensCreatedBefore(ctx context.Context, before time.Time) (int64, error)
}

// Mailer delivers single-use credential tokens to a user's inbox.
type Mailer interface {
	SendVerification(ctx context.Context, toEmail, token string) error
	SendPasswordReset(ctx context.Context, toEmail, token string) error
}
