package token

import (
	"errors"
	"fmt"
	"time"

	"dojo-hub/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the lifetime of a bridge token.
const DefaultTTL = 24 * time.Hour

// JWTConfig holds bridge token configuration.
type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// bridgeClaims is the signed payload the profile service expects.
type bridgeClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// JWTIssuer mints HS256 bridge tokens from identity provider sessions.
// Implements domain.TokenIssuer.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTIssuer creates a new JWT issuer. A zero TTL means DefaultTTL.
func NewJWTIssuer(cfg JWTConfig) *JWTIssuer {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &JWTIssuer{secret: []byte(cfg.Secret), ttl: ttl, now: time.Now}
}

// Mint signs a token for a session the caller has already validated.
func (j *JWTIssuer) Mint(session *domain.RawSession) (string, error) {
	if len(j.secret) == 0 {
		return "", fmt.Errorf("%w: backend token secret is not set", domain.ErrConfiguration)
	}
	if session == nil || session.UserID == "" {
		return "", domain.ErrUnauthorized
	}

	now := j.now()
	claims := bridgeClaims{
		UserID: session.UserID,
		Email:  session.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrTokenGeneration, err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of a bridge token and returns its claims.
func (j *JWTIssuer) Verify(tokenString string) (*domain.TokenClaims, error) {
	if len(j.secret) == 0 {
		return nil, fmt.Errorf("%w: backend token secret is not set", domain.ErrConfiguration)
	}

	claims := &bridgeClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	if claims.UserID == "" {
		return nil, domain.ErrMissingIdentity
	}

	return &domain.TokenClaims{
		UserID:    claims.UserID,
		Email:     claims.Email,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
