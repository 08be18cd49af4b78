package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"dojo-hub/internal/domain"
)

// Single-use token configuration.
const (
	TokenBytes  = 32 // 64 hex chars
	TokenExpiry = time.Hour
)

// GenerateVerificationToken returns a random token for email verification.
func GenerateVerificationToken() (string, error) {
	return generateToken()
}

// GenerateResetToken returns a random token for password reset.
func GenerateResetToken() (string, error) {
	return generateToken()
}

func generateToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrTokenGeneration, err)
	}
	return hex.EncodeToString(b), nil
}

// IsTokenExpired reports whether a token created at createdAt is past its
// one hour lifetime at now.
func IsTokenExpired(createdAt, now time.Time) bool {
	return now.After(createdAt.Add(TokenExpiry))
}

// HashToken returns the hex SHA-256 of a plaintext token, the form kept at rest.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// TokenMatches compares a plaintext token against a stored hash in constant time.
func TokenMatches(token, hash string) bool {
	if token == "" || hash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(HashToken(token)), []byte(hash)) == 1
}
