// Package credential provides password hashing and single-use token primitives.
package credential

import (
	"errors"
	"fmt"

	"dojo-hub/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor.
const PasswordCost = 12

// HashPassword produces a salted bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password cannot be empty", domain.ErrInvalidPassword)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		// bcrypt rejects inputs longer than 72 bytes.
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidPassword, err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches hash.
// A mismatch is (false, nil); an error is returned only for a malformed hash.
func VerifyPassword(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %w", domain.ErrMalformedHash, err)
	}
}
