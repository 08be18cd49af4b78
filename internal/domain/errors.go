package domain

import "errors"

// Authentication errors.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrSessionInactive   = errors.New("session is not active")
	ErrMissingIdentity   = errors.New("missing identity in session")
	ErrKratosUnavailable = errors.New("identity provider unavailable")
	ErrCSRFInvalid       = errors.New("invalid CSRF token")
)

// Configuration errors.
var (
	ErrConfiguration     = errors.New("configuration error")
	ErrCSRFSecretMissing = errors.New("CSRF secret not configured")
	ErrBackendSecretWeak = errors.New("backend token secret too weak")
)

// Profile errors.
var (
	ErrUpstreamFetch = errors.New("profile service fetch failed")
	ErrUserNotFound  = errors.New("user not found")
)

// Credential errors.
var (
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenNotFound    = errors.New("token not found")
	ErrTokenGeneration  = errors.New("token generation failed")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrMalformedHash    = errors.New("malformed password hash")
	ErrWrongPassword    = errors.New("current password does not match")
	ErrStoreUnavailable = errors.New("credential store unavailable")
)

// Request errors.
var (
	ErrValidation  = errors.New("validation failed")
	ErrRateLimited = errors.New("rate limit exceeded")
)
