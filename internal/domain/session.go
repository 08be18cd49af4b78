package domain

import "time"

// RawSession is the identity provider's proof of authentication for a request.
// It is owned by the provider and never mutated here.
type RawSession struct {
	UserID          string
	Email           string
	SessionID       string
	AuthenticatedAt time.Time
}

// TokenClaims are the identity claims carried by a bridge token.
type TokenClaims struct {
	UserID    string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
