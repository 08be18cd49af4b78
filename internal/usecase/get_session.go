package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dojo-hub/internal/domain"
)

// SessionResult holds the data returned by GetSession.
type SessionResult struct {
	Profile         *domain.UserProfile
	SessionID       string
	AuthenticatedAt time.Time
	BackendToken    string
}

// GetSession resolves the current user and mints a bridge token for the frontend.
type GetSession struct {
	resolver *GetCurrentUser
	token    domain.TokenIssuer
	logger   *slog.Logger
}

// NewGetSession creates a new GetSession usecase.
func NewGetSession(r *GetCurrentUser, t domain.TokenIssuer, l *slog.Logger) *GetSession {
	return &GetSession{resolver: r, token: t, logger: l}
}

// Execute returns ErrUnauthorized when the request has no usable session.
func (uc *GetSession) Execute(ctx context.Context, cookieHeader string) (*SessionResult, error) {
	res, err := uc.resolver.Resolve(ctx, cookieHeader)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, domain.ErrUnauthorized
	}

	backendToken, err := uc.token.Mint(res.Session)
	if err != nil {
		uc.logger.ErrorContext(ctx, "failed to issue backend token", "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrTokenGeneration, err)
	}

	return &SessionResult{
		Profile:         res.Profile,
		SessionID:       res.Session.SessionID,
		AuthenticatedAt: res.Session.AuthenticatedAt,
		BackendToken:    backendToken,
	}, nil
}
