package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"dojo-hub/internal/domain"
)

// GenerateCSRF orchestrates CSRF token generation for an authenticated session.
type GenerateCSRF struct {
	sessions domain.SessionProvider
	csrf     domain.CSRFTokenGenerator
	logger   *slog.Logger
}

// NewGenerateCSRF creates a new GenerateCSRF usecase.
func NewGenerateCSRF(s domain.SessionProvider, csrf domain.CSRFTokenGenerator, l *slog.Logger) *GenerateCSRF {
	return &GenerateCSRF{sessions: s, csrf: csrf, logger: l}
}

// Execute resolves the session behind the cookie and derives its CSRF token.
func (uc *GenerateCSRF) Execute(ctx context.Context, cookieHeader string) (string, error) {
	session, err := uc.sessions.GetSession(ctx, cookieHeader)
	if err != nil {
		return "", fmt.Errorf("resolve session: %w", err)
	}
	if session == nil || session.SessionID == "" {
		return "", domain.ErrUnauthorized
	}

	token, err := uc.csrf.Generate(session.SessionID)
	if err != nil {
		uc.logger.ErrorContext(ctx, "failed to generate CSRF token", "error", err)
		return "", fmt.Errorf("%w: %w", domain.ErrCSRFSecretMissing, err)
	}

	return token, nil
}
