package usecase

import (
	"context"
	"log/slog"

	"dojo-hub/internal/domain"
)

// VerifyBridgeToken checks a bridge token for internal callers.
type VerifyBridgeToken struct {
	tokens domain.TokenIssuer
	logger *slog.Logger
}

// NewVerifyBridgeToken creates a new VerifyBridgeToken usecase.
func NewVerifyBridgeToken(t domain.TokenIssuer, l *slog.Logger) *VerifyBridgeToken {
	return &VerifyBridgeToken{tokens: t, logger: l}
}

// Execute returns the token's claims.
func (uc *VerifyBridgeToken) Execute(ctx context.Context, token string) (*domain.TokenClaims, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}

	claims, err := uc.tokens.Verify(token)
	if err != nil {
		uc.logger.DebugContext(ctx, "bridge token rejected", "error", err)
		return nil, err
	}
	return claims, nil
}
