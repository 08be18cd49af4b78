package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dojo-hub/internal/domain"
	"dojo-hub/internal/infrastructure/credential"
)

// ChangePassword replaces the session user's password after checking the current one.
type ChangePassword struct {
	store       domain.CredentialStore
	csrf        domain.CSRFTokenGenerator
	invalidator *InvalidateProfile
	logger      *slog.Logger
}

// NewChangePassword creates a new ChangePassword usecase.
func NewChangePassword(s domain.CredentialStore, csrf domain.CSRFTokenGenerator, inv *InvalidateProfile, l *slog.Logger) *ChangePassword {
	return &ChangePassword{store: s, csrf: csrf, invalidator: inv, logger: l}
}

// Execute also revokes outstanding reset tokens of the user.
func (uc *ChangePassword) Execute(ctx context.Context, session *domain.RawSession, csrfToken, current, next string) error {
	if err := checkCSRF(uc.csrf, session, csrfToken); err != nil {
		return err
	}

	cred, err := uc.store.GetCredentialByUserID(ctx, session.UserID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.ErrWrongPassword
	}
	if err != nil {
		return err
	}
	if cred.PasswordHash == "" {
		return domain.ErrWrongPassword
	}

	ok, err := credential.VerifyPassword(current, cred.PasswordHash)
	if err != nil {
		uc.logger.ErrorContext(ctx, "stored password hash unusable", "user_id", session.UserID, "error", err)
		return fmt.Errorf("verify current password: %w", err)
	}
	if !ok {
		return domain.ErrWrongPassword
	}

	hash, err := credential.HashPassword(next)
	if err != nil {
		return err
	}
	if err := uc.store.SetPasswordHash(ctx, session.UserID, hash); err != nil {
		return err
	}
	if err := uc.store.DeleteTokensForUser(ctx, session.UserID, domain.TokenKindReset); err != nil {
		uc.logger.WarnContext(ctx, "failed to revoke reset tokens", "user_id", session.UserID, "error", err)
	}
	if err := uc.invalidator.Execute(ctx, session.UserID, OriginLocal); err != nil {
		return err
	}

	uc.logger.InfoContext(ctx, "password changed", "user_id", session.UserID)
	return nil
}
