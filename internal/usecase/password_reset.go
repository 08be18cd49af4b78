package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dojo-hub/internal/domain"
	"dojo-hub/internal/infrastructure/credential"
)

// RequestPasswordReset mails a reset link to the owner of an email address.
type RequestPasswordReset struct {
	store  domain.CredentialStore
	mailer domain.Mailer
	logger *slog.Logger
	now    func() time.Time
}

// NewRequestPasswordReset creates a new RequestPasswordReset usecase.
func NewRequestPasswordReset(s domain.CredentialStore, m domain.Mailer, l *slog.Logger) *RequestPasswordReset {
	return &RequestPasswordReset{store: s, mailer: m, logger: l, now: time.Now}
}

// Execute returns nil for unknown addresses so callers cannot probe accounts.
func (uc *RequestPasswordReset) Execute(ctx context.Context, email string) error {
	now := uc.now()

	if n, err := uc.store.DeleteTokensCreatedBefore(ctx, now.Add(-credential.TokenExpiry)); err != nil {
		uc.logger.WarnContext(ctx, "failed to purge expired tokens", "error", err)
	} else if n > 0 {
		uc.logger.DebugContext(ctx, "purged expired tokens", "count", n)
	}

	cred, err := uc.store.GetCredentialByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		uc.logger.InfoContext(ctx, "password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	if err := uc.store.DeleteTokensForUser(ctx, cred.UserID, domain.TokenKindReset); err != nil {
		return err
	}

	plain, err := credential.GenerateResetToken()
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrTokenGeneration, err)
	}
	if err := uc.store.CreateToken(ctx, &domain.CredentialToken{
		UserID:    cred.UserID,
		Kind:      domain.TokenKindReset,
		TokenHash: credential.HashToken(plain),
		CreatedAt: now,
	}); err != nil {
		return err
	}

	if err := uc.mailer.SendPasswordReset(ctx, cred.Email, plain); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}

	uc.logger.InfoContext(ctx, "password reset token issued", "user_id", cred.UserID)
	return nil
}

// ResetPassword redeems a reset token and stores the new password.
type ResetPassword struct {
	store       domain.CredentialStore
	invalidator *InvalidateProfile
	logger      *slog.Logger
	now         func() time.Time
}

// NewResetPassword creates a new ResetPassword usecase.
func NewResetPassword(s domain.CredentialStore, inv *InvalidateProfile, l *slog.Logger) *ResetPassword {
	return &ResetPassword{store: s, invalidator: inv, logger: l, now: time.Now}
}

// Execute rejects an unusable password before the token is consumed.
func (uc *ResetPassword) Execute(ctx context.Context, plain, newPassword string) error {
	hash, err := credential.HashPassword(newPassword)
	if err != nil {
		return err
	}

	t, err := consumeToken(ctx, uc.store, domain.TokenKindReset, plain, uc.now())
	if err != nil {
		return err
	}

	if err := uc.store.SetPasswordHash(ctx, t.UserID, hash); err != nil {
		return err
	}
	if err := uc.invalidator.Execute(ctx, t.UserID, OriginLocal); err != nil {
		return err
	}

	uc.logger.InfoContext(ctx, "password reset", "user_id", t.UserID)
	return nil
}
