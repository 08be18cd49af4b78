package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dojo-hub/internal/domain"
	"dojo-hub/internal/infrastructure/credential"
)

// IssueVerification mails a fresh email verification link to the session user.
type IssueVerification struct {
	store  domain.CredentialStore
	mailer domain.Mailer
	logger *slog.Logger
	now    func() time.Time
}

// NewIssueVerification creates a new IssueVerification usecase.
func NewIssueVerification(s domain.CredentialStore, m domain.Mailer, l *slog.Logger) *IssueVerification {
	return &IssueVerification{store: s, mailer: m, logger: l, now: time.Now}
}

// Execute replaces any outstanding verification token of the user.
func (uc *IssueVerification) Execute(ctx context.Context, session *domain.RawSession) error {
	if session == nil || session.UserID == "" {
		return domain.ErrUnauthorized
	}
	if session.Email == "" {
		return fmt.Errorf("%w: session has no email", domain.ErrValidation)
	}

	if err := uc.store.EnsureCredential(ctx, session.UserID, session.Email); err != nil {
		return err
	}
	if err := uc.store.DeleteTokensForUser(ctx, session.UserID, domain.TokenKindVerification); err != nil {
		return err
	}

	plain, err := credential.GenerateVerificationToken()
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrTokenGeneration, err)
	}
	if err := uc.store.CreateToken(ctx, &domain.CredentialToken{
		UserID:    session.UserID,
		Kind:      domain.TokenKindVerification,
		TokenHash: credential.HashToken(plain),
		CreatedAt: uc.now(),
	}); err != nil {
		return err
	}

	if err := uc.mailer.SendVerification(ctx, session.Email, plain); err != nil {
		return fmt.Errorf("send verification mail: %w", err)
	}

	uc.logger.InfoContext(ctx, "verification token issued", "user_id", session.UserID)
	return nil
}

// ConfirmVerification redeems a verification token.
type ConfirmVerification struct {
	store       domain.CredentialStore
	invalidator *InvalidateProfile
	logger      *slog.Logger
	now         func() time.Time
}

// NewConfirmVerification creates a new ConfirmVerification usecase.
func NewConfirmVerification(s domain.CredentialStore, inv *InvalidateProfile, l *slog.Logger) *ConfirmVerification {
	return &ConfirmVerification{store: s, invalidator: inv, logger: l, now: time.Now}
}

// Execute marks the token owner's email verified and returns the user ID.
// An expired token is consumed and reported as ErrTokenExpired.
func (uc *ConfirmVerification) Execute(ctx context.Context, plain string) (string, error) {
	t, err := consumeToken(ctx, uc.store, domain.TokenKindVerification, plain, uc.now())
	if err != nil {
		return "", err
	}

	if err := uc.store.MarkEmailVerified(ctx, t.UserID, uc.now()); err != nil {
		return "", err
	}
	if err := uc.invalidator.Execute(ctx, t.UserID, OriginLocal); err != nil {
		return "", err
	}

	uc.logger.InfoContext(ctx, "email verified", "user_id", t.UserID)
	return t.UserID, nil
}

func consumeToken(ctx context.Context, store domain.CredentialStore, kind domain.CredentialTokenKind, plain string, now time.Time) (*domain.CredentialToken, error) {
	if plain == "" {
		return nil, domain.ErrTokenNotFound
	}

	t, err := store.ConsumeToken(ctx, kind, credential.HashToken(plain))
	if err != nil {
		return nil, err
	}
	if !credential.TokenMatches(plain, t.TokenHash) {
		return nil, domain.ErrTokenNotFound
	}
	if credential.IsTokenExpired(t.CreatedAt, now) {
		return nil, domain.ErrTokenExpired
	}
	return t, nil
}
