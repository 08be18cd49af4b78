package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"dojo-hub/internal/domain"
)

// UpdateProfile applies a profile edit and makes the next resolve see it.
type UpdateProfile struct {
	writer      domain.ProfileWriter
	tokens      domain.TokenIssuer
	csrf        domain.CSRFTokenGenerator
	invalidator *InvalidateProfile
	logger      *slog.Logger
}

// NewUpdateProfile creates a new UpdateProfile usecase.
func NewUpdateProfile(w domain.ProfileWriter, t domain.TokenIssuer, csrf domain.CSRFTokenGenerator, inv *InvalidateProfile, l *slog.Logger) *UpdateProfile {
	return &UpdateProfile{writer: w, tokens: t, csrf: csrf, invalidator: inv, logger: l}
}

// Execute writes the edit to the profile service, then invalidates the
// cached profile before returning the updated one.
func (uc *UpdateProfile) Execute(ctx context.Context, session *domain.RawSession, csrfToken string, update domain.ProfileUpdate) (*domain.UserProfile, error) {
	if err := checkCSRF(uc.csrf, session, csrfToken); err != nil {
		return nil, err
	}
	if update.DisplayName == nil && update.ImageURL == nil && update.Settings == nil {
		return nil, fmt.Errorf("%w: no fields to update", domain.ErrValidation)
	}

	token, err := uc.tokens.Mint(session)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTokenGeneration, err)
	}

	profile, err := uc.writer.UpdateProfile(ctx, session.UserID, token, update)
	if err != nil {
		return nil, fmt.Errorf("update profile for %s: %w", session.UserID, err)
	}

	if err := uc.invalidator.Execute(ctx, session.UserID, OriginLocal); err != nil {
		return nil, err
	}

	uc.logger.InfoContext(ctx, "profile updated", "user_id", session.UserID)
	return profile, nil
}

func checkCSRF(csrf domain.CSRFTokenGenerator, session *domain.RawSession, token string) error {
	if session == nil || session.UserID == "" {
		return domain.ErrUnauthorized
	}
	if !csrf.Valid(session.SessionID, token) {
		return domain.ErrCSRFInvalid
	}
	return nil
}
