package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dojo-hub/internal/domain"
	"dojo-hub/metrics"
)

// Resolution outcomes reported to metrics.
const (
	outcomeAnonymous = "anonymous"
	outcomeResolved  = "resolved"
	outcomeNotFound  = "not_found"
	outcomeError     = "error"
)

// Resolution is an authenticated session together with its profile.
type Resolution struct {
	Session *domain.RawSession
	Profile *domain.UserProfile
}

// GetCurrentUser resolves the profile of the user behind a request.
type GetCurrentUser struct {
	sessions domain.SessionProvider
	profiles domain.ProfileCache
	fetcher  domain.ProfileFetcher
	tokens   domain.TokenIssuer
	logger   *slog.Logger
}

// NewGetCurrentUser creates a new GetCurrentUser usecase.
func NewGetCurrentUser(s domain.SessionProvider, c domain.ProfileCache, f domain.ProfileFetcher, t domain.TokenIssuer, l *slog.Logger) *GetCurrentUser {
	return &GetCurrentUser{sessions: s, profiles: c, fetcher: f, tokens: t, logger: l}
}

// Execute returns the current user's profile, or nil when the request is
// anonymous or the user no longer exists.
func (uc *GetCurrentUser) Execute(ctx context.Context, cookieHeader string) (*domain.UserProfile, error) {
	res, err := uc.Resolve(ctx, cookieHeader)
	if err != nil || res == nil {
		return nil, err
	}
	return res.Profile, nil
}

// Resolve is Execute that also returns the provider session.
func (uc *GetCurrentUser) Resolve(ctx context.Context, cookieHeader string) (*Resolution, error) {
	session, err := uc.sessions.GetSession(ctx, cookieHeader)
	if err != nil {
		metrics.RecordResolution(outcomeError)
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	if session == nil {
		metrics.RecordResolution(outcomeAnonymous)
		return nil, nil
	}

	profile, err := uc.profiles.GetOrLoad(ctx, session.UserID, uc.loader(session))
	if errors.Is(err, domain.ErrUserNotFound) {
		uc.logger.WarnContext(ctx, "session user has no profile", "user_id", session.UserID)
		metrics.RecordResolution(outcomeNotFound)
		return nil, nil
	}
	if err != nil {
		metrics.RecordResolution(outcomeError)
		return nil, fmt.Errorf("load profile for %s: %w", session.UserID, err)
	}

	metrics.RecordResolution(outcomeResolved)
	return &Resolution{Session: session, Profile: profile}, nil
}

func (uc *GetCurrentUser) loader(session *domain.RawSession) domain.LoadFunc {
	return func(ctx context.Context) (*domain.UserProfile, error) {
		token, err := uc.tokens.Mint(session)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrTokenGeneration, err)
		}
		return uc.fetcher.FetchProfile(ctx, session.UserID, token)
	}
}
