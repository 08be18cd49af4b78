package handler

import (
	"log/slog"
	"net/http"

	"dojo-hub/internal/domain"
	"dojo-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

// ProfileHandler serves the current user's profile and settings edits.
type ProfileHandler struct {
	resolver *usecase.GetCurrentUser
	update   *usecase.UpdateProfile
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(resolver *usecase.GetCurrentUser, update *usecase.UpdateProfile) *ProfileHandler {
	return &ProfileHandler{resolver: resolver, update: update}
}

type settingsRequest struct {
	Locale            string `json:"locale" validate:"omitempty,locale"`
	Theme             string `json:"theme" validate:"omitempty,oneof=light dark system"`
	Timezone          string `json:"timezone" validate:"omitempty,timezone"`
	DefaultDiscipline string `json:"defaultDiscipline" validate:"omitempty,max=64"`
}

type updateProfileRequest struct {
	DisplayName *string          `json:"displayName" validate:"omitempty,min=1,max=64"`
	ImageURL    *string          `json:"imageUrl" validate:"omitempty,url,max=2048"`
	Settings    *settingsRequest `json:"settings" validate:"omitempty"`
}

func (r updateProfileRequest) toDomain() domain.ProfileUpdate {
	u := domain.ProfileUpdate{DisplayName: r.DisplayName, ImageURL: r.ImageURL}
	if r.Settings != nil {
		u.Settings = &domain.UserSettings{
			Locale:            r.Settings.Locale,
			Theme:             r.Settings.Theme,
			Timezone:          r.Settings.Timezone,
			DefaultDiscipline: r.Settings.DefaultDiscipline,
		}
	}
	return u
}

// Get returns the current user's profile.
func (h *ProfileHandler) Get(c echo.Context) error {
	profile, err := h.resolver.Execute(c.Request().Context(), cookieHeader(c))
	if err != nil {
		return mapDomainError(err)
	}
	if profile == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return c.JSON(http.StatusOK, profile)
}

// Update applies a profile edit for the current user.
func (h *ProfileHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	session, err := requireSession(c, h.resolver)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return mapDomainError(err)
	}

	profile, err := h.update.Execute(ctx, session, c.Request().Header.Get(CSRFHeader), req.toDomain())
	if err != nil {
		slog.WarnContext(ctx, "profile update failed", "user_id", session.UserID, "error", err)
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, profile)
}

// requireSession resolves the request's session or returns a 401.
func requireSession(c echo.Context, resolver *usecase.GetCurrentUser) (*domain.RawSession, error) {
	res, err := resolver.Resolve(c.Request().Context(), cookieHeader(c))
	if err != nil {
		return nil, mapDomainError(err)
	}
	if res == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return res.Session, nil
}
