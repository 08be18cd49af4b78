package handler

import (
	"net/http"
	"time"

	"dojo-hub/internal/domain"
	"dojo-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

// SessionHandler handles /session endpoint returning JSON for the frontend.
type SessionHandler struct {
	uc *usecase.GetSession
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(uc *usecase.GetSession) *SessionHandler {
	return &SessionHandler{uc: uc}
}

// sessionInfo represents the session object in the response.
type sessionInfo struct {
	ID              string    `json:"id"`
	Active          bool      `json:"active"`
	AuthenticatedAt time.Time `json:"authenticatedAt,omitzero"`
}

// sessionResponse represents the JSON response structure.
type sessionResponse struct {
	OK      bool                `json:"ok"`
	User    *domain.UserProfile `json:"user"`
	Session sessionInfo         `json:"session"`
}

// Handle processes the /session endpoint and returns JSON.
func (h *SessionHandler) Handle(c echo.Context) error {
	result, err := h.uc.Execute(c.Request().Context(), cookieHeader(c))
	if err != nil {
		return mapDomainError(err)
	}

	c.Response().Header().Set("X-Dojo-Backend-Token", result.BackendToken)
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")

	return c.JSON(http.StatusOK, sessionResponse{
		OK:   true,
		User: result.Profile,
		Session: sessionInfo{
			ID:              result.SessionID,
			Active:          true,
			AuthenticatedAt: result.AuthenticatedAt,
		},
	})
}
