package handler

import (
	"net/http"

	"dojo-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

// ValidateHandler handles /validate endpoint for nginx auth_request.
type ValidateHandler struct {
	uc *usecase.GetCurrentUser
}

// NewValidateHandler creates a new validate handler.
func NewValidateHandler(uc *usecase.GetCurrentUser) *ValidateHandler {
	return &ValidateHandler{uc: uc}
}

// Handle processes the /validate endpoint.
func (h *ValidateHandler) Handle(c echo.Context) error {
	profile, err := h.uc.Execute(c.Request().Context(), cookieHeader(c))
	if err != nil {
		return mapDomainError(err)
	}
	if profile == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	c.Response().Header().Set("X-Dojo-User-Id", profile.UserID)
	c.Response().Header().Set("X-Dojo-User-Email", profile.Email)
	return c.NoContent(http.StatusOK)
}

func cookieHeader(c echo.Context) string {
	return c.Request().Header.Get("Cookie")
}
