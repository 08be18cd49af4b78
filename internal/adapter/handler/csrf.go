package handler

import (
	"log/slog"
	"net/http"

	"dojo-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

// CSRFHeader carries the CSRF token on state-changing requests.
const CSRFHeader = "X-CSRF-Token"

// CSRFHandler handles CSRF token requests.
type CSRFHandler struct {
	uc *usecase.GenerateCSRF
}

// NewCSRFHandler creates a new CSRF handler.
func NewCSRFHandler(uc *usecase.GenerateCSRF) *CSRFHandler {
	return &CSRFHandler{uc: uc}
}

// csrfResponse tells the client the token and the header to echo it in.
type csrfResponse struct {
	Data struct {
		CSRFToken string `json:"csrf_token"`
		Header    string `json:"header"`
	} `json:"data"`
}

// Handle processes CSRF token requests.
func (h *CSRFHandler) Handle(c echo.Context) error {
	ctx := c.Request().Context()

	cookies := cookieHeader(c)
	if cookies == "" {
		slog.WarnContext(ctx, "csrf token request without session cookie")
		return echo.NewHTTPError(http.StatusUnauthorized, "session cookie required")
	}

	token, err := h.uc.Execute(ctx, cookies)
	if err != nil {
		return mapDomainError(err)
	}

	var resp csrfResponse
	resp.Data.CSRFToken = token
	resp.Data.Header = CSRFHeader
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, resp)
}
