package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"dojo-hub/internal/domain"
	"dojo-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

// InternalHandler handles internal service-to-service requests.
type InternalHandler struct {
	invalidate *usecase.InvalidateProfile
	verify     *usecase.VerifyBridgeToken
}

// NewInternalHandler creates a new internal handler.
func NewInternalHandler(invalidate *usecase.InvalidateProfile, verify *usecase.VerifyBridgeToken) *InternalHandler {
	return &InternalHandler{invalidate: invalidate, verify: verify}
}

type invalidateRequest struct {
	UserID string `json:"userId" validate:"required,max=128"`
}

type verifyTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type claimsResponse struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// HandleInvalidate drops a user's cached profile after an external write.
func (h *InternalHandler) HandleInvalidate(c echo.Context) error {
	ctx := c.Request().Context()

	var req invalidateRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	if err := h.invalidate.Execute(ctx, req.UserID, usecase.OriginInternal); err != nil {
		return mapDomainError(err)
	}

	slog.InfoContext(ctx, "profile cache invalidated", "user_id", req.UserID, "remote_addr", c.RealIP())
	return c.NoContent(http.StatusNoContent)
}

// HandleVerifyToken returns the claims of a bridge token.
func (h *InternalHandler) HandleVerifyToken(c echo.Context) error {
	var req verifyTokenRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	claims, err := h.verify.Execute(c.Request().Context(), req.Token)
	if errors.Is(err, domain.ErrTokenExpired) {
		return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
	}
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusOK, claimsResponse{
		UserID:    claims.UserID,
		Email:     claims.Email,
		IssuedAt:  claims.IssuedAt.Unix(),
		ExpiresAt: claims.ExpiresAt.Unix(),
	})
}
