package handler

import (
	"log/slog"
	"net/http"

	"dojo-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

// CredentialHandler serves email verification and password flows.
type CredentialHandler struct {
	resolver       *usecase.GetCurrentUser
	issueVerify    *usecase.IssueVerification
	confirmVerify  *usecase.ConfirmVerification
	requestReset   *usecase.RequestPasswordReset
	resetPassword  *usecase.ResetPassword
	changePassword *usecase.ChangePassword
}

// NewCredentialHandler creates a new credential handler.
func NewCredentialHandler(
	resolver *usecase.GetCurrentUser,
	issueVerify *usecase.IssueVerification,
	confirmVerify *usecase.ConfirmVerification,
	requestReset *usecase.RequestPasswordReset,
	resetPassword *usecase.ResetPassword,
	changePassword *usecase.ChangePassword,
) *CredentialHandler {
	return &CredentialHandler{
		resolver:       resolver,
		issueVerify:    issueVerify,
		confirmVerify:  confirmVerify,
		requestReset:   requestReset,
		resetPassword:  resetPassword,
		changePassword: changePassword,
	}
}

type tokenRequest struct {
	Token string `json:"token" validate:"required,hextoken"`
}

type resetRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

type resetConfirmRequest struct {
	Token    string `json:"token" validate:"required,hextoken"`
	Password string `json:"password" validate:"required,password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required,max=72"`
	NewPassword     string `json:"newPassword" validate:"required,password,nefield=CurrentPassword"`
}

// bindValid binds the request body into req and validates it.
func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	if err := c.Validate(req); err != nil {
		return mapDomainError(err)
	}
	return nil
}

// IssueVerification mails a verification link to the current user.
func (h *CredentialHandler) IssueVerification(c echo.Context) error {
	session, err := requireSession(c, h.resolver)
	if err != nil {
		return err
	}

	if err := h.issueVerify.Execute(c.Request().Context(), session); err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "sent"})
}

// ConfirmVerification redeems a verification token.
func (h *CredentialHandler) ConfirmVerification(c echo.Context) error {
	var req tokenRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	userID, err := h.confirmVerify.Execute(c.Request().Context(), req.Token)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"verified": true, "userId": userID})
}

// RequestPasswordReset always answers 202 for well-formed requests.
func (h *CredentialHandler) RequestPasswordReset(c echo.Context) error {
	ctx := c.Request().Context()

	var req resetRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	if err := h.requestReset.Execute(ctx, req.Email); err != nil {
		slog.ErrorContext(ctx, "password reset request failed", "error", err, "remote_addr", c.RealIP())
		return mapDomainError(err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "accepted"})
}

// ConfirmPasswordReset redeems a reset token and sets the new password.
func (h *CredentialHandler) ConfirmPasswordReset(c echo.Context) error {
	var req resetConfirmRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	if err := h.resetPassword.Execute(c.Request().Context(), req.Token, req.Password); err != nil {
		return mapDomainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ChangePassword replaces the current user's password.
func (h *CredentialHandler) ChangePassword(c echo.Context) error {
	session, err := requireSession(c, h.resolver)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	err = h.changePassword.Execute(c.Request().Context(), session,
		c.Request().Header.Get(CSRFHeader), req.CurrentPassword, req.NewPassword)
	if err != nil {
		return mapDomainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
