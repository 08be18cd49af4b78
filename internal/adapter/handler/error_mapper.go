package handler

import (
	"context"
	"errors"
	"net/http"

	"dojo-hub/internal/domain"

	"github.com/labstack/echo/v4"
)

// StatusClientClosedRequest is the nginx status for a request the client
// abandoned before a response was written.
const StatusClientClosedRequest = 499

// mapDomainError converts a domain error into an appropriate echo.HTTPError.
func mapDomainError(err error) *echo.HTTPError {
	switch {
	// A client abort surfaces wrapped in whatever call it interrupted.
	case errors.Is(err, context.Canceled):
		return echo.NewHTTPError(StatusClientClosedRequest, "client closed request")

	// Checked before ErrUnauthorized: an upstream 401 carries ErrUnauthorized too.
	case errors.Is(err, domain.ErrUpstreamFetch):
		return echo.NewHTTPError(http.StatusBadGateway, "profile service unavailable")

	case errors.Is(err, domain.ErrKratosUnavailable):
		return echo.NewHTTPError(http.StatusBadGateway, "identity provider unavailable")

	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrSessionInactive),
		errors.Is(err, domain.ErrMissingIdentity):
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")

	case errors.Is(err, domain.ErrCSRFInvalid):
		return echo.NewHTTPError(http.StatusForbidden, "invalid CSRF token")

	case errors.Is(err, domain.ErrWrongPassword):
		return echo.NewHTTPError(http.StatusForbidden, "current password does not match")

	case errors.Is(err, domain.ErrTokenExpired):
		return echo.NewHTTPError(http.StatusGone, "token expired")

	case errors.Is(err, domain.ErrTokenNotFound):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid or used token")

	case errors.Is(err, domain.ErrInvalidPassword):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid password")

	case errors.Is(err, domain.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())

	case errors.Is(err, domain.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "user not found")

	case errors.Is(err, domain.ErrRateLimited):
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")

	case errors.Is(err, domain.ErrStoreUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "credential store unavailable")

	case errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusGatewayTimeout, "upstream timeout")

	case errors.Is(err, domain.ErrConfiguration),
		errors.Is(err, domain.ErrTokenGeneration),
		errors.Is(err, domain.ErrCSRFSecretMissing),
		errors.Is(err, domain.ErrBackendSecretWeak):
		return echo.NewHTTPError(http.StatusInternalServerError, "internal configuration error")

	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
