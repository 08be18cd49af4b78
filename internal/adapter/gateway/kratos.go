package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dojo-hub/internal/domain"

	kratos "github.com/ory/kratos-client-go"
)

// SessionCookieName is the cookie Kratos sets for browser sessions.
const SessionCookieName = "ory_kratos_session"

// KratosGateway implements domain.SessionProvider.
type KratosGateway struct {
	client *kratos.APIClient
}

// NewKratosGateway creates a new Kratos gateway with tuned HTTP transport.
func NewKratosGateway(baseURL string, timeout time.Duration) *KratosGateway {
	configuration := kratos.NewConfiguration()
	configuration.Servers = []kratos.ServerConfiguration{
		{URL: baseURL},
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}
	configuration.HTTPClient = &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}

	return &KratosGateway{client: kratos.NewAPIClient(configuration)}
}

// GetSession resolves the Kratos session carried by the request's Cookie header.
// A request without a usable session yields (nil, nil).
func (g *KratosGateway) GetSession(ctx context.Context, cookieHeader string) (*domain.RawSession, error) {
	if !strings.Contains(cookieHeader, SessionCookieName+"=") {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	session, resp, err := g.client.FrontendAPI.ToSession(ctx).Cookie(cookieHeader).Execute()
	if err != nil {
		if resp != nil {
			switch resp.StatusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				return nil, nil
			}
			return nil, fmt.Errorf("%w: kratos returned status %d", domain.ErrKratosUnavailable, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrKratosUnavailable, err)
	}

	if session.Active != nil && !*session.Active {
		return nil, nil
	}

	if session.Identity == nil {
		return nil, domain.ErrMissingIdentity
	}

	email := ""
	if traits, ok := session.Identity.Traits.(map[string]interface{}); ok {
		if emailStr, ok := traits["email"].(string); ok {
			email = emailStr
		}
	}

	var authenticatedAt time.Time
	if session.AuthenticatedAt != nil {
		authenticatedAt = *session.AuthenticatedAt
	}

	return &domain.RawSession{
		UserID:          session.Identity.Id,
		Email:           email,
		SessionID:       session.Id,
		AuthenticatedAt: authenticatedAt,
	}, nil
}
