package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dojo-hub/internal/domain"
)

// ProfileClient talks to the journal API's profile endpoints using bridge tokens.
// Implements domain.ProfileFetcher and domain.ProfileWriter.
type ProfileClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewProfileClient creates a new profile service client.
func NewProfileClient(baseURL string, timeout time.Duration) *ProfileClient {
	return &ProfileClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// profilePayload is the profile service's JSON representation.
type profilePayload struct {
	ID          string              `json:"id"`
	DisplayName string              `json:"displayName"`
	Email       string              `json:"email"`
	ImageURL    string              `json:"imageUrl"`
	Settings    domain.UserSettings `json:"settings"`
}

func (p profilePayload) toDomain() *domain.UserProfile {
	return &domain.UserProfile{
		UserID:      p.ID,
		DisplayName: p.DisplayName,
		Email:       p.Email,
		ImageURL:    p.ImageURL,
		Settings:    p.Settings,
	}
}

// FetchProfile loads the profile of userID.
func (c *ProfileClient) FetchProfile(ctx context.Context, userID, token string) (*domain.UserProfile, error) {
	return c.do(ctx, http.MethodGet, userID, token, nil)
}

// UpdateProfile applies update to the profile of userID and returns the result.
func (c *ProfileClient) UpdateProfile(ctx context.Context, userID, token string, update domain.ProfileUpdate) (*domain.UserProfile, error) {
	body, err := json.Marshal(update)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamFetch, err)
	}
	return c.do(ctx, http.MethodPatch, userID, token, body)
}

func (c *ProfileClient) do(ctx context.Context, method, userID, token string, body []byte) (*domain.UserProfile, error) {
	endpoint := fmt.Sprintf("%s/v1/users/%s/profile", c.baseURL, url.PathEscape(userID))

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamFetch, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamFetch, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, domain.ErrUserNotFound
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: %w: bridge token rejected", domain.ErrUpstreamFetch, domain.ErrUnauthorized)
	default:
		return nil, fmt.Errorf("%w: profile service returned status %d", domain.ErrUpstreamFetch, resp.StatusCode)
	}

	var payload profilePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamFetch, err)
	}
	if payload.ID == "" {
		payload.ID = userID
	}
	return payload.toDomain(), nil
}
