package contact

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const profileTimeout = 10 * time.Second

// ProfileStrategy asks the identity provider for the user's profile.
// First in the resolution order: the provider's address is authoritative
// over whatever was copied into the user document.
type ProfileStrategy struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewProfileStrategy creates an identity-provider strategy rooted at
// baseURL. token may be empty for unauthenticated providers.
func NewProfileStrategy(baseURL, token string) *ProfileStrategy {
	return &ProfileStrategy{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: profileTimeout,
		},
	}
}

// Name implements Strategy.
func (s *ProfileStrategy) Name() string { return "identity-profile" }

// Resolve fetches GET {base}/v1/users/{id}/profile and reads the email and
// display name fields.
func (s *ProfileStrategy) Resolve(ctx context.Context, userID string) (Contact, error) {
	endpoint := fmt.Sprintf("%s/v1/users/%s/profile", s.baseURL, url.PathEscape(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Contact{}, fmt.Errorf("build profile request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Contact{}, fmt.Errorf("profile request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Contact{}, fmt.Errorf("profile not found for user %s", userID)
	}
	if resp.StatusCode != http.StatusOK {
		return Contact{}, fmt.Errorf("profile request: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Contact{}, fmt.Errorf("decode profile: %w", err)
	}
	if payload.Email == "" {
		return Contact{}, fmt.Errorf("profile for user %s has no email", userID)
	}
	return Contact{Address: payload.Email, DisplayName: payload.DisplayName}, nil
}
