package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/MagicalPanda8123/synapse-auth-service/internal/utils"
)

// Fields carried to the external user-profile service at registration
type Fields struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Gender    string `json:"gender"`
}

// Client provisions user profiles in the external profile service. Calls are
// bounded by the configured timeout; a timeout is treated by the caller
// exactly like a hard failure.
type Client struct {
	baseURL    string
	httpClient *http.Client
	jwtManager *utils.JWTManager
}

// NewClient creates a profile service client. An empty baseURL disables
// provisioning.
func NewClient(baseURL string, timeout time.Duration, jwtManager *utils.JWTManager) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		jwtManager: jwtManager,
	}
}

// Enabled reports whether profile provisioning is configured
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

type createProfileRequest struct {
	AccountID string `json:"account_id"`
	Fields
}

type createProfileResponse struct {
	ID string `json:"id"`
}

// CreateProfile provisions a profile for a freshly registered account and
// returns the profile identifier
func (c *Client) CreateProfile(ctx context.Context, accountID string, fields Fields) (string, error) {
	body, err := json.Marshal(createProfileRequest{AccountID: accountID, Fields: fields})
	if err != nil {
		return "", fmt.Errorf("failed to encode profile request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/internal/v1/profiles", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build profile request: %w", err)
	}

	serviceToken, err := c.jwtManager.GenerateServiceToken()
	if err != nil {
		return "", fmt.Errorf("failed to sign service token: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+serviceToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("profile service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("profile service returned status %d", resp.StatusCode)
	}

	var created createProfileResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("failed to decode profile response: %w", err)
	}

	return created.ID, nil
}
