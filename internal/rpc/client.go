// Package rpc talks to the desktop daemon that owns session state.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gobeyondidentity/ssoctl/internal/integration"
	"golang.org/x/oauth2"
)

// Client handles remote procedure calls to the daemon
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError represents an error response returned by the daemon
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("daemon error (status %d): %s", e.StatusCode, e.Message)
}

// NewClient creates a daemon client. A non-empty token is sent as a bearer credential.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	httpClient := &http.Client{}
	if token != "" {
		httpClient = oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: token,
			TokenType:   "Bearer",
		}))
	}
	httpClient.Timeout = timeout

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// makeRequest performs a JSON request and maps error responses
func (c *Client) makeRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}

	if resp.StatusCode >= 400 {
		defer func() { _ = resp.Body.Close() }()
		bodyBytes, _ := io.ReadAll(resp.Body)

		var apiErr APIError
		if err := json.Unmarshal(bodyBytes, &apiErr); err == nil && apiErr.Message != "" {
			apiErr.StatusCode = resp.StatusCode
			return nil, &apiErr
		}

		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	return resp, nil
}

// SyncSessions asks the daemon to reconcile the sessions of one integration
func (c *Client) SyncSessions(ctx context.Context, integrationID string) (*integration.SessionDiff, error) {
	path := "/integrations/" + url.PathEscape(integrationID) + "/sessions/sync"

	resp, err := c.makeRequest(ctx, http.MethodPost, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to sync sessions: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var diff integration.SessionDiff
	if err := json.NewDecoder(resp.Body).Decode(&diff); err != nil {
		return nil, fmt.Errorf("failed to decode session diff: %w", err)
	}

	return &diff, nil
}

// RefreshSessions tells the daemon to reload its session list
func (c *Client) RefreshSessions(ctx context.Context) error {
	resp, err := c.makeRequest(ctx, http.MethodPost, "/sessions/refresh", nil)
	if err != nil {
		return fmt.Errorf("failed to refresh sessions: %w", err)
	}
	_ = resp.Body.Close()
	return nil
}

// Ping checks that the daemon is reachable
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.makeRequest(ctx, http.MethodGet, "/ping", nil)
	if err != nil {
		return fmt.Errorf("failed to reach daemon: %w", err)
	}
	_ = resp.Body.Close()
	return nil
}
