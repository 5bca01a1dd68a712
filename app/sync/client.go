package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	gosync "sync"
	"time"

	"shopicsv/app/rowstore"

	"github.com/google/uuid"
)

// errRefreshRejected marks a refresh the server refused (401/403)
var errRefreshRejected = errors.New("refresh token rejected")

// Client saves files to the remote endpoint
type Client struct {
	baseURL string
	client  *http.Client
	tokens  TokenStore
	logger  Logger
	now     func() time.Time

	// refreshMu prevents concurrent refresh attempts
	refreshMu gosync.Mutex
}

// NewClient creates a client for the API at baseURL
func NewClient(baseURL string, tokens TokenStore, logger Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}
}

// SetHTTPClient replaces the underlying HTTP client
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.client = hc
}

func (c *Client) logf(level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if c.logger != nil {
		c.logger.Log(level, msg)
		return
	}
	log.Printf("[SYNC] %s", msg)
}

// IsLoggedIn checks if the user has authentication tokens
func (c *Client) IsLoggedIn() bool {
	session, refresh := c.tokens.Tokens()
	return session != "" || refresh != ""
}

// AccessToken returns a session token that is valid right now, refreshing it
// first when it is missing or about to expire.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	session, refresh := c.tokens.Tokens()
	if session != "" && !needsRefresh(session, c.now()) {
		return session, nil
	}
	if refresh == "" {
		return "", ErrUnauthorized
	}
	if err := c.Refresh(ctx); err != nil {
		return "", err
	}
	session, _ = c.tokens.Tokens()
	if session == "" {
		return "", ErrUnauthorized
	}
	return session, nil
}

// Refresh exchanges the refresh token for a new token pair. A rejected
// refresh token clears the stored pair and returns ErrUnauthorized.
func (c *Client) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	_, refresh := c.tokens.Tokens()
	if refresh == "" {
		return ErrUnauthorized
	}

	err := c.refresh(ctx, refresh)
	if errors.Is(err, errRefreshRejected) {
		c.logf("warning", "refresh token rejected, clearing session: %v", err)
		if clearErr := c.tokens.ClearTokens(); clearErr != nil {
			c.logf("error", "failed to clear expired tokens: %v", clearErr)
		}
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return err
}

func (c *Client) refresh(ctx context.Context, refreshToken string) error {
	bodyBytes, err := json.Marshal(RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/refresh", bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	// Refresh endpoint does not take an Authorization header
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send refresh request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read refresh response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := decodeAPIError(resp.StatusCode, body)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return fmt.Errorf("%w: %v", errRefreshRejected, apiErr)
		}
		return fmt.Errorf("token refresh failed: %w", apiErr)
	}

	var result RefreshResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to unmarshal refresh response: %w", err)
	}
	if result.AccessToken == "" {
		return fmt.Errorf("token refresh returned no access token")
	}
	newRefresh := result.RefreshToken
	if newRefresh == "" {
		newRefresh = refreshToken
	}
	if err := c.tokens.SetTokens(result.AccessToken, newRefresh); err != nil {
		return fmt.Errorf("failed to save refreshed tokens: %w", err)
	}
	return nil
}

// Save uploads the full file content under its name
func (c *Client) Save(ctx context.Context, token, fileName string, rows []rowstore.Row) error {
	bodyBytes, err := json.Marshal(SaveFileRequest{File: rows, FileName: fileName})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	requestID := uuid.New().String()
	newRequest := func(bearer string) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files/save", bytes.NewReader(bodyBytes))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+bearer)
		// Same id on the retry so the server can deduplicate
		req.Header.Set("X-Request-ID", requestID)
		return req, nil
	}

	resp, err := c.doRequestWithAuth(ctx, token, newRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("save failed: %w", decodeAPIError(resp.StatusCode, body))
	}
	c.logf("debug", "saved %s (%d rows, request %s)", fileName, len(rows), requestID)
	return nil
}

// doRequestWithAuth performs an HTTP request with automatic token refresh on 401/403 errors
func (c *Client) doRequestWithAuth(ctx context.Context, token string, newRequest func(string) (*http.Request, error)) (*http.Response, error) {
	req, err := newRequest(token)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	// API Gateway returns 403 for expired/invalid tokens
	if resp.StatusCode != http.StatusUnauthorized && resp.StatusCode != http.StatusForbidden {
		return resp, nil
	}
	resp.Body.Close()

	if err := c.Refresh(ctx); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to refresh auth token: %w", err)
	}

	session, _ := c.tokens.Tokens()
	req, err = newRequest(session)
	if err != nil {
		return nil, err
	}
	resp, err = c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: server rejected refreshed token", ErrUnauthorized)
	}
	return resp, nil
}

// decodeAPIError renders an error response body
func decodeAPIError(status int, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || (errResp.Error.Code == "" && errResp.Error.Message == "") {
		return fmt.Errorf("status %d: %s", status, strings.TrimSpace(string(body)))
	}
	return fmt.Errorf("status %d: %s: %s", status, errResp.Error.Code, errResp.Error.Message)
}

// Offline is used when no save endpoint is configured. Saves succeed
// without leaving the machine so only the local snapshot is written.
type Offline struct{}

// AccessToken implements the session token source
func (Offline) AccessToken(context.Context) (string, error) {
	return "", nil
}

// Save implements the session transport
func (Offline) Save(context.Context, string, string, []rowstore.Row) error {
	return nil
}
