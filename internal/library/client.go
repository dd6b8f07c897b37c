package library

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const userAgent = "romsync/0.1"

// defaultTimeout bounds every request. The engine's flows are blocking;
// a hung connection must not stall a sync pass indefinitely.
const defaultTimeout = 30 * time.Second

// Client is an HTTP client for the game-library server's REST API.
// Authentication is HTTP basic auth; TLS certificate verification is the
// standard library default and is never disabled.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a library API client. baseURL is the server root,
// e.g. "https://library.example.net"; a trailing slash is stripped.
func NewClient(baseURL, username, password string, httpClient *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		username:   username,
		password:   password,
		httpClient: httpClient,
		logger:     logger,
	}
}

// do executes a single HTTP request against the API. Non-2xx responses are
// read, closed, and returned as *APIError. On success the caller owns the
// response body.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("library: creating request: %w", err)
	}

	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("User-Agent", userAgent)

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("library: %s %s: %w", method, path, err)
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		c.logger.Debug("request succeeded",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
		)

		return resp, nil
	}

	errBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
	resp.Body.Close()

	if readErr != nil {
		errBody = []byte("(failed to read response body)")
	}

	return nil, &APIError{
		StatusCode: resp.StatusCode,
		Message:    string(bytes.TrimSpace(errBody)),
		Err:        classifyStatus(resp.StatusCode),
	}
}

// getJSON performs a GET request and decodes the response body into dst.
func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("library: decoding GET %s response: %w", path, err)
	}

	return nil
}

// sendJSON performs a request with a JSON body and decodes the response into
// dst (when dst is non-nil).
func (c *Client) sendJSON(ctx context.Context, method, path string, payload, dst any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("library: encoding %s %s body: %w", method, path, err)
	}

	resp, err := c.do(ctx, method, path, bytes.NewReader(encoded), "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if dst == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("library: decoding %s %s response: %w", method, path, err)
	}

	return nil
}

// Ping checks server reachability, then authentication, so callers can tell
// the user which one failed.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.heartbeat(ctx); err != nil {
		return fmt.Errorf("cannot reach server: %w", err)
	}

	var platforms json.RawMessage
	if err := c.getJSON(ctx, "/api/platforms", &platforms); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	return nil
}

// heartbeat hits the unauthenticated liveness endpoint.
func (c *Client) heartbeat(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/api/heartbeat", &raw); err != nil {
		return nil, err
	}

	return raw, nil
}
