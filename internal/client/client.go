// Package client is a typed Go client for the taskman REST API.
//
// The client keeps the caller's access and refresh tokens, injects the bearer
// header, and on a 401 refreshes the token pair once and retries the request.
// Token changes are reported through Config.OnTokens so callers can persist
// them (see the tokenstore subpackage).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// IdleExpiresHeader carries the server-side idle deadline on authenticated responses.
const IdleExpiresHeader = "X-Session-Idle-Expires-At"

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 4 << 20

// ErrNotLoggedIn is returned by authenticated calls when the client holds no tokens.
var ErrNotLoggedIn = errors.New("not logged in")

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL is the server root, e.g. "http://localhost:8080". Required.
	BaseURL string

	// HTTPClient is used for all requests. Defaults to a client with a 30s timeout.
	HTTPClient *http.Client

	// Tokens seeds the client with previously saved credentials.
	Tokens Tokens

	// OnTokens is called whenever login, register or refresh produce new tokens,
	// and with the zero value when they are discarded.
	OnTokens func(Tokens)

	// IdleTimeout, when positive, drops the tokens after that long without a
	// request. OnIdle is called afterwards.
	IdleTimeout time.Duration
	OnIdle      func()

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	onTokens   func(Tokens)
	onIdle     func()
	idle       *IdleTimer
	logger     *slog.Logger

	mu            sync.Mutex
	tokens        Tokens
	idleExpiresAt time.Time
}

// New creates a Client from cfg.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		return nil, errors.New("client: BaseURL is required")
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("client: BaseURL must be an http(s) URL (got %q)", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		onTokens:   cfg.OnTokens,
		onIdle:     cfg.OnIdle,
		logger:     log.With(slog.String("component", "api_client")),
		tokens:     cfg.Tokens,
	}
	if cfg.IdleTimeout > 0 {
		c.idle = NewIdleTimer(cfg.IdleTimeout, c.expireIdle)
	}
	return c, nil
}

// Tokens returns the current credentials.
func (c *Client) Tokens() Tokens {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens
}

// IdleExpiresAt returns the server-side idle deadline reported on the last
// authenticated response, or the zero time.
func (c *Client) IdleExpiresAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.idleExpiresAt
}

// Close stops the idle timer, if any.
func (c *Client) Close() {
	if c.idle != nil {
		c.idle.Stop()
	}
}

func (c *Client) setTokens(t Tokens) {
	c.mu.Lock()
	c.tokens = t
	c.mu.Unlock()
	if c.onTokens != nil {
		c.onTokens(t)
	}
}

func (c *Client) expireIdle() {
	c.logger.Info("dropping credentials after local inactivity")
	c.setTokens(Tokens{})
	if c.onIdle != nil {
		c.onIdle()
	}
}

// get, post, put and del are authenticated JSON helpers.
func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.authed(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	return c.authed(ctx, http.MethodPost, path, body, result)
}

func (c *Client) put(ctx context.Context, path string, body, result any) error {
	return c.authed(ctx, http.MethodPut, path, body, result)
}

func (c *Client) del(ctx context.Context, path string, result any) error {
	return c.authed(ctx, http.MethodDelete, path, nil, result)
}

// authed sends an authenticated request. A 401 other than an idle timeout
// triggers one refresh and one retry.
func (c *Client) authed(ctx context.Context, method, path string, body, result any) error {
	if c.idle != nil {
		c.idle.Touch()
	}

	tokens := c.Tokens()
	if tokens.AccessToken == "" {
		return ErrNotLoggedIn
	}

	err := c.do(ctx, method, path, tokens.AccessToken, body, result)

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized ||
		apiErr.IsIdleTimeout() || tokens.RefreshToken == "" {
		return err
	}

	c.logger.Debug("access token rejected, refreshing", slog.String("path", path))
	if _, refreshErr := c.Refresh(ctx); refreshErr != nil {
		c.logger.Debug("token refresh failed", slog.String("error", refreshErr.Error()))
		return err
	}

	return c.do(ctx, method, path, c.Tokens().AccessToken, body, result)
}

// do executes one request. Non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, method, path, token string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("client: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if raw := resp.Header.Get(IdleExpiresHeader); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			c.mu.Lock()
			c.idleExpiresAt = t
			c.mu.Unlock()
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("client: reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp.StatusCode, data)
	}

	if result == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("client: decoding %s %s response: %w", method, path, err)
	}
	return nil
}
