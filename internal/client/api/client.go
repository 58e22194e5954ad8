// Package api is the device-side HTTP client for the sync server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/handler/dto/request"
	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/handler/dto/response"
)

const apiPrefix = "/api/v1"

// TokenListener is told about every token pair the client receives, so the
// caller can persist rotated refresh tokens.
type TokenListener func(accessToken, refreshToken string, expiresAt time.Time)

type Client struct {
	baseURL string
	http    *http.Client

	mu       sync.RWMutex
	access   string
	refresh  string
	listener TokenListener
}

// New returns a client for the server at baseURL, e.g. http://localhost:8080.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

func (c *Client) SetTokens(accessToken, refreshToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.access = accessToken
	c.refresh = refreshToken
}

func (c *Client) OnTokens(fn TokenListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listener = fn
}

func (c *Client) Tokens() (accessToken, refreshToken string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.access, c.refresh
}

func (c *Client) storeTokens(accessToken, refreshToken string, expiresAt time.Time) {
	c.mu.Lock()
	c.access = accessToken
	c.refresh = refreshToken
	fn := c.listener
	c.mu.Unlock()
	if fn != nil {
		fn(accessToken, refreshToken, expiresAt)
	}
}

// Refresh rotates the stored refresh token.
func (c *Client) Refresh(ctx context.Context) (*response.RefreshResponse, error) {
	_, refresh := c.Tokens()
	if refresh == "" {
		return nil, ErrNotSignedIn
	}

	var resp response.RefreshResponse
	req := request.RefreshRequest{RefreshToken: refresh}
	if err := c.send(ctx, http.MethodPost, "/auth/refresh", req, &resp, false); err != nil {
		return nil, err
	}
	c.storeTokens(resp.AccessToken, resp.RefreshToken, resp.ExpiresAt)
	return &resp, nil
}

// do sends an authenticated request. An expired access token is refreshed
// once and the request retried.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	err := c.send(ctx, method, path, body, out, true)
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		return err
	}
	if _, refresh := c.Tokens(); refresh == "" {
		return err
	}
	if _, rerr := c.Refresh(ctx); rerr != nil {
		return rerr
	}
	return c.send(ctx, method, path, body, out, true)
}

func (c *Client) send(ctx context.Context, method, path string, body, out any, authenticated bool) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if authenticated {
		access, _ := c.Tokens()
		if access == "" {
			return ErrNotSignedIn
		}
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s: %w", method, path, err)
	}
	return nil
}
