// Package authsdk is a Go client for the scaffold service. It handles the
// cookie-based access token and the client-id binding header so callers
// only deal with typed requests and responses.
package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const clientIDHeader = "x-client-id"

// Client talks to a scaffold service instance.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// ClientID is sent on every request and must match the ci claim of
	// the issued token.
	ClientID string
}

// NewClient creates a client bound to the given client id.
func NewClient(baseURL, clientID string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		ClientID: clientID,
	}
}

// Login authenticates and returns an authenticated session.
func (c *Client) Login(ctx context.Context, username, password, deviceType string) (*Session, error) {
	var envelope TokenEnvelope
	err := c.do(ctx, http.MethodPost, "/v1/auth/login", loginRequest{
		Username:   username,
		Password:   password,
		DeviceType: deviceType,
	}, "", &envelope)
	if err != nil {
		return nil, err
	}
	return newSession(c, envelope), nil
}

// Refresh exchanges a refresh token for a fresh session, e.g. to resume
// after a restart.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	var envelope TokenEnvelope
	err := c.do(ctx, http.MethodPost, "/v1/auth/refresh",
		refreshRequest{RefreshToken: refreshToken}, "", &envelope)
	if err != nil {
		return nil, err
	}
	return newSession(c, envelope), nil
}

// Livez reports whether the service is up.
func (c *Client) Livez(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/livez", nil, "", nil)
}

// do performs one request. A non-empty accessToken is attached as the
// access-token cookie.
func (c *Client) do(ctx context.Context, method, path string, body any, accessToken string, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(clientIDHeader, c.ClientID)
	if accessToken != "" {
		req.AddCookie(&http.Cookie{Name: "__access-token", Value: accessToken})
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return parseAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("authsdk: decode response: %w", err)
	}
	return nil
}
