package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// Credentials is the login payload sent to the gateway.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is what the service keeps from a successful gateway login.
type LoginResult struct {
	Token   string
	Profile map[string]any
}

// ErrInvalidCredentials is returned when the gateway rejects a login
var ErrInvalidCredentials = errors.New("invalid credentials")

// LoginPath returns the configured login endpoint for a portal role.
func (c *Client) LoginPath(role string) string {
	if role == "admin" {
		return c.cfg.AdminLoginPath
	}
	return c.cfg.IBLoginPath
}

// Login posts credentials to path and extracts the bearer token and profile
// at the configured gjson paths.
func (c *Client) Login(ctx context.Context, path string, creds Credentials) (*LoginResult, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: creds})
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && (statusErr.StatusCode == http.StatusUnauthorized ||
			statusErr.StatusCode == http.StatusForbidden || statusErr.StatusCode == http.StatusUnprocessableEntity) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		return nil, err
	}

	token := gjson.GetBytes(resp.Body, c.cfg.TokenPath)
	if token.Type != gjson.String || token.Str == "" {
		return nil, fmt.Errorf("%w: no token at %q", ErrUpstream, c.cfg.TokenPath)
	}

	profile := map[string]any{}
	if raw := gjson.GetBytes(resp.Body, c.cfg.ProfilePath); raw.IsObject() {
		if err := json.Unmarshal([]byte(raw.Raw), &profile); err != nil {
			return nil, fmt.Errorf("%w: decode profile: %v", ErrUpstream, err)
		}
	}

	return &LoginResult{Token: token.Str, Profile: profile}, nil
}
