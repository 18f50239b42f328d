package identity

import (
	"time"

	"github.com/ibportal/backend/internal/domain/identity"
)

// LoginInput contains input for login
type LoginInput struct {
	Role     identity.Role
	Email    string
	Password string
	IP       string
}

// LoginResult contains the service token and the signed-in profile
type LoginResult struct {
	AccessToken string           `json:"access_token"`
	ExpiresAt   time.Time        `json:"expires_at"`
	TokenType   string           `json:"token_type"`
	Profile     identity.Profile `json:"profile"`
}

// LogoutInput identifies the token being revoked
type LogoutInput struct {
	SessionID string
	TokenJTI  string
	TokenTTL  time.Duration
}

// CurrentUserResult is returned by Me
type CurrentUserResult struct {
	Profile   identity.Profile `json:"profile"`
	Portal    string           `json:"portal"`
	ExpiresAt time.Time        `json:"expires_at"`
}
