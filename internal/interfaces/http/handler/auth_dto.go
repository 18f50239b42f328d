package handler

import (
	"time"

	"github.com/ibportal/backend/internal/domain/identity"
)

// LoginRequest is the sign-in body of both portals
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,max=256"`
}

// LoginResponse carries the service token. The gateway token is never returned.
type LoginResponse struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	ExpiresAt   time.Time        `json:"expires_at"`
	Portal      string           `json:"portal"`
	User        identity.Profile `json:"user"`
}

// LogoutResponse confirms a logout
type LogoutResponse struct {
	Message string `json:"message"`
}

// CurrentUserResponse is the body of /auth/me
type CurrentUserResponse struct {
	User      identity.Profile `json:"user"`
	Portal    string           `json:"portal"`
	ExpiresAt time.Time        `json:"expires_at"`
}
