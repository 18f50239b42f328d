package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session binds a signed-in user to the gateway bearer token. It lives only in
// the session store; clients hold a service token that names the session id.
type Session struct {
	ID           string    `json:"id"`
	Role         Role      `json:"role"`
	GatewayToken string    `json:"gateway_token"`
	Profile      Profile   `json:"profile"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// NewSession creates a session with a fresh id that expires after ttl
func NewSession(role Role, gatewayToken string, profile Profile, ttl time.Duration) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:           uuid.NewString(),
		Role:         role,
		GatewayToken: gatewayToken,
		Profile:      profile,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}
}

// IsExpired reports whether the session has expired at now
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// TTL is the remaining lifetime at now, never negative
func (s *Session) TTL(now time.Time) time.Duration {
	return max(s.ExpiresAt.Sub(now), 0)
}

// SessionStore persists sessions until they expire
type SessionStore interface {
	Save(ctx context.Context, s *Session) error
	// Get returns ErrSessionNotFound for unknown or expired ids
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}
