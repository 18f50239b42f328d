package identity

import (
	"strings"

	"github.com/ibportal/backend/internal/domain/shared"
)

// Role is the portal a user signs into
type Role string

const (
	RoleIB    Role = "ib"
	RoleAdmin Role = "admin"
)

// Roles lists every portal role
var Roles = []Role{RoleIB, RoleAdmin}

// ParseRole parses a role name case-insensitively
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	return r == RoleIB || r == RoleAdmin
}

// Label is the display name of the portal
func (r Role) Label() string {
	switch r {
	case RoleIB:
		return "IB Portal"
	case RoleAdmin:
		return "Admin Back Office"
	default:
		return string(r)
	}
}

func (r Role) String() string {
	return string(r)
}

var (
	ErrInvalidRole        = shared.NewDomainError("INVALID_ROLE", "Unknown portal role")
	ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	ErrSessionNotFound    = shared.NewDomainError("SESSION_EXPIRED", "Session has expired, please sign in again")
	ErrRoleMismatch       = shared.NewDomainError("FORBIDDEN", "This portal is not available for your account")
)
