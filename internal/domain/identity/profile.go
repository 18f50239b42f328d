package identity

import (
	"fmt"
	"strings"
)

// Profile is the user or admin record returned by the gateway at login.
// Fields the portal does not model stay in Attributes.
type Profile struct {
	ID         string         `json:"id"`
	Email      string         `json:"email"`
	Name       string         `json:"name"`
	Role       Role           `json:"role"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

var (
	idKeys   = []string{"id", "user_id", "ib_id", "admin_id", "uuid"}
	nameKeys = []string{"name", "full_name", "display_name", "username"}
)

// ProfileFromGateway maps a gateway profile object. The email used to sign in
// fills in when the gateway omits one; the email also stands in for a missing id.
func ProfileFromGateway(role Role, email string, raw map[string]any) Profile {
	p := Profile{
		Role:       role,
		Email:      email,
		Attributes: make(map[string]any, len(raw)),
	}
	for k, v := range raw {
		p.Attributes[k] = v
	}

	p.ID = firstString(raw, idKeys...)
	if e := firstString(raw, "email"); e != "" {
		p.Email = e
	}
	p.Name = firstString(raw, nameKeys...)
	if p.Name == "" {
		first, last := firstString(raw, "first_name"), firstString(raw, "last_name")
		p.Name = strings.TrimSpace(first + " " + last)
	}

	if p.ID == "" {
		p.ID = p.Email
	}
	if p.Name == "" {
		p.Name = p.Email
	}
	for _, k := range append(append([]string{"email", "first_name", "last_name"}, idKeys...), nameKeys...) {
		delete(p.Attributes, k)
	}
	if len(p.Attributes) == 0 {
		p.Attributes = nil
	}
	return p
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		case fmt.Stringer:
			return v.String()
		}
	}
	return ""
}
