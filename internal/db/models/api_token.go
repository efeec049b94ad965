// api_token.go defines the APIToken entity for bearer authentication.
package models

import "time"

// APIToken is a long-lived bearer credential. The externally presented raw
// token is "<id>:<secret>"; only the bcrypt hash of the secret is stored, so
// lookup is always by ID and the secret is never searchable.
type APIToken struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	TokenHash  string     `json:"-"`
	Name       string     `json:"name"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}
