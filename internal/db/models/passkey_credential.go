// passkey_credential.go defines the stored WebAuthn credential entity.
package models

import "time"

// PasskeyCredential is a registered WebAuthn credential. ID is the
// base64url-encoded credential ID assigned by the authenticator. SignCount
// must be monotonically non-decreasing across authentications; a
// non-increasing counter is treated as a cloned-authenticator signal.
// A user's last remaining credential cannot be deleted.
type PasskeyCredential struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	PublicKey  []byte     `json:"-"`
	SignCount  uint32     `json:"-"`
	Transports []string   `json:"transports,omitempty"`
	DeviceType string     `json:"device_type"`
	BackedUp   bool       `json:"backed_up"`
	Name       *string    `json:"name,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}
