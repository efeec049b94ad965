// user_session.go defines the persisted browser session entity.
package models

import "time"

// UserSession is a server-side session record referenced by the session
// cookie. CurrentOrganizationID changes on organization switch; LastActiveAt
// changes on sliding refresh. Everything else is immutable after creation.
type UserSession struct {
	ID                    string    `json:"id"`
	UserID                string    `json:"user_id"`
	CurrentOrganizationID string    `json:"current_organization_id"`
	CreatedAt             time.Time `json:"created_at"`
	ExpiresAt             time.Time `json:"expires_at"`
	LastActiveAt          time.Time `json:"last_active_at"`
}

// Expired reports whether the session is expired at the given instant.
// The boundary is exclusive on the valid side: a session is valid strictly
// while now < ExpiresAt.
func (s *UserSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
