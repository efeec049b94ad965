// organization.go defines the Organization entity.
package models

import "time"

// Organization is the tenancy unit. Captures, tasks, tokens, and invitations
// are all scoped to an organization through the resolved authorization context.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
