// invitation.go defines the time-bounded organization invitation entity.
package models

import "time"

// Invitation is a single-use join code for an organization. Once AcceptedAt
// is set the invitation is terminal. If Email is set, only a caller with a
// matching email may redeem it. Invitations never carry the owner role;
// ownership is bound to personal-org creation.
type Invitation struct {
	ID               string     `db:"id" json:"id"`
	Code             string     `db:"code" json:"code"`
	Email            *string    `db:"email" json:"email,omitempty"`
	OrganizationID   string     `db:"organization_id" json:"organization_id"`
	InvitedByUserID  *string    `db:"invited_by_user_id" json:"invited_by_user_id,omitempty"`
	Role             Role       `db:"role" json:"role"`
	ExpiresAt        time.Time  `db:"expires_at" json:"expires_at"`
	AcceptedAt       *time.Time `db:"accepted_at" json:"accepted_at,omitempty"`
	AcceptedByUserID *string    `db:"accepted_by_user_id" json:"accepted_by_user_id,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}

// Pending reports whether the invitation can still be redeemed at the given
// instant: not yet accepted and not expired.
func (i *Invitation) Pending(now time.Time) bool {
	return i.AcceptedAt == nil && now.Before(i.ExpiresAt)
}
