// organization_membership.go defines the user-to-organization join entity and
// the role hierarchy used for authorization decisions inside an organization.
package models

import "time"

// Role is a membership role inside an organization. Roles form a strict total
// order: owner > admin > member.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// rank maps each role to its position in the hierarchy. Unknown roles rank 0
// so they never satisfy any requirement.
func (r Role) rank() int {
	switch r {
	case RoleOwner:
		return 3
	case RoleAdmin:
		return 2
	case RoleMember:
		return 1
	default:
		return 0
	}
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	return r.rank() > 0
}

// HasRole reports whether r satisfies the required role, i.e. whether r ranks
// at least as high as required in the hierarchy.
func (r Role) HasRole(required Role) bool {
	return r.rank() >= required.rank() && r.rank() > 0
}

// AdminCapable reports whether r counts toward the "at least one
// administrator" invariant for an organization.
func (r Role) AdminCapable() bool {
	return r == RoleOwner || r == RoleAdmin
}

// OrganizationMembership joins a user to an organization with a role.
// Unique on (UserID, OrganizationID). A membership flagged IsPersonalOrg can
// never be removed, and an organization must always retain at least one
// admin-capable membership.
type OrganizationMembership struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	OrganizationID string    `json:"organization_id"`
	Role           Role      `json:"role"`
	IsPersonalOrg  bool      `json:"is_personal_org"`
	JoinedAt       time.Time `json:"joined_at"`
}

// MembershipWithUser includes user details for organization member listings.
type MembershipWithUser struct {
	OrganizationMembership
	UserEmail string `json:"user_email"`
}
