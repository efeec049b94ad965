// membership_service.go implements the membership domain rules: role changes,
// removals, and the two tenant-isolation invariants — personal-org memberships
// are permanent, and an organization always keeps at least one admin-capable
// member.
package services

import (
	"context"

	"github.com/capturelog/capturelog/internal/db/models"
)

// MembershipService manages the user-to-organization relationship
type MembershipService struct {
	memberships MembershipStore
	users       UserStore
	orgs        OrganizationStore
}

// NewMembershipService creates a new MembershipService
func NewMembershipService(memberships MembershipStore, users UserStore, orgs OrganizationStore) *MembershipService {
	return &MembershipService{
		memberships: memberships,
		users:       users,
		orgs:        orgs,
	}
}

// AddMemberParams describes a membership to create
type AddMemberParams struct {
	UserID         string
	OrganizationID string
	Role           models.Role
	IsPersonalOrg  bool
}

// AddMember creates a membership after checking both references and the
// (user, org) uniqueness. The unique constraint on the join table backstops
// the duplicate check at the storage level.
func (s *MembershipService) AddMember(ctx context.Context, p AddMemberParams) (*models.OrganizationMembership, error) {
	if !p.Role.Valid() {
		return nil, Ef(KindInvalidRole, "unknown role %q", p.Role)
	}

	user, err := s.users.GetUserByID(ctx, p.UserID)
	if err != nil {
		return nil, storageErr("get user", err)
	}
	if user == nil {
		return nil, E(KindUserNotFound, "user not found")
	}

	org, err := s.orgs.GetOrganizationByID(ctx, p.OrganizationID)
	if err != nil {
		return nil, storageErr("get organization", err)
	}
	if org == nil {
		return nil, E(KindOrganizationNotFound, "organization not found")
	}

	existing, err := s.memberships.GetMembership(ctx, p.UserID, p.OrganizationID)
	if err != nil {
		return nil, storageErr("get membership", err)
	}
	if existing != nil {
		return nil, E(KindAlreadyMember, "user is already a member of this organization")
	}

	m := &models.OrganizationMembership{
		UserID:         p.UserID,
		OrganizationID: p.OrganizationID,
		Role:           p.Role,
		IsPersonalOrg:  p.IsPersonalOrg,
	}
	if err := s.memberships.CreateMembership(ctx, m); err != nil {
		return nil, storageErr("create membership", err)
	}

	return m, nil
}

// RemoveMember deletes a membership. Personal-org memberships are never
// removable, and removing the last admin-capable member of an organization is
// rejected.
//
// The admin count check and the delete are separate statements, so two
// concurrent removals of the second-to-last admin can both pass the check
// and leave an organization with no admin. Closing that race needs a
// transaction with a row lock on the organization's memberships.
func (s *MembershipService) RemoveMember(ctx context.Context, membershipID string) error {
	m, err := s.memberships.GetMembershipByID(ctx, membershipID)
	if err != nil {
		return storageErr("get membership", err)
	}
	if m == nil {
		return E(KindMembershipNotFound, "membership not found")
	}

	if m.IsPersonalOrg {
		return E(KindCannotLeavePersonalOrg, "cannot leave your personal organization")
	}

	if m.Role.AdminCapable() {
		if err := s.checkNotLastAdmin(ctx, m.OrganizationID); err != nil {
			return err
		}
	}

	if err := s.memberships.DeleteMembership(ctx, membershipID); err != nil {
		return storageErr("delete membership", err)
	}

	return nil
}

// ChangeRole updates a membership's role in place. The owner role is
// immutable (bound to personal-org creation), and demoting the last
// admin-capable member is rejected the same way removal is.
func (s *MembershipService) ChangeRole(ctx context.Context, membershipID string, role models.Role) error {
	if !role.Valid() {
		return Ef(KindInvalidRole, "unknown role %q", role)
	}

	m, err := s.memberships.GetMembershipByID(ctx, membershipID)
	if err != nil {
		return storageErr("get membership", err)
	}
	if m == nil {
		return E(KindMembershipNotFound, "membership not found")
	}

	if m.Role == models.RoleOwner {
		return E(KindCannotChangeOwnerRole, "the owner role cannot be changed")
	}
	if role == models.RoleOwner {
		return E(KindCannotChangeOwnerRole, "the owner role cannot be granted")
	}

	// Only a demotion out of the admin-capable tier can violate the
	// last-admin invariant; promotions and same-tier changes need no check.
	if m.Role.AdminCapable() && !role.AdminCapable() {
		if err := s.checkNotLastAdmin(ctx, m.OrganizationID); err != nil {
			return err
		}
	}

	if err := s.memberships.UpdateRole(ctx, membershipID, role); err != nil {
		return storageErr("update role", err)
	}

	return nil
}

// GetMembership looks up the membership for a (user, organization) pair.
// Absence is a query result, not an error: returns nil, nil.
func (s *MembershipService) GetMembership(ctx context.Context, userID, organizationID string) (*models.OrganizationMembership, error) {
	m, err := s.memberships.GetMembership(ctx, userID, organizationID)
	if err != nil {
		return nil, storageErr("get membership", err)
	}
	return m, nil
}

// GetMembershipByID looks up a membership by its row ID. Unlike GetMembership,
// absence is an error here: callers pass IDs taken from request paths.
func (s *MembershipService) GetMembershipByID(ctx context.Context, membershipID string) (*models.OrganizationMembership, error) {
	m, err := s.memberships.GetMembershipByID(ctx, membershipID)
	if err != nil {
		return nil, storageErr("get membership", err)
	}
	if m == nil {
		return nil, E(KindMembershipNotFound, "membership not found")
	}
	return m, nil
}

// ListMemberships lists memberships by user or by organization. With neither
// selector it returns an empty list — a documented permissive default, not an
// error.
func (s *MembershipService) ListMemberships(ctx context.Context, userID, organizationID string) ([]*models.OrganizationMembership, error) {
	switch {
	case userID != "":
		memberships, err := s.memberships.ListMembershipsByUser(ctx, userID)
		if err != nil {
			return nil, storageErr("list memberships by user", err)
		}
		return memberships, nil
	case organizationID != "":
		memberships, err := s.memberships.ListMembershipsByOrganization(ctx, organizationID)
		if err != nil {
			return nil, storageErr("list memberships by organization", err)
		}
		return memberships, nil
	default:
		return []*models.OrganizationMembership{}, nil
	}
}

// ListMembers lists an organization's memberships joined with user emails
func (s *MembershipService) ListMembers(ctx context.Context, organizationID string) ([]*models.MembershipWithUser, error) {
	members, err := s.memberships.ListMembersWithUsers(ctx, organizationID)
	if err != nil {
		return nil, storageErr("list members", err)
	}
	return members, nil
}

// RequireRole verifies that the user holds at least the required role in the
// organization. Fails KindNotAMember when no membership exists and
// KindInsufficientRole when the membership ranks below required.
func (s *MembershipService) RequireRole(ctx context.Context, userID, organizationID string, required models.Role) error {
	m, err := s.memberships.GetMembership(ctx, userID, organizationID)
	if err != nil {
		return storageErr("get membership", err)
	}
	if m == nil {
		return E(KindNotAMember, "not a member of this organization")
	}
	if !m.Role.HasRole(required) {
		return Ef(KindInsufficientRole, "requires at least the %s role", required)
	}
	return nil
}

func (s *MembershipService) checkNotLastAdmin(ctx context.Context, organizationID string) error {
	count, err := s.memberships.CountAdminCapable(ctx, organizationID)
	if err != nil {
		return storageErr("count admin-capable members", err)
	}
	if count <= 1 {
		return E(KindLastAdmin, "organization must keep at least one admin or owner")
	}
	return nil
}
