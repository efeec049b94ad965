package services

import (
	"context"
	"testing"

	"github.com/capturelog/capturelog/internal/db/models"
)

func TestAddMemberDuplicate(t *testing.T) {
	f := newFixture()
	owner := f.signup(t, "owner@example.com")
	member := f.signup(t, "member@example.com")

	f.addMember(t, member.User.ID, owner.Organization.ID, models.RoleMember)

	_, err := f.membershipSvc.AddMember(context.Background(), AddMemberParams{
		UserID:         member.User.ID,
		OrganizationID: owner.Organization.ID,
		Role:           models.RoleMember,
	})
	if !IsKind(err, KindAlreadyMember) {
		t.Errorf("expected KindAlreadyMember, got %v", err)
	}
}

func TestAddMemberInvalidRole(t *testing.T) {
	f := newFixture()
	owner := f.signup(t, "owner@example.com")

	_, err := f.membershipSvc.AddMember(context.Background(), AddMemberParams{
		UserID:         owner.User.ID,
		OrganizationID: owner.Organization.ID,
		Role:           models.Role("superuser"),
	})
	if !IsKind(err, KindInvalidRole) {
		t.Errorf("expected KindInvalidRole, got %v", err)
	}
}

func TestAddMemberUnknownReferences(t *testing.T) {
	f := newFixture()
	owner := f.signup(t, "owner@example.com")

	_, err := f.membershipSvc.AddMember(context.Background(), AddMemberParams{
		UserID:         "missing",
		OrganizationID: owner.Organization.ID,
		Role:           models.RoleMember,
	})
	if !IsKind(err, KindUserNotFound) {
		t.Errorf("expected KindUserNotFound, got %v", err)
	}

	_, err = f.membershipSvc.AddMember(context.Background(), AddMemberParams{
		UserID:         owner.User.ID,
		OrganizationID: "missing",
		Role:           models.RoleMember,
	})
	if !IsKind(err, KindOrganizationNotFound) {
		t.Errorf("expected KindOrganizationNotFound, got %v", err)
	}
}

func TestRemoveMemberPersonalOrg(t *testing.T) {
	f := newFixture()
	owner := f.signup(t, "owner@example.com")

	err := f.membershipSvc.RemoveMember(context.Background(), owner.Membership.ID)
	if !IsKind(err, KindCannotLeavePersonalOrg) {
		t.Errorf("expected KindCannotLeavePersonalOrg, got %v", err)
	}
}

func TestRemoveMemberLastAdmin(t *testing.T) {
	f := newFixture()
	owner := f.signup(t, "owner@example.com")
	admin := f.signup(t, "admin@example.com")

	// admin joins the owner's (non-personal from their view) org; then the
	// owner's membership can only be removed while another admin remains
	adminMembership := f.addMember(t, admin.User.ID, owner.Organization.ID, models.RoleAdmin)

	// removing the joined admin is fine: the owner remains admin-capable
	if err := f.membershipSvc.RemoveMember(context.Background(), adminMembership.ID); err != nil {
		t.Fatalf("remove admin: %v", err)
	}

	// re-add as plain member, then removal of that member must also work
	memberMembership := f.addMember(t, admin.User.ID, owner.Organization.ID, models.RoleMember)
	if err := f.membershipSvc.RemoveMember(context.Background(), memberMembership.ID); err != nil {
		t.Fatalf("remove member: %v", err)
	}
}

func TestRemoveMemberSoleAdminRejected(t *testing.T) {
	f := newFixture()
	owner := f.signup(t, "owner@example.com")
	other := f.signup(t, "other@example.com")

	// build a shared org where "other" is the only admin-capable member
	org := &models.Organization{Name: "shared"}
	if err := f.orgs.CreateOrganization(context.Background(), org); err != nil {
		t.Fatalf("create org: %v", err)
	}
	adminMembership := f.addMember(t, other.User.ID, org.ID, models.RoleAdmin)
	f.addMember(t, owner.User.ID, org.ID, models.RoleMember)

	err := f.membershipSvc.RemoveMember(context.Background(), adminMembership.ID)
	if !IsKind(err, KindLastAdmin) {
		t.Errorf("expected KindLastAdmin, got %v", err)
	}
}

func TestChangeRoleOwnerImmutable(t *testing.T) {
	f := newFixture()
	owner := f.signup(t, "owner@example.com")
	member := f.signup(t, "member@example.com")
	m := f.addMember(t, member.User.ID, owner.Organization.ID, models.RoleMember)

	if err := f.membershipSvc.ChangeRole(context.Background(), owner.Membership.ID, models.RoleAdmin); !IsKind(err, KindCannotChangeOwnerRole) {
		t.Errorf("demoting owner: expected KindCannotChangeOwnerRole, got %v", err)
	}
	if err := f.membershipSvc.ChangeRole(context.Background(), m.ID, models.RoleOwner); !IsKind(err, KindCannotChangeOwnerRole) {
		t.Errorf("granting owner: expected KindCannotChangeOwnerRole, got %v", err)
	}
}

func TestChangeRolePromotionAndDemotion(t *testing.T) {
	f := newFixture()
	owner := f.signup(t, "owner@example.com")
	member := f.signup(t, "member@example.com")
	m := f.addMember(t, member.User.ID, owner.Organization.ID, models.RoleMember)

	if err := f.membershipSvc.ChangeRole(context.Background(), m.ID, models.RoleAdmin); err != nil {
		t.Fatalf("promote: %v", err)
	}

	got, err := f.membershipSvc.GetMembership(context.Background(), member.User.ID, owner.Organization.ID)
	if err != nil {
		t.Fatalf("get membership: %v", err)
	}
	if got.Role != models.RoleAdmin {
		t.Errorf("role = %s, want admin", got.Role)
	}

	// demotion is fine while the owner stays admin-capable
	if err := f.membershipSvc.ChangeRole(context.Background(), m.ID, models.RoleMember); err != nil {
		t.Fatalf("demote: %v", err)
	}
}

func TestChangeRoleDemoteSoleAdminRejected(t *testing.T) {
	f := newFixture()
	other := f.signup(t, "other@example.com")

	org := &models.Organization{Name: "shared"}
	if err := f.orgs.CreateOrganization(context.Background(), org); err != nil {
		t.Fatalf("create org: %v", err)
	}
	m := f.addMember(t, other.User.ID, org.ID, models.RoleAdmin)

	err := f.membershipSvc.ChangeRole(context.Background(), m.ID, models.RoleMember)
	if !IsKind(err, KindLastAdmin) {
		t.Errorf("expected KindLastAdmin, got %v", err)
	}
}

func TestGetMembershipAbsentIsNil(t *testing.T) {
	f := newFixture()
	owner := f.signup(t, "owner@example.com")

	m, err := f.membershipSvc.GetMembership(context.Background(), owner.User.ID, "nope")
	if err != nil {
		t.Fatalf("get membership: %v", err)
	}
	if m != nil {
		t.Errorf("expected nil membership, got %+v", m)
	}
}

func TestListMembershipsNoSelector(t *testing.T) {
	f := newFixture()

	out, err := f.membershipSvc.ListMemberships(context.Background(), "", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected empty list, got %d", len(out))
	}
}

func TestRequireRole(t *testing.T) {
	f := newFixture()
	owner := f.signup(t, "owner@example.com")
	member := f.signup(t, "member@example.com")
	outsider := f.signup(t, "outsider@example.com")
	f.addMember(t, member.User.ID, owner.Organization.ID, models.RoleMember)

	ctx := context.Background()
	orgID := owner.Organization.ID

	if err := f.membershipSvc.RequireRole(ctx, owner.User.ID, orgID, models.RoleAdmin); err != nil {
		t.Errorf("owner should satisfy admin: %v", err)
	}
	if err := f.membershipSvc.RequireRole(ctx, member.User.ID, orgID, models.RoleMember); err != nil {
		t.Errorf("member should satisfy member: %v", err)
	}
	if err := f.membershipSvc.RequireRole(ctx, member.User.ID, orgID, models.RoleAdmin); !IsKind(err, KindInsufficientRole) {
		t.Errorf("expected KindInsufficientRole, got %v", err)
	}
	if err := f.membershipSvc.RequireRole(ctx, outsider.User.ID, orgID, models.RoleMember); !IsKind(err, KindNotAMember) {
		t.Errorf("expected KindNotAMember, got %v", err)
	}
}

func TestListMembersIncludesEmails(t *testing.T) {
	f := newFixture()
	owner := f.signup(t, "owner@example.com")
	member := f.signup(t, "member@example.com")
	f.addMember(t, member.User.ID, owner.Organization.ID, models.RoleMember)

	members, err := f.membershipSvc.ListMembers(context.Background(), owner.Organization.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}
	emails := map[string]bool{}
	for _, m := range members {
		emails[m.UserEmail] = true
	}
	if !emails["owner@example.com"] || !emails["member@example.com"] {
		t.Errorf("missing member emails: %v", emails)
	}
}
