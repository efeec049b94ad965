package models

import (
	"testing"
	"time"
)

func TestRoleHasRole(t *testing.T) {
	cases := []struct {
		actual   Role
		required Role
		want     bool
	}{
		{RoleOwner, RoleOwner, true},
		{RoleOwner, RoleAdmin, true},
		{RoleOwner, RoleMember, true},
		{RoleAdmin, RoleOwner, false},
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleMember, true},
		{RoleMember, RoleOwner, false},
		{RoleMember, RoleAdmin, false},
		{RoleMember, RoleMember, true},
		{Role("bogus"), RoleMember, false},
	}

	for _, tc := range cases {
		if got := tc.actual.HasRole(tc.required); got != tc.want {
			t.Errorf("HasRole(%s, required=%s) = %v, want %v", tc.actual, tc.required, got, tc.want)
		}
	}
}

func TestRoleAdminCapable(t *testing.T) {
	if !RoleOwner.AdminCapable() || !RoleAdmin.AdminCapable() {
		t.Error("owner and admin must be admin-capable")
	}
	if RoleMember.AdminCapable() {
		t.Error("member must not be admin-capable")
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleOwner, RoleAdmin, RoleMember} {
		if !r.Valid() {
			t.Errorf("%s should be valid", r)
		}
	}
	if Role("superuser").Valid() {
		t.Error("unknown role should be invalid")
	}
}

func TestSessionExpiredBoundary(t *testing.T) {
	exp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &UserSession{ExpiresAt: exp}

	if s.Expired(exp.Add(-time.Second)) {
		t.Error("session should be valid strictly before expiry")
	}
	// Expiry boundary is exclusive on the valid side.
	if !s.Expired(exp) {
		t.Error("session should be expired at exactly ExpiresAt")
	}
	if !s.Expired(exp.Add(time.Second)) {
		t.Error("session should be expired after ExpiresAt")
	}
}

func TestInvitationPending(t *testing.T) {
	now := time.Now()
	inv := &Invitation{ExpiresAt: now.Add(time.Hour)}
	if !inv.Pending(now) {
		t.Error("unaccepted, unexpired invitation should be pending")
	}

	accepted := now
	inv.AcceptedAt = &accepted
	if inv.Pending(now) {
		t.Error("accepted invitation should not be pending")
	}

	inv.AcceptedAt = nil
	inv.ExpiresAt = now.Add(-time.Minute)
	if inv.Pending(now) {
		t.Error("expired invitation should not be pending")
	}
}
