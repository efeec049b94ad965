// invitation_service.go implements time-bounded, single-use join codes.
// The admin-role requirement for issuing and revoking invitations is enforced
// here, exactly once — handlers do not repeat the check.
package services

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"strings"
	"time"

	"github.com/capturelog/capturelog/internal/db/models"
	"github.com/capturelog/capturelog/internal/validation"
)

// DefaultInvitationExpiryDays is used when no explicit expiry is requested
const DefaultInvitationExpiryDays = 7

// invitationCodeBytes sets the entropy of the join code (13 base32 chars)
const invitationCodeBytes = 8

// InvitationService issues and redeems organization invitations
type InvitationService struct {
	invitations InvitationStore
	memberships *MembershipService
	users       UserStore
	now         func() time.Time
}

// NewInvitationService creates a new InvitationService
func NewInvitationService(invitations InvitationStore, memberships *MembershipService, users UserStore) *InvitationService {
	return &InvitationService{
		invitations: invitations,
		memberships: memberships,
		users:       users,
		now:         time.Now,
	}
}

// CreateInvitationParams describes an invitation to issue
type CreateInvitationParams struct {
	OrganizationID  string
	InvitedByUserID string
	Role            models.Role
	Email           *string
	ExpiresInDays   int
}

// CreateInvitation issues a join code for an organization. The inviter must
// hold at least the admin role there. Invitations never grant ownership.
func (s *InvitationService) CreateInvitation(ctx context.Context, p CreateInvitationParams) (*models.Invitation, error) {
	if p.Role != models.RoleAdmin && p.Role != models.RoleMember {
		return nil, Ef(KindInvalidRole, "invitations may grant admin or member, not %q", p.Role)
	}

	if p.Email != nil {
		normalized := validation.NormalizeEmail(*p.Email)
		if err := validation.ValidateEmail(normalized); err != nil {
			return nil, E(KindInvalidEmail, "a valid email address is required")
		}
		p.Email = &normalized
	}

	if err := s.memberships.RequireRole(ctx, p.InvitedByUserID, p.OrganizationID, models.RoleAdmin); err != nil {
		return nil, err
	}

	days := p.ExpiresInDays
	if days <= 0 {
		days = DefaultInvitationExpiryDays
	}

	code, err := generateInvitationCode()
	if err != nil {
		return nil, storageErr("generate invitation code", err)
	}

	now := s.now()
	inv := &models.Invitation{
		Code:            code,
		Email:           p.Email,
		OrganizationID:  p.OrganizationID,
		InvitedByUserID: &p.InvitedByUserID,
		Role:            p.Role,
		ExpiresAt:       now.Add(time.Duration(days) * 24 * time.Hour),
	}
	if err := s.invitations.CreateInvitation(ctx, inv); err != nil {
		return nil, storageErr("create invitation", err)
	}

	return inv, nil
}

// ValidateInvitation checks that a code is redeemable: it exists, has not been
// accepted, has not expired, and matches the caller's email when the
// invitation is email-scoped.
func (s *InvitationService) ValidateInvitation(ctx context.Context, code string, email *string) (*models.Invitation, error) {
	inv, err := s.invitations.GetInvitationByCode(ctx, code)
	if err != nil {
		return nil, storageErr("get invitation", err)
	}
	if inv == nil {
		return nil, E(KindInvitationNotFound, "invitation not found")
	}

	if inv.AcceptedAt != nil {
		return nil, E(KindInvitationAlreadyAccepted, "invitation has already been used")
	}

	now := s.now()
	if !now.Before(inv.ExpiresAt) {
		return nil, E(KindInvitationExpired, "invitation has expired")
	}

	if inv.Email != nil {
		if email == nil || !strings.EqualFold(*inv.Email, *email) {
			return nil, E(KindInvitationEmailMismatch, "invitation was issued for a different email address")
		}
	}

	return inv, nil
}

// AcceptInvitation redeems a code for a user: re-validates, then marks the
// invitation terminal. The caller is responsible for creating the membership
// afterwards with the invitation's role — acceptance and membership creation
// are two steps, not one transaction.
func (s *InvitationService) AcceptInvitation(ctx context.Context, code, userID string) (*models.Invitation, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storageErr("get user", err)
	}
	if user == nil {
		return nil, E(KindUserNotFound, "user not found")
	}

	inv, err := s.ValidateInvitation(ctx, code, &user.Email)
	if err != nil {
		return nil, err
	}

	acceptedAt := s.now()
	if err := s.invitations.MarkAccepted(ctx, inv.ID, userID, acceptedAt); err != nil {
		return nil, storageErr("mark invitation accepted", err)
	}

	inv.AcceptedAt = &acceptedAt
	inv.AcceptedByUserID = &userID
	return inv, nil
}

// ListPendingInvitations lists an organization's unaccepted, unexpired
// invitations. The caller must hold at least the admin role there.
func (s *InvitationService) ListPendingInvitations(ctx context.Context, organizationID, callerUserID string) ([]*models.Invitation, error) {
	if err := s.memberships.RequireRole(ctx, callerUserID, organizationID, models.RoleAdmin); err != nil {
		return nil, err
	}

	invitations, err := s.invitations.ListPendingByOrganization(ctx, organizationID, s.now())
	if err != nil {
		return nil, storageErr("list pending invitations", err)
	}
	return invitations, nil
}

// RevokeInvitation hard-deletes an invitation. The caller must hold at least
// the admin role in the owning organization.
func (s *InvitationService) RevokeInvitation(ctx context.Context, invitationID, callerUserID string) error {
	inv, err := s.invitations.GetInvitationByID(ctx, invitationID)
	if err != nil {
		return storageErr("get invitation", err)
	}
	if inv == nil {
		return E(KindInvitationNotFound, "invitation not found")
	}

	if err := s.memberships.RequireRole(ctx, callerUserID, inv.OrganizationID, models.RoleAdmin); err != nil {
		return err
	}

	if err := s.invitations.DeleteInvitation(ctx, invitationID); err != nil {
		return storageErr("delete invitation", err)
	}

	return nil
}

// generateInvitationCode returns a short random join code, lowercase base32
// without padding
func generateInvitationCode() (string, error) {
	b := make([]byte, invitationCodeBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	code := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(b)
	return strings.ToLower(code), nil
}
