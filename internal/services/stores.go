// stores.go declares the narrow store interfaces that the domain services
// depend on. internal/db/repositories satisfies all of them; tests substitute
// in-memory fakes. Keeping the interfaces service-side (rather than exporting
// them from the repository package) means each service states exactly which
// queries it needs and nothing more.
package services

import (
	"context"
	"time"

	"github.com/capturelog/capturelog/internal/db/models"
)

// UserStore is the user persistence port
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// OrganizationStore is the organization persistence port
type OrganizationStore interface {
	CreateOrganization(ctx context.Context, org *models.Organization) error
	GetOrganizationByID(ctx context.Context, orgID string) (*models.Organization, error)
}

// MembershipStore is the membership persistence port
type MembershipStore interface {
	CreateMembership(ctx context.Context, m *models.OrganizationMembership) error
	GetMembership(ctx context.Context, userID, organizationID string) (*models.OrganizationMembership, error)
	GetMembershipByID(ctx context.Context, membershipID string) (*models.OrganizationMembership, error)
	ListMembershipsByUser(ctx context.Context, userID string) ([]*models.OrganizationMembership, error)
	ListMembershipsByOrganization(ctx context.Context, organizationID string) ([]*models.OrganizationMembership, error)
	ListMembersWithUsers(ctx context.Context, organizationID string) ([]*models.MembershipWithUser, error)
	CountAdminCapable(ctx context.Context, organizationID string) (int, error)
	UpdateRole(ctx context.Context, membershipID string, role models.Role) error
	DeleteMembership(ctx context.Context, membershipID string) error
}

// TokenStore is the API token persistence port
type TokenStore interface {
	CreateToken(ctx context.Context, token *models.APIToken) error
	GetTokenByID(ctx context.Context, tokenID string) (*models.APIToken, error)
	ListTokensByUser(ctx context.Context, userID string) ([]*models.APIToken, error)
	CountTokensByUser(ctx context.Context, userID string) (int, error)
	UpdateLastUsed(ctx context.Context, tokenID string) error
	DeleteToken(ctx context.Context, tokenID string) error
}

// SessionStore is the session persistence port
type SessionStore interface {
	CreateSession(ctx context.Context, session *models.UserSession) error
	GetSessionByID(ctx context.Context, sessionID string) (*models.UserSession, error)
	UpdateLastActive(ctx context.Context, sessionID string, lastActiveAt time.Time) error
	UpdateCurrentOrganization(ctx context.Context, sessionID, organizationID string) error
	DeleteSession(ctx context.Context, sessionID string) error
	DeleteSessionsByUser(ctx context.Context, userID string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// PasskeyStore is the WebAuthn credential persistence port
type PasskeyStore interface {
	CreateCredential(ctx context.Context, cred *models.PasskeyCredential) error
	GetCredentialByID(ctx context.Context, credentialID string) (*models.PasskeyCredential, error)
	ListCredentialsByUser(ctx context.Context, userID string) ([]*models.PasskeyCredential, error)
	CountCredentialsByUser(ctx context.Context, userID string) (int, error)
	UpdateSignCount(ctx context.Context, credentialID string, signCount uint32) error
	DeleteCredential(ctx context.Context, credentialID string) error
}

// InvitationStore is the invitation persistence port
type InvitationStore interface {
	CreateInvitation(ctx context.Context, inv *models.Invitation) error
	GetInvitationByCode(ctx context.Context, code string) (*models.Invitation, error)
	GetInvitationByID(ctx context.Context, invitationID string) (*models.Invitation, error)
	MarkAccepted(ctx context.Context, invitationID, userID string, acceptedAt time.Time) error
	ListPendingByOrganization(ctx context.Context, organizationID string, now time.Time) ([]*models.Invitation, error)
	DeleteInvitation(ctx context.Context, invitationID string) error
}
