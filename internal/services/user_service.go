// user_service.go implements account signup and lookup. Signup provisions the
// user's personal organization and owner membership in the same call, so every
// user always has at least one organization to resolve context against.
package services

import (
	"context"
	"fmt"

	"github.com/capturelog/capturelog/internal/db/models"
	"github.com/capturelog/capturelog/internal/validation"
)

// UserService manages account lifecycle
type UserService struct {
	users         UserStore
	organizations OrganizationStore
	memberships   *MembershipService
}

// NewUserService creates a new UserService
func NewUserService(users UserStore, organizations OrganizationStore, memberships *MembershipService) *UserService {
	return &UserService{
		users:         users,
		organizations: organizations,
		memberships:   memberships,
	}
}

// SignupResult carries everything created during signup
type SignupResult struct {
	User         *models.User
	Organization *models.Organization
	Membership   *models.OrganizationMembership
}

// Signup creates a user, their personal organization, and an owner membership
// flagged is_personal_org. Emails are stored lowercase and must be unique.
func (s *UserService) Signup(ctx context.Context, email string) (*SignupResult, error) {
	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, E(KindInvalidEmail, "a valid email address is required")
	}

	existing, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, storageErr("get user by email", err)
	}
	if existing != nil {
		return nil, E(KindEmailTaken, "an account with this email already exists")
	}

	user := &models.User{Email: email}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, storageErr("create user", err)
	}

	org := &models.Organization{Name: fmt.Sprintf("%s's workspace", email)}
	if err := s.organizations.CreateOrganization(ctx, org); err != nil {
		return nil, storageErr("create personal organization", err)
	}

	membership, err := s.memberships.AddMember(ctx, AddMemberParams{
		UserID:         user.ID,
		OrganizationID: org.ID,
		Role:           models.RoleOwner,
		IsPersonalOrg:  true,
	})
	if err != nil {
		return nil, err
	}

	return &SignupResult{User: user, Organization: org, Membership: membership}, nil
}

// GetUser returns a user by ID, or a typed not-found error
func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storageErr("get user", err)
	}
	if user == nil {
		return nil, E(KindUserNotFound, "user not found")
	}
	return user, nil
}

// GetUserByEmail returns a user by email, or a typed not-found error
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return nil, storageErr("get user by email", err)
	}
	if user == nil {
		return nil, E(KindUserNotFound, "user not found")
	}
	return user, nil
}
