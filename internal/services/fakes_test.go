// fakes_test.go provides in-memory store implementations for service tests.
// The fakes mirror the repository contracts: absence is (nil, nil), IDs and
// timestamps are assigned on create, and all methods are safe for concurrent
// use because some services write from background goroutines.
package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/capturelog/capturelog/internal/db/models"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (f *fakeUserStore) CreateUser(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = time.Now()
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[userID], nil
}

func (f *fakeUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

type fakeOrganizationStore struct {
	mu   sync.Mutex
	orgs map[string]*models.Organization
}

func newFakeOrganizationStore() *fakeOrganizationStore {
	return &fakeOrganizationStore{orgs: make(map[string]*models.Organization)}
}

func (f *fakeOrganizationStore) CreateOrganization(ctx context.Context, org *models.Organization) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if org.ID == "" {
		org.ID = uuid.New().String()
	}
	org.CreatedAt = time.Now()
	f.orgs[org.ID] = org
	return nil
}

func (f *fakeOrganizationStore) GetOrganizationByID(ctx context.Context, orgID string) (*models.Organization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orgs[orgID], nil
}

type fakeMembershipStore struct {
	mu          sync.Mutex
	memberships []*models.OrganizationMembership
	userEmails  map[string]string
}

func newFakeMembershipStore() *fakeMembershipStore {
	return &fakeMembershipStore{userEmails: make(map[string]string)}
}

func (f *fakeMembershipStore) CreateMembership(ctx context.Context, m *models.OrganizationMembership) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	m.JoinedAt = time.Now()
	f.memberships = append(f.memberships, m)
	return nil
}

func (f *fakeMembershipStore) GetMembership(ctx context.Context, userID, organizationID string) (*models.OrganizationMembership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.memberships {
		if m.UserID == userID && m.OrganizationID == organizationID {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeMembershipStore) GetMembershipByID(ctx context.Context, membershipID string) (*models.OrganizationMembership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.memberships {
		if m.ID == membershipID {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeMembershipStore) ListMembershipsByUser(ctx context.Context, userID string) ([]*models.OrganizationMembership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.OrganizationMembership
	// personal org first, matching the repository's ordering
	for _, m := range f.memberships {
		if m.UserID == userID && m.IsPersonalOrg {
			out = append(out, m)
		}
	}
	for _, m := range f.memberships {
		if m.UserID == userID && !m.IsPersonalOrg {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMembershipStore) ListMembershipsByOrganization(ctx context.Context, organizationID string) ([]*models.OrganizationMembership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.OrganizationMembership
	for _, m := range f.memberships {
		if m.OrganizationID == organizationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMembershipStore) ListMembersWithUsers(ctx context.Context, organizationID string) ([]*models.MembershipWithUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.MembershipWithUser
	for _, m := range f.memberships {
		if m.OrganizationID == organizationID {
			out = append(out, &models.MembershipWithUser{
				OrganizationMembership: *m,
				UserEmail:              f.userEmails[m.UserID],
			})
		}
	}
	return out, nil
}

func (f *fakeMembershipStore) CountAdminCapable(ctx context.Context, organizationID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, m := range f.memberships {
		if m.OrganizationID == organizationID && m.Role.AdminCapable() {
			count++
		}
	}
	return count, nil
}

func (f *fakeMembershipStore) UpdateRole(ctx context.Context, membershipID string, role models.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.memberships {
		if m.ID == membershipID {
			m.Role = role
		}
	}
	return nil
}

func (f *fakeMembershipStore) DeleteMembership(ctx context.Context, membershipID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, m := range f.memberships {
		if m.ID == membershipID {
			f.memberships = append(f.memberships[:i], f.memberships[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeTokenStore struct {
	mu           sync.Mutex
	tokens       map[string]*models.APIToken
	lastUsedSets int
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: make(map[string]*models.APIToken)}
}

func (f *fakeTokenStore) CreateToken(ctx context.Context, token *models.APIToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	token.CreatedAt = time.Now()
	f.tokens[token.ID] = token
	return nil
}

func (f *fakeTokenStore) GetTokenByID(ctx context.Context, tokenID string) (*models.APIToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokens[tokenID], nil
}

func (f *fakeTokenStore) ListTokensByUser(ctx context.Context, userID string) ([]*models.APIToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.APIToken
	for _, t := range f.tokens {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTokenStore) CountTokensByUser(ctx context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, t := range f.tokens {
		if t.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeTokenStore) UpdateLastUsed(ctx context.Context, tokenID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tokens[tokenID]; ok {
		now := time.Now()
		t.LastUsedAt = &now
		f.lastUsedSets++
	}
	return nil
}

func (f *fakeTokenStore) DeleteToken(ctx context.Context, tokenID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, tokenID)
	return nil
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*models.UserSession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*models.UserSession)}
}

func (f *fakeSessionStore) CreateSession(ctx context.Context, session *models.UserSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	now := time.Now()
	session.CreatedAt = now
	session.LastActiveAt = now
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeSessionStore) GetSessionByID(ctx context.Context, sessionID string) (*models.UserSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[sessionID], nil
}

func (f *fakeSessionStore) UpdateLastActive(ctx context.Context, sessionID string, lastActiveAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[sessionID]; ok {
		s.LastActiveAt = lastActiveAt
	}
	return nil
}

func (f *fakeSessionStore) UpdateCurrentOrganization(ctx context.Context, sessionID, organizationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[sessionID]; ok {
		s.CurrentOrganizationID = organizationID
	}
	return nil
}

func (f *fakeSessionStore) DeleteSession(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, sessionID)
	return nil
}

func (f *fakeSessionStore) DeleteSessionsByUser(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, id)
		}
	}
	return nil
}

func (f *fakeSessionStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed int64
	for id, s := range f.sessions {
		if s.Expired(now) {
			delete(f.sessions, id)
			removed++
		}
	}
	return removed, nil
}

type fakePasskeyStore struct {
	mu    sync.Mutex
	creds map[string]*models.PasskeyCredential
}

func newFakePasskeyStore() *fakePasskeyStore {
	return &fakePasskeyStore{creds: make(map[string]*models.PasskeyCredential)}
}

func (f *fakePasskeyStore) CreateCredential(ctx context.Context, cred *models.PasskeyCredential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cred.CreatedAt = time.Now()
	f.creds[cred.ID] = cred
	return nil
}

func (f *fakePasskeyStore) GetCredentialByID(ctx context.Context, credentialID string) (*models.PasskeyCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creds[credentialID], nil
}

func (f *fakePasskeyStore) ListCredentialsByUser(ctx context.Context, userID string) ([]*models.PasskeyCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.PasskeyCredential
	for _, c := range f.creds {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakePasskeyStore) CountCredentialsByUser(ctx context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, c := range f.creds {
		if c.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakePasskeyStore) UpdateSignCount(ctx context.Context, credentialID string, signCount uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.creds[credentialID]; ok {
		c.SignCount = signCount
		now := time.Now()
		c.LastUsedAt = &now
	}
	return nil
}

func (f *fakePasskeyStore) DeleteCredential(ctx context.Context, credentialID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.creds, credentialID)
	return nil
}

type fakeInvitationStore struct {
	mu          sync.Mutex
	invitations map[string]*models.Invitation
}

func newFakeInvitationStore() *fakeInvitationStore {
	return &fakeInvitationStore{invitations: make(map[string]*models.Invitation)}
}

func (f *fakeInvitationStore) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	inv.CreatedAt = time.Now()
	f.invitations[inv.ID] = inv
	return nil
}

func (f *fakeInvitationStore) GetInvitationByCode(ctx context.Context, code string) (*models.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invitations {
		if inv.Code == code {
			return inv, nil
		}
	}
	return nil, nil
}

func (f *fakeInvitationStore) GetInvitationByID(ctx context.Context, invitationID string) (*models.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.invitations[invitationID], nil
}

func (f *fakeInvitationStore) MarkAccepted(ctx context.Context, invitationID, userID string, acceptedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if inv, ok := f.invitations[invitationID]; ok {
		inv.AcceptedAt = &acceptedAt
		inv.AcceptedByUserID = &userID
	}
	return nil
}

func (f *fakeInvitationStore) ListPendingByOrganization(ctx context.Context, organizationID string, now time.Time) ([]*models.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Invitation
	for _, inv := range f.invitations {
		if inv.OrganizationID == organizationID && inv.Pending(now) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeInvitationStore) DeleteInvitation(ctx context.Context, invitationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.invitations, invitationID)
	return nil
}

// fixture wires every fake store plus the services under test into one value
type fixture struct {
	users       *fakeUserStore
	orgs        *fakeOrganizationStore
	memberships *fakeMembershipStore
	tokens      *fakeTokenStore
	sessions    *fakeSessionStore
	passkeys    *fakePasskeyStore
	invitations *fakeInvitationStore

	membershipSvc *MembershipService
	userSvc       *UserService
}

func newFixture() *fixture {
	f := &fixture{
		users:       newFakeUserStore(),
		orgs:        newFakeOrganizationStore(),
		memberships: newFakeMembershipStore(),
		tokens:      newFakeTokenStore(),
		sessions:    newFakeSessionStore(),
		passkeys:    newFakePasskeyStore(),
		invitations: newFakeInvitationStore(),
	}
	f.membershipSvc = NewMembershipService(f.memberships, f.users, f.orgs)
	f.userSvc = NewUserService(f.users, f.orgs, f.membershipSvc)
	return f
}

// signup provisions a user with their personal organization through the real
// user service
func (f *fixture) signup(t interface{ Fatalf(string, ...interface{}) }, email string) *SignupResult {
	res, err := f.userSvc.Signup(context.Background(), email)
	if err != nil {
		t.Fatalf("signup %s: %v", email, err)
	}
	f.memberships.mu.Lock()
	f.memberships.userEmails[res.User.ID] = res.User.Email
	f.memberships.mu.Unlock()
	return res
}

// addMember joins an existing user to an organization with the given role
func (f *fixture) addMember(t interface{ Fatalf(string, ...interface{}) }, userID, orgID string, role models.Role) *models.OrganizationMembership {
	m, err := f.membershipSvc.AddMember(context.Background(), AddMemberParams{
		UserID:         userID,
		OrganizationID: orgID,
		Role:           role,
	})
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	return m
}
