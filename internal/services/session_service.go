// session_service.go implements persisted browser sessions: creation with
// default-organization selection, validity queries, sliding refresh bounded by
// an idle threshold, organization switching, revocation, and the expiry sweep.
package services

import (
	"context"
	"time"

	"github.com/capturelog/capturelog/internal/db/models"
	"github.com/capturelog/capturelog/internal/telemetry"
)

// SessionService manages user sessions scoped to one current organization
type SessionService struct {
	sessions    SessionStore
	users       UserStore
	memberships *MembershipService

	ttl              time.Duration
	refreshThreshold time.Duration
	now              func() time.Time
}

// NewSessionService creates a new SessionService. ttl bounds session
// lifetime; refreshThreshold bounds how often LastActiveAt is rewritten.
func NewSessionService(sessions SessionStore, users UserStore, memberships *MembershipService, ttl, refreshThreshold time.Duration) *SessionService {
	return &SessionService{
		sessions:         sessions,
		users:            users,
		memberships:      memberships,
		ttl:              ttl,
		refreshThreshold: refreshThreshold,
		now:              time.Now,
	}
}

// CreateSession creates a session for a user. If organizationID is empty the
// session is scoped to the user's personal organization, falling back to the
// first membership; if given, the user must be a member of it.
func (s *SessionService) CreateSession(ctx context.Context, userID, organizationID string) (*models.UserSession, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storageErr("get user", err)
	}
	if user == nil {
		return nil, E(KindUserNotFound, "user not found")
	}

	memberships, err := s.memberships.ListMemberships(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	// Personal orgs are auto-created at signup, so this should not occur;
	// defended anyway.
	if len(memberships) == 0 {
		return nil, E(KindNoMemberships, "user has no organization memberships")
	}

	if organizationID != "" {
		if !memberOf(memberships, organizationID) {
			return nil, E(KindNotAMember, "not a member of this organization")
		}
	} else {
		organizationID = memberships[0].OrganizationID
		for _, m := range memberships {
			if m.IsPersonalOrg {
				organizationID = m.OrganizationID
				break
			}
		}
	}

	now := s.now()
	session := &models.UserSession{
		UserID:                userID,
		CurrentOrganizationID: organizationID,
		ExpiresAt:             now.Add(s.ttl),
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, storageErr("create session", err)
	}

	telemetry.SessionsCreatedTotal.Inc()
	return session, nil
}

// ValidateSession returns the session if it exists and has not expired, else
// nil. Absence and expiry are query results, not errors.
func (s *SessionService) ValidateSession(ctx context.Context, sessionID string) (*models.UserSession, error) {
	session, err := s.sessions.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, storageErr("get session", err)
	}
	if session == nil || session.Expired(s.now()) {
		return nil, nil
	}
	return session, nil
}

// RefreshSession slides LastActiveAt forward, but only after the refresh
// threshold has elapsed since the last write — calling it on every request
// would turn each read into a write. Returns true only when a write happened.
func (s *SessionService) RefreshSession(ctx context.Context, sessionID string) (bool, error) {
	session, err := s.sessions.GetSessionByID(ctx, sessionID)
	if err != nil {
		return false, storageErr("get session", err)
	}

	now := s.now()
	if session == nil || session.Expired(now) {
		return false, nil
	}
	if now.Sub(session.LastActiveAt) < s.refreshThreshold {
		return false, nil
	}

	if err := s.sessions.UpdateLastActive(ctx, sessionID, now); err != nil {
		return false, storageErr("update last active", err)
	}

	return true, nil
}

// SwitchOrganization changes the session's current organization after
// verifying the session's user is a member of the target
func (s *SessionService) SwitchOrganization(ctx context.Context, sessionID, organizationID string) (*models.UserSession, error) {
	session, err := s.sessions.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, storageErr("get session", err)
	}
	if session == nil {
		return nil, E(KindSessionNotFound, "session not found")
	}

	m, err := s.memberships.GetMembership(ctx, session.UserID, organizationID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, E(KindNotAMember, "not a member of this organization")
	}

	if err := s.sessions.UpdateCurrentOrganization(ctx, sessionID, organizationID); err != nil {
		return nil, storageErr("update current organization", err)
	}

	session.CurrentOrganizationID = organizationID
	return session, nil
}

// RevokeSession deletes a session. Idempotent.
func (s *SessionService) RevokeSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
		return storageErr("delete session", err)
	}
	return nil
}

// RevokeAllUserSessions deletes every session belonging to a user. Idempotent.
func (s *SessionService) RevokeAllUserSessions(ctx context.Context, userID string) error {
	if err := s.sessions.DeleteSessionsByUser(ctx, userID); err != nil {
		return storageErr("delete user sessions", err)
	}
	return nil
}

// CleanupExpiredSessions bulk-deletes expired sessions and returns the count
// removed
func (s *SessionService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	removed, err := s.sessions.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		return 0, storageErr("delete expired sessions", err)
	}
	telemetry.SessionsSweptTotal.Add(float64(removed))
	return removed, nil
}

// TTL returns the configured session lifetime, used by handlers to set cookie
// max-age.
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

func memberOf(memberships []*models.OrganizationMembership, organizationID string) bool {
	for _, m := range memberships {
		if m.OrganizationID == organizationID {
			return true
		}
	}
	return false
}
