// session_repository.go implements SessionRepository, providing database queries for
// browser session creation, lookup, sliding refresh, organization switch, revocation,
// and the bulk expiry sweep.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/capturelog/capturelog/internal/db/models"
	"github.com/google/uuid"
)

// SessionRepository handles user session database operations
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateSession creates a new session row
func (r *SessionRepository) CreateSession(ctx context.Context, session *models.UserSession) error {
	session.ID = uuid.New().String()
	session.CreatedAt = time.Now()
	session.LastActiveAt = session.CreatedAt

	query := `
		INSERT INTO user_sessions (id, user_id, current_organization_id, created_at, expires_at, last_active_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.CurrentOrganizationID,
		session.CreatedAt,
		session.ExpiresAt,
		session.LastActiveAt,
	)

	return err
}

// GetSessionByID retrieves a session by ID
func (r *SessionRepository) GetSessionByID(ctx context.Context, sessionID string) (*models.UserSession, error) {
	query := `
		SELECT id, user_id, current_organization_id, created_at, expires_at, last_active_at
		FROM user_sessions
		WHERE id = $1
	`

	session := &models.UserSession{}
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&session.ID,
		&session.UserID,
		&session.CurrentOrganizationID,
		&session.CreatedAt,
		&session.ExpiresAt,
		&session.LastActiveAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return session, nil
}

// UpdateLastActive updates the last_active_at timestamp for a session
func (r *SessionRepository) UpdateLastActive(ctx context.Context, sessionID string, lastActiveAt time.Time) error {
	query := `UPDATE user_sessions SET last_active_at = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, sessionID, lastActiveAt)
	return err
}

// UpdateCurrentOrganization updates the session's current organization
func (r *SessionRepository) UpdateCurrentOrganization(ctx context.Context, sessionID, organizationID string) error {
	query := `UPDATE user_sessions SET current_organization_id = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, sessionID, organizationID)
	return err
}

// DeleteSession deletes a session by ID. Idempotent: deleting a missing
// session is not an error.
func (r *SessionRepository) DeleteSession(ctx context.Context, sessionID string) error {
	query := `DELETE FROM user_sessions WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, sessionID)
	return err
}

// DeleteSessionsByUser deletes all sessions for a user
func (r *SessionRepository) DeleteSessionsByUser(ctx context.Context, userID string) error {
	query := `DELETE FROM user_sessions WHERE user_id = $1`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// DeleteExpiredSessions bulk-deletes sessions whose expiry has passed and
// returns the number of rows removed
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM user_sessions WHERE expires_at < $1`

	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// CountActiveSessions returns the number of unexpired sessions
func (r *SessionRepository) CountActiveSessions(ctx context.Context, now time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM user_sessions WHERE expires_at > $1`

	var count int
	err := r.db.QueryRowContext(ctx, query, now).Scan(&count)
	return count, err
}
