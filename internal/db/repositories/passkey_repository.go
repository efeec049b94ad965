// passkey_repository.go implements PasskeyRepository, providing database queries for
// WebAuthn credential persistence: creation, lookup, sign-count updates, and deletion.
// Transports are stored as JSONB.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/capturelog/capturelog/internal/db/models"
)

// PasskeyRepository handles passkey credential database operations
type PasskeyRepository struct {
	db *sql.DB
}

// NewPasskeyRepository creates a new PasskeyRepository
func NewPasskeyRepository(db *sql.DB) *PasskeyRepository {
	return &PasskeyRepository{db: db}
}

// CreateCredential persists a new passkey credential. The caller assigns ID
// (the authenticator-issued credential ID).
func (r *PasskeyRepository) CreateCredential(ctx context.Context, cred *models.PasskeyCredential) error {
	cred.CreatedAt = time.Now()

	transportsJSON, err := json.Marshal(cred.Transports)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO passkey_credentials (id, user_id, public_key, sign_count, transports, device_type, backed_up, name, created_at, last_used_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.db.ExecContext(ctx, query,
		cred.ID,
		cred.UserID,
		cred.PublicKey,
		cred.SignCount,
		transportsJSON,
		cred.DeviceType,
		cred.BackedUp,
		cred.Name,
		cred.CreatedAt,
		cred.LastUsedAt,
	)

	return err
}

// GetCredentialByID retrieves a credential by its credential ID
func (r *PasskeyRepository) GetCredentialByID(ctx context.Context, credentialID string) (*models.PasskeyCredential, error) {
	query := `
		SELECT id, user_id, public_key, sign_count, transports, device_type, backed_up, name, created_at, last_used_at
		FROM passkey_credentials
		WHERE id = $1
	`

	return r.scanCredential(r.db.QueryRowContext(ctx, query, credentialID))
}

// ListCredentialsByUser retrieves all credentials registered by a user
func (r *PasskeyRepository) ListCredentialsByUser(ctx context.Context, userID string) ([]*models.PasskeyCredential, error) {
	query := `
		SELECT id, user_id, public_key, sign_count, transports, device_type, backed_up, name, created_at, last_used_at
		FROM passkey_credentials
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	creds := make([]*models.PasskeyCredential, 0)
	for rows.Next() {
		cred, err := scanCredentialRow(rows)
		if err != nil {
			return nil, err
		}
		creds = append(creds, cred)
	}

	return creds, rows.Err()
}

// CountCredentialsByUser returns the number of credentials a user has registered
func (r *PasskeyRepository) CountCredentialsByUser(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM passkey_credentials WHERE user_id = $1`

	var count int
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&count)
	return count, err
}

// UpdateSignCount records the post-authentication signature counter and
// last-used timestamp for a credential
func (r *PasskeyRepository) UpdateSignCount(ctx context.Context, credentialID string, signCount uint32) error {
	query := `UPDATE passkey_credentials SET sign_count = $2, last_used_at = $3 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, credentialID, signCount, time.Now())
	return err
}

// DeleteCredential deletes a credential by ID
func (r *PasskeyRepository) DeleteCredential(ctx context.Context, credentialID string) error {
	query := `DELETE FROM passkey_credentials WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, credentialID)
	return err
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan logic
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *PasskeyRepository) scanCredential(row *sql.Row) (*models.PasskeyCredential, error) {
	cred, err := scanCredentialRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cred, nil
}

func scanCredentialRow(row rowScanner) (*models.PasskeyCredential, error) {
	cred := &models.PasskeyCredential{}
	var transportsJSON []byte

	err := row.Scan(
		&cred.ID,
		&cred.UserID,
		&cred.PublicKey,
		&cred.SignCount,
		&transportsJSON,
		&cred.DeviceType,
		&cred.BackedUp,
		&cred.Name,
		&cred.CreatedAt,
		&cred.LastUsedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(transportsJSON) > 0 {
		if err := json.Unmarshal(transportsJSON, &cred.Transports); err != nil {
			return nil, err
		}
	}

	return cred, nil
}
