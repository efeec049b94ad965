// invitation_repository.go implements InvitationRepository, providing database queries
// for invitation creation, code lookup, acceptance, pending listings, and revocation.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/capturelog/capturelog/internal/db/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// InvitationRepository handles invitation database operations
type InvitationRepository struct {
	db *sqlx.DB
}

// NewInvitationRepository creates a new InvitationRepository
func NewInvitationRepository(db *sqlx.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

// CreateInvitation creates a new invitation. The caller assigns Code.
func (r *InvitationRepository) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	inv.ID = uuid.New().String()
	inv.CreatedAt = time.Now()

	query := `
		INSERT INTO invitations (id, code, email, organization_id, invited_by_user_id, role, expires_at, accepted_at, accepted_by_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		inv.ID,
		inv.Code,
		inv.Email,
		inv.OrganizationID,
		inv.InvitedByUserID,
		inv.Role,
		inv.ExpiresAt,
		inv.AcceptedAt,
		inv.AcceptedByUserID,
		inv.CreatedAt,
	)

	return err
}

// GetInvitationByCode retrieves an invitation by its join code
func (r *InvitationRepository) GetInvitationByCode(ctx context.Context, code string) (*models.Invitation, error) {
	var inv models.Invitation
	query := `SELECT * FROM invitations WHERE code = $1`

	err := r.db.GetContext(ctx, &inv, query, code)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &inv, nil
}

// GetInvitationByID retrieves an invitation by ID
func (r *InvitationRepository) GetInvitationByID(ctx context.Context, invitationID string) (*models.Invitation, error) {
	var inv models.Invitation
	query := `SELECT * FROM invitations WHERE id = $1`

	err := r.db.GetContext(ctx, &inv, query, invitationID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &inv, nil
}

// MarkAccepted sets the acceptance fields, making the invitation terminal
func (r *InvitationRepository) MarkAccepted(ctx context.Context, invitationID, userID string, acceptedAt time.Time) error {
	query := `UPDATE invitations SET accepted_at = $2, accepted_by_user_id = $3 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, invitationID, acceptedAt, userID)
	return err
}

// ListPendingByOrganization retrieves unaccepted, unexpired invitations for an organization
func (r *InvitationRepository) ListPendingByOrganization(ctx context.Context, organizationID string, now time.Time) ([]*models.Invitation, error) {
	invitations := make([]*models.Invitation, 0)
	query := `
		SELECT * FROM invitations
		WHERE organization_id = $1 AND accepted_at IS NULL AND expires_at > $2
		ORDER BY created_at DESC
	`

	err := r.db.SelectContext(ctx, &invitations, query, organizationID, now)
	if err != nil {
		return nil, err
	}

	return invitations, nil
}

// DeleteInvitation hard-deletes an invitation (revocation)
func (r *InvitationRepository) DeleteInvitation(ctx context.Context, invitationID string) error {
	query := `DELETE FROM invitations WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, invitationID)
	return err
}
