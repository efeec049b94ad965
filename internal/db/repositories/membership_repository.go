// membership_repository.go implements MembershipRepository, providing database queries
// for the user-to-organization join table: creation, role updates, removal, and the
// admin-capable count used by the last-admin invariant.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/capturelog/capturelog/internal/db/models"
	"github.com/google/uuid"
)

// MembershipRepository handles organization membership database operations
type MembershipRepository struct {
	db *sql.DB
}

// NewMembershipRepository creates a new MembershipRepository
func NewMembershipRepository(db *sql.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// CreateMembership inserts a new membership row. The (user_id, organization_id)
// unique constraint rejects duplicates at the storage level.
func (r *MembershipRepository) CreateMembership(ctx context.Context, m *models.OrganizationMembership) error {
	m.ID = uuid.New().String()
	m.JoinedAt = time.Now()

	query := `
		INSERT INTO organization_memberships (id, user_id, organization_id, role, is_personal_org, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.UserID,
		m.OrganizationID,
		m.Role,
		m.IsPersonalOrg,
		m.JoinedAt,
	)

	return err
}

// GetMembership retrieves the membership for a (user, organization) pair
func (r *MembershipRepository) GetMembership(ctx context.Context, userID, organizationID string) (*models.OrganizationMembership, error) {
	query := `
		SELECT id, user_id, organization_id, role, is_personal_org, joined_at
		FROM organization_memberships
		WHERE user_id = $1 AND organization_id = $2
	`

	m := &models.OrganizationMembership{}
	err := r.db.QueryRowContext(ctx, query, userID, organizationID).Scan(
		&m.ID,
		&m.UserID,
		&m.OrganizationID,
		&m.Role,
		&m.IsPersonalOrg,
		&m.JoinedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return m, nil
}

// GetMembershipByID retrieves a membership by its primary key
func (r *MembershipRepository) GetMembershipByID(ctx context.Context, membershipID string) (*models.OrganizationMembership, error) {
	query := `
		SELECT id, user_id, organization_id, role, is_personal_org, joined_at
		FROM organization_memberships
		WHERE id = $1
	`

	m := &models.OrganizationMembership{}
	err := r.db.QueryRowContext(ctx, query, membershipID).Scan(
		&m.ID,
		&m.UserID,
		&m.OrganizationID,
		&m.Role,
		&m.IsPersonalOrg,
		&m.JoinedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return m, nil
}

// ListMembershipsByUser retrieves all memberships for a user, personal org first
func (r *MembershipRepository) ListMembershipsByUser(ctx context.Context, userID string) ([]*models.OrganizationMembership, error) {
	query := `
		SELECT id, user_id, organization_id, role, is_personal_org, joined_at
		FROM organization_memberships
		WHERE user_id = $1
		ORDER BY is_personal_org DESC, joined_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMemberships(rows)
}

// ListMembershipsByOrganization retrieves all memberships in an organization
func (r *MembershipRepository) ListMembershipsByOrganization(ctx context.Context, organizationID string) ([]*models.OrganizationMembership, error) {
	query := `
		SELECT id, user_id, organization_id, role, is_personal_org, joined_at
		FROM organization_memberships
		WHERE organization_id = $1
		ORDER BY joined_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMemberships(rows)
}

// ListMembersWithUsers retrieves memberships in an organization joined with user emails
func (r *MembershipRepository) ListMembersWithUsers(ctx context.Context, organizationID string) ([]*models.MembershipWithUser, error) {
	query := `
		SELECT om.id, om.user_id, om.organization_id, om.role, om.is_personal_org, om.joined_at, u.email
		FROM organization_memberships om
		JOIN users u ON u.id = om.user_id
		WHERE om.organization_id = $1
		ORDER BY om.joined_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]*models.MembershipWithUser, 0)
	for rows.Next() {
		m := &models.MembershipWithUser{}
		err := rows.Scan(
			&m.ID,
			&m.UserID,
			&m.OrganizationID,
			&m.Role,
			&m.IsPersonalOrg,
			&m.JoinedAt,
			&m.UserEmail,
		)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

// CountAdminCapable returns the number of memberships in an organization whose
// role is owner or admin
func (r *MembershipRepository) CountAdminCapable(ctx context.Context, organizationID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM organization_memberships
		WHERE organization_id = $1 AND role IN ('owner', 'admin')
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, organizationID).Scan(&count)
	return count, err
}

// UpdateRole updates a membership's role in place
func (r *MembershipRepository) UpdateRole(ctx context.Context, membershipID string, role models.Role) error {
	query := `UPDATE organization_memberships SET role = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, membershipID, role)
	return err
}

// DeleteMembership deletes a membership by ID
func (r *MembershipRepository) DeleteMembership(ctx context.Context, membershipID string) error {
	query := `DELETE FROM organization_memberships WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, membershipID)
	return err
}

func scanMemberships(rows *sql.Rows) ([]*models.OrganizationMembership, error) {
	memberships := make([]*models.OrganizationMembership, 0)
	for rows.Next() {
		m := &models.OrganizationMembership{}
		err := rows.Scan(
			&m.ID,
			&m.UserID,
			&m.OrganizationID,
			&m.Role,
			&m.IsPersonalOrg,
			&m.JoinedAt,
		)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}
