// organization_repository.go implements OrganizationRepository, providing database
// queries for organization creation, lookup, and listing.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/capturelog/capturelog/internal/db/models"
	"github.com/google/uuid"
)

// OrganizationRepository handles organization database operations
type OrganizationRepository struct {
	db *sql.DB
}

// NewOrganizationRepository creates a new OrganizationRepository
func NewOrganizationRepository(db *sql.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// CreateOrganization creates a new organization
func (r *OrganizationRepository) CreateOrganization(ctx context.Context, org *models.Organization) error {
	org.ID = uuid.New().String()
	org.CreatedAt = time.Now()

	query := `
		INSERT INTO organizations (id, name, created_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.ExecContext(ctx, query,
		org.ID,
		org.Name,
		org.CreatedAt,
	)

	return err
}

// GetOrganizationByID retrieves an organization by ID
func (r *OrganizationRepository) GetOrganizationByID(ctx context.Context, orgID string) (*models.Organization, error) {
	query := `
		SELECT id, name, created_at
		FROM organizations
		WHERE id = $1
	`

	org := &models.Organization{}
	err := r.db.QueryRowContext(ctx, query, orgID).Scan(
		&org.ID,
		&org.Name,
		&org.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return org, nil
}

// ListOrganizations retrieves a paginated list of organizations
func (r *OrganizationRepository) ListOrganizations(ctx context.Context, limit, offset int) ([]*models.Organization, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM organizations`
	err := r.db.QueryRowContext(ctx, countQuery).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, name, created_at
		FROM organizations
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orgs := make([]*models.Organization, 0)
	for rows.Next() {
		org := &models.Organization{}
		err := rows.Scan(
			&org.ID,
			&org.Name,
			&org.CreatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		orgs = append(orgs, org)
	}

	return orgs, total, rows.Err()
}

// UpdateOrganizationName renames an organization
func (r *OrganizationRepository) UpdateOrganizationName(ctx context.Context, orgID, name string) error {
	query := `UPDATE organizations SET name = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, orgID, name)
	return err
}
