// token_repository.go implements TokenRepository, providing database queries for API
// token lookup by ID, creation, revocation, and last-used timestamp updates.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/capturelog/capturelog/internal/db/models"
)

// TokenRepository handles API token database operations
type TokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new TokenRepository
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// CreateToken creates a new API token. The caller assigns ID and TokenHash;
// the raw secret is never persisted.
func (r *TokenRepository) CreateToken(ctx context.Context, token *models.APIToken) error {
	token.CreatedAt = time.Now()

	query := `
		INSERT INTO api_tokens (id, user_id, token_hash, name, created_at, last_used_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.Name,
		token.CreatedAt,
		token.LastUsedAt,
	)

	return err
}

// GetTokenByID retrieves an API token by ID (for authentication)
func (r *TokenRepository) GetTokenByID(ctx context.Context, tokenID string) (*models.APIToken, error) {
	query := `
		SELECT id, user_id, token_hash, name, created_at, last_used_at
		FROM api_tokens
		WHERE id = $1
	`

	token := &models.APIToken{}
	err := r.db.QueryRowContext(ctx, query, tokenID).Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.Name,
		&token.CreatedAt,
		&token.LastUsedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return token, nil
}

// ListTokensByUser retrieves all API tokens for a user
func (r *TokenRepository) ListTokensByUser(ctx context.Context, userID string) ([]*models.APIToken, error) {
	query := `
		SELECT id, user_id, token_hash, name, created_at, last_used_at
		FROM api_tokens
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := make([]*models.APIToken, 0)
	for rows.Next() {
		token := &models.APIToken{}
		err := rows.Scan(
			&token.ID,
			&token.UserID,
			&token.TokenHash,
			&token.Name,
			&token.CreatedAt,
			&token.LastUsedAt,
		)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}

	return tokens, rows.Err()
}

// CountTokensByUser returns the number of API tokens a user currently holds
func (r *TokenRepository) CountTokensByUser(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM api_tokens WHERE user_id = $1`

	var count int
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&count)
	return count, err
}

// UpdateLastUsed updates the last_used_at timestamp for a token
func (r *TokenRepository) UpdateLastUsed(ctx context.Context, tokenID string) error {
	query := `UPDATE api_tokens SET last_used_at = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, tokenID, time.Now())
	return err
}

// DeleteToken deletes an API token by ID
func (r *TokenRepository) DeleteToken(ctx context.Context, tokenID string) error {
	query := `DELETE FROM api_tokens WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, tokenID)
	return err
}
