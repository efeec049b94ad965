// token_service.go implements API token issuance and bearer validation.
// The raw token "<id>:<secret>" is shown exactly once at creation; only the
// bcrypt hash of the secret is stored, and validation looks the token up by ID
// so the secret is never searchable.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/capturelog/capturelog/internal/auth"
	"github.com/capturelog/capturelog/internal/db/models"
	"github.com/capturelog/capturelog/internal/safego"
	"github.com/google/uuid"
)

// TokenService validates and manages API tokens
type TokenService struct {
	tokens      TokenStore
	users       UserStore
	memberships MembershipStore
	maxPerUser  int
}

// NewTokenService creates a new TokenService. maxPerUser bounds the number of
// tokens a single user may hold; zero or negative disables the limit.
func NewTokenService(tokens TokenStore, users UserStore, memberships MembershipStore, maxPerUser int) *TokenService {
	return &TokenService{
		tokens:      tokens,
		users:       users,
		memberships: memberships,
		maxPerUser:  maxPerUser,
	}
}

// ValidateToken resolves a raw bearer credential into an authorization
// context. On success it records last-used asynchronously; a failed recording
// never fails the request.
func (s *TokenService) ValidateToken(ctx context.Context, raw string) (*AuthorizationContext, error) {
	id, secret, err := auth.ParseToken(raw)
	if err != nil {
		return nil, E(KindInvalidTokenFormat, "token must have the form <id>:<secret>")
	}

	token, err := s.tokens.GetTokenByID(ctx, id)
	if err != nil {
		return nil, storageErr("get token", err)
	}
	if token == nil {
		// Burn a comparison so a lookup miss costs the same as a mismatch.
		auth.BurnComparison(secret)
		return nil, E(KindTokenNotFound, "token not found")
	}

	if !auth.ValidateTokenSecret(secret, token.TokenHash) {
		return nil, E(KindInvalidSecret, "invalid token secret")
	}

	// Update last-used asynchronously. Last-used tracking is best-effort;
	// a synchronous write here would add DB latency to every token-
	// authenticated request.
	tokenID := token.ID
	safego.Go(func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.tokens.UpdateLastUsed(bgCtx, tokenID); err != nil {
			slog.Warn("failed to record token last-used", "token_id", tokenID, "error", err)
		}
	})

	orgID, err := s.defaultOrganization(ctx, token.UserID)
	if err != nil {
		return nil, err
	}

	return &AuthorizationContext{UserID: token.UserID, OrganizationID: orgID}, nil
}

// CreateToken issues a new API token for a user. Returns the raw token, which
// is never recoverable afterwards.
func (s *TokenService) CreateToken(ctx context.Context, userID, name string) (string, *models.APIToken, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return "", nil, storageErr("get user", err)
	}
	if user == nil {
		return "", nil, E(KindUserNotFound, "user not found")
	}

	if s.maxPerUser > 0 {
		count, err := s.tokens.CountTokensByUser(ctx, userID)
		if err != nil {
			return "", nil, storageErr("count tokens", err)
		}
		if count >= s.maxPerUser {
			return "", nil, Ef(KindTokenLimitReached, "a user may hold at most %d tokens", s.maxPerUser)
		}
	}

	secret, hash, err := auth.GenerateTokenSecret()
	if err != nil {
		return "", nil, storageErr("generate token secret", err)
	}

	token := &models.APIToken{
		ID:        uuid.New().String(),
		UserID:    userID,
		TokenHash: hash,
		Name:      name,
	}
	if err := s.tokens.CreateToken(ctx, token); err != nil {
		return "", nil, storageErr("create token", err)
	}

	return auth.FormatToken(token.ID, secret), token, nil
}

// ListTokens returns a user's tokens (metadata only; hashes stay server-side)
func (s *TokenService) ListTokens(ctx context.Context, userID string) ([]*models.APIToken, error) {
	tokens, err := s.tokens.ListTokensByUser(ctx, userID)
	if err != nil {
		return nil, storageErr("list tokens", err)
	}
	return tokens, nil
}

// RevokeToken deletes a token owned by the given user. A revoked token can
// never authenticate again.
func (s *TokenService) RevokeToken(ctx context.Context, tokenID, userID string) error {
	token, err := s.tokens.GetTokenByID(ctx, tokenID)
	if err != nil {
		return storageErr("get token", err)
	}
	if token == nil {
		return E(KindTokenNotFound, "token not found")
	}
	if token.UserID != userID {
		return E(KindTokenNotFound, "token not found")
	}

	if err := s.tokens.DeleteToken(ctx, tokenID); err != nil {
		return storageErr("delete token", err)
	}

	return nil
}

// defaultOrganization resolves the organization scope for token auth: the
// personal org when present, else the first membership.
func (s *TokenService) defaultOrganization(ctx context.Context, userID string) (string, error) {
	memberships, err := s.memberships.ListMembershipsByUser(ctx, userID)
	if err != nil {
		return "", storageErr("list memberships", err)
	}
	if len(memberships) == 0 {
		return "", E(KindNoMemberships, "user has no organization memberships")
	}

	for _, m := range memberships {
		if m.IsPersonalOrg {
			return m.OrganizationID, nil
		}
	}
	return memberships[0].OrganizationID, nil
}
