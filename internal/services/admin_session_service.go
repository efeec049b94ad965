// admin_session_service.go implements the operator login surface. Admin
// sessions are stateless signed tokens, not database rows — see
// internal/auth/adminsession.go for the token format.
package services

import (
	"errors"
	"time"

	"github.com/capturelog/capturelog/internal/auth"
)

// DefaultAdminSessionTTL bounds how long an admin token stays valid
const DefaultAdminSessionTTL = 24 * time.Hour

// AdminSessionService issues and verifies stateless admin session tokens
type AdminSessionService struct {
	password string
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

// NewAdminSessionService creates a new AdminSessionService. The signing secret
// must be independent of the tenant session store; the password is the single
// shared operator credential from configuration.
func NewAdminSessionService(password string, secret []byte, ttl time.Duration) *AdminSessionService {
	if ttl <= 0 {
		ttl = DefaultAdminSessionTTL
	}
	return &AdminSessionService{
		password: password,
		secret:   secret,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Login exchanges the operator password for a signed admin session token.
// When no password is configured the admin surface is disabled entirely.
func (s *AdminSessionService) Login(password string) (string, error) {
	if s.password == "" {
		return "", E(KindUnauthenticated, "admin access is not configured")
	}
	if !auth.ComparePassword(s.password, password) {
		return "", E(KindInvalidSecret, "invalid admin password")
	}

	token, err := auth.SignAdminSession(s.secret, s.now())
	if err != nil {
		return "", storageErr("sign admin session", err)
	}
	return token, nil
}

// Verify checks an admin session token's signature and TTL
func (s *AdminSessionService) Verify(token string) error {
	if s.password == "" {
		return E(KindUnauthenticated, "admin access is not configured")
	}

	err := auth.VerifyAdminSession(s.secret, token, s.ttl, s.now())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, auth.ErrAdminTokenExpired):
		return E(KindSessionExpired, "admin session expired")
	case errors.Is(err, auth.ErrAdminTokenSignature):
		return E(KindInvalidSignature, "admin session signature mismatch")
	default:
		return E(KindInvalidSignature, "admin session token malformed")
	}
}

// TTL returns the configured admin session lifetime
func (s *AdminSessionService) TTL() time.Duration {
	return s.ttl
}
