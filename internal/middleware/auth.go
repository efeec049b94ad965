// Package middleware provides Gin HTTP middleware for authentication,
// authorization, rate limiting, security headers, and request telemetry.
//
// Middleware ordering matters and is enforced in router.go:
//
//	Security → RateLimit → Auth → RequireOrgRole → Handler
//
// Security headers run first so they appear on all responses including errors.
// Rate limiting runs before auth to block brute-force attacks before any DB
// work. Auth resolves the caller's identity and organization scope;
// RequireOrgRole reads from that context.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/capturelog/capturelog/internal/auth"
	"github.com/capturelog/capturelog/internal/safego"
	"github.com/capturelog/capturelog/internal/services"
	"github.com/capturelog/capturelog/internal/telemetry"
)

// Context keys populated by the auth middleware
const (
	UserIDKey         = "user_id"
	OrganizationIDKey = "organization_id"
	SessionIDKey      = "session_id"
	AuthMethodKey     = "auth_method"
)

// Auth method values stored under AuthMethodKey
const (
	AuthMethodSession = "session"
	AuthMethodToken   = "token"
)

// CombinedAuth authenticates a request via session cookie or bearer token.
//
// Precedence is strict: when a session cookie is present it decides the
// request alone. A present-but-invalid cookie fails with 401 even if a valid
// bearer token accompanies it; there is no fallthrough between methods.
func CombinedAuth(sessions *services.SessionService, tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cookie, err := c.Cookie(auth.SessionCookieName); err == nil && cookie != "" {
			authenticateSession(c, sessions, cookie)
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			telemetry.AuthAttemptsTotal.WithLabelValues("none", "failure").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		authenticateToken(c, tokens, header)
	}
}

func authenticateSession(c *gin.Context, sessions *services.SessionService, sessionID string) {
	session, err := sessions.ValidateSession(c.Request.Context(), sessionID)
	if err != nil {
		telemetry.AuthAttemptsTotal.WithLabelValues(AuthMethodSession, "error").Inc()
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "authentication failed",
		})
		return
	}
	if session == nil {
		telemetry.AuthAttemptsTotal.WithLabelValues(AuthMethodSession, "failure").Inc()
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "session invalid or expired",
		})
		return
	}

	// Slide the session's activity window asynchronously. The refresh is
	// throttled inside the service; a failed write never fails the request.
	safego.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := sessions.RefreshSession(ctx, session.ID); err != nil {
			slog.Warn("failed to refresh session activity", "session_id", session.ID, "error", err)
		}
	})

	telemetry.AuthAttemptsTotal.WithLabelValues(AuthMethodSession, "success").Inc()
	c.Set(UserIDKey, session.UserID)
	c.Set(OrganizationIDKey, session.CurrentOrganizationID)
	c.Set(SessionIDKey, session.ID)
	c.Set(AuthMethodKey, AuthMethodSession)
	c.Next()
}

func authenticateToken(c *gin.Context, tokens *services.TokenService, header string) {
	raw, err := auth.ExtractBearerToken(header)
	if err != nil {
		telemetry.AuthAttemptsTotal.WithLabelValues(AuthMethodToken, "failure").Inc()
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": err.Error(),
		})
		return
	}

	authCtx, err := tokens.ValidateToken(c.Request.Context(), raw)
	if err != nil {
		if services.IsKind(err, services.KindStorage) {
			telemetry.AuthAttemptsTotal.WithLabelValues(AuthMethodToken, "error").Inc()
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "authentication failed",
			})
			return
		}
		telemetry.AuthAttemptsTotal.WithLabelValues(AuthMethodToken, "failure").Inc()
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid token",
		})
		return
	}

	telemetry.AuthAttemptsTotal.WithLabelValues(AuthMethodToken, "success").Inc()
	c.Set(UserIDKey, authCtx.UserID)
	c.Set(OrganizationIDKey, authCtx.OrganizationID)
	c.Set(AuthMethodKey, AuthMethodToken)
	c.Next()
}
