// Package api wires the HTTP surface: router construction, middleware
// ordering, and the background services whose lifecycle is tied to the
// server's. Handlers live in the subpackages (authapi, tokens, orgs,
// invitations, admin); this file owns dependency construction and route
// registration.
package api

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/capturelog/capturelog/internal/api/admin"
	"github.com/capturelog/capturelog/internal/api/authapi"
	"github.com/capturelog/capturelog/internal/api/invitations"
	"github.com/capturelog/capturelog/internal/api/orgs"
	"github.com/capturelog/capturelog/internal/api/tokens"
	"github.com/capturelog/capturelog/internal/audit"
	"github.com/capturelog/capturelog/internal/config"
	"github.com/capturelog/capturelog/internal/db/models"
	"github.com/capturelog/capturelog/internal/db/repositories"
	"github.com/capturelog/capturelog/internal/jobs"
	"github.com/capturelog/capturelog/internal/middleware"
	"github.com/capturelog/capturelog/internal/safego"
	"github.com/capturelog/capturelog/internal/services"
)

// BackgroundServices holds the goroutines and connections whose lifetime
// matches the server's.
type BackgroundServices struct {
	sessionSweeper *jobs.SessionSweeper
	rateLimiters   []*middleware.RateLimiter
	redisClient    *redis.Client
	auditRecorder  *audit.Recorder
}

// Shutdown stops all background goroutines. It should be called after the HTTP
// server has been shut down so that in-flight requests are drained first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	if bg.sessionSweeper != nil {
		bg.sessionSweeper.Stop()
	}
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	if bg.redisClient != nil {
		if err := bg.redisClient.Close(); err != nil {
			slog.Warn("redis close failed", "error", err)
		}
	}
	if bg.auditRecorder != nil {
		if err := bg.auditRecorder.Close(); err != nil {
			slog.Warn("audit recorder close failed", "error", err)
		}
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sql.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()
	bg := &BackgroundServices{}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	orgRepo := repositories.NewOrganizationRepository(db)
	membershipRepo := repositories.NewMembershipRepository(db)
	tokenRepo := repositories.NewTokenRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	passkeyRepo := repositories.NewPasskeyRepository(db)

	// Wrap *sql.DB with sqlx for the invitation repository
	sqlxDB := sqlx.NewDb(db, "postgres")
	invitationRepo := repositories.NewInvitationRepository(sqlxDB)

	// Initialize the WebAuthn relying party
	webAuthn, err := webauthn.New(&webauthn.Config{
		RPDisplayName: cfg.Auth.WebAuthn.RPDisplayName,
		RPID:          cfg.Auth.WebAuthn.RPID,
		RPOrigins:     cfg.Auth.WebAuthn.RPOrigins,
	})
	if err != nil {
		log.Fatalf("Failed to initialize WebAuthn relying party: %v", err)
	}

	// Initialize services
	signingSecret := []byte(cfg.Auth.SessionSigningSecret)
	membershipSvc := services.NewMembershipService(membershipRepo, userRepo, orgRepo)
	userSvc := services.NewUserService(userRepo, orgRepo, membershipSvc)
	tokenSvc := services.NewTokenService(tokenRepo, userRepo, membershipRepo, cfg.Auth.MaxTokensPerUser)
	sessionSvc := services.NewSessionService(sessionRepo, userRepo, membershipSvc, cfg.Auth.SessionTTL, cfg.Auth.RefreshThreshold)
	invitationSvc := services.NewInvitationService(invitationRepo, membershipSvc, userRepo)
	passkeySvc := services.NewPasskeyService(webAuthn, passkeyRepo, userRepo, sessionSvc, signingSecret, cfg.Auth.WebAuthn.ChallengeTTL)
	adminSvc := services.NewAdminSessionService(cfg.Auth.AdminPassword, []byte(cfg.Auth.AdminSessionSecret), cfg.Auth.AdminSessionTTL)

	if cfg.Auth.AdminPassword == "" {
		slog.Warn("admin password not configured; operator endpoints are disabled")
	}

	// Start the session sweeper
	bg.sessionSweeper = jobs.NewSessionSweeper(sessionSvc, cfg.Jobs.SessionSweepInterval)
	safego.Go(func() { bg.sessionSweeper.Start(context.Background()) })

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	// Audit trail: records mutating requests when destinations are configured.
	// Attached engine-wide so public sign-in and signup routes are captured
	// alongside the authenticated ones.
	if cfg.Audit.Enabled {
		recorder, err := audit.NewRecorder(auditRecorderConfig(cfg))
		if err != nil {
			log.Fatalf("Failed to initialize audit recorder: %v", err)
		}
		bg.auditRecorder = recorder
		router.Use(middleware.AuditTrail(recorder))
		slog.Info("audit trail enabled",
			"file", cfg.Audit.File.Path != "",
			"webhook", cfg.Audit.Webhook.URL != "")
	}

	// Rate limiting: distributed via Redis when an address is configured,
	// otherwise per-instance token buckets
	var authRateLimit gin.HandlerFunc
	if cfg.Security.RateLimiting.Enabled {
		if cfg.Redis.Addr != "" {
			bg.redisClient = redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			limiter := middleware.NewRedisRateLimiter(
				bg.redisClient,
				cfg.Security.RateLimiting.RequestsPerMinute,
				cfg.Security.RateLimiting.Burst,
			)
			router.Use(limiter.Middleware())
			slog.Info("rate limiting via redis", "addr", cfg.Redis.Addr)
		} else {
			general := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())
			bg.rateLimiters = append(bg.rateLimiters, general)
			router.Use(middleware.RateLimitMiddleware(general))
		}

		// Login and ceremony endpoints get a tighter in-process budget on
		// top of the general limit
		authLimiter := middleware.NewRateLimiter(middleware.AuthRateLimitConfig())
		bg.rateLimiters = append(bg.rateLimiters, authLimiter)
		authRateLimit = middleware.RateLimitMiddleware(authLimiter)
	} else {
		authRateLimit = func(c *gin.Context) { c.Next() }
	}

	// Handlers
	authHandlers := authapi.NewHandlers(userSvc, sessionSvc, passkeySvc, membershipSvc, invitationSvc, cfg.Server.CookieSecure)
	tokenHandlers := tokens.NewHandlers(tokenSvc)
	orgHandlers := orgs.NewHandlers(membershipSvc)
	invitationHandlers := invitations.NewHandlers(invitationSvc, cfg.Auth.InvitationExpiryDays)
	adminHandlers := admin.NewHandlers(adminSvc, cfg.Server.CookieSecure)
	directoryHandlers := admin.NewDirectoryHandlers(userRepo, orgRepo, sessionRepo)

	// Health check endpoints
	router.GET("/health", healthCheckHandler(db))
	router.GET("/ready", readinessHandler(db))
	router.GET("/version", versionHandler())

	v1 := router.Group("/v1")

	// Public authentication endpoints
	authPublic := v1.Group("/auth")
	authPublic.Use(authRateLimit)
	{
		authPublic.POST("/signup", authHandlers.SignupHandler())
		authPublic.POST("/register/begin", authHandlers.BeginRegistrationHandler())
		authPublic.POST("/register/finish", authHandlers.FinishRegistrationHandler())
		authPublic.POST("/login/begin", authHandlers.BeginLoginHandler())
		authPublic.POST("/login/finish", authHandlers.FinishLoginHandler())
	}

	// Public invitation preview
	v1.GET("/invitations/:code", invitationHandlers.ValidateInvitationHandler())

	// Authenticated tenant endpoints: a session cookie or a bearer token
	authed := v1.Group("")
	authed.Use(middleware.CombinedAuth(sessionSvc, tokenSvc))
	{
		authed.GET("/auth/session", authHandlers.SessionHandler())
		authed.POST("/auth/session/organization", authHandlers.SwitchOrganizationHandler())
		authed.POST("/auth/invitations/accept", authHandlers.AcceptInvitationHandler())
		authed.POST("/auth/logout", authHandlers.LogoutHandler())
		authed.POST("/auth/logout/all", authHandlers.LogoutAllHandler())

		authed.GET("/auth/passkeys", authHandlers.ListCredentialsHandler())
		authed.DELETE("/auth/passkeys/:id", authHandlers.DeleteCredentialHandler())

		authed.POST("/tokens", tokenHandlers.CreateTokenHandler())
		authed.GET("/tokens", tokenHandlers.ListTokensHandler())
		authed.DELETE("/tokens/:id", tokenHandlers.RevokeTokenHandler())

		authed.GET("/orgs", orgHandlers.ListMyOrganizationsHandler())
		authed.POST("/orgs/:org_id/leave", orgHandlers.LeaveOrganizationHandler())

		// Member-visible org views
		members := authed.Group("/orgs/:org_id", middleware.RequireOrgRole(membershipSvc, models.RoleMember))
		{
			members.GET("/members", orgHandlers.ListMembersHandler())
		}

		// Admin-gated membership management
		orgAdmin := authed.Group("/orgs/:org_id", middleware.RequireOrgRole(membershipSvc, models.RoleAdmin))
		{
			orgAdmin.PUT("/members/:membership_id", orgHandlers.ChangeRoleHandler())
			orgAdmin.DELETE("/members/:membership_id", orgHandlers.RemoveMemberHandler())
		}

		// Invitation management; the service enforces the admin requirement
		// so it holds for any future caller, not just this route
		authed.POST("/orgs/:org_id/invitations", invitationHandlers.CreateInvitationHandler())
		authed.GET("/orgs/:org_id/invitations", invitationHandlers.ListPendingInvitationsHandler())
		authed.DELETE("/orgs/:org_id/invitations/:id", invitationHandlers.RevokeInvitationHandler())
	}

	// Operator endpoints, in their own trust domain
	v1.POST("/admin/login", authRateLimit, adminHandlers.LoginHandler())
	v1.POST("/admin/logout", adminHandlers.LogoutHandler())

	adminAuthed := v1.Group("/admin")
	adminAuthed.Use(middleware.AdminAuth(adminSvc))
	{
		adminAuthed.GET("/users", directoryHandlers.ListUsersHandler())
		adminAuthed.GET("/orgs", directoryHandlers.ListOrganizationsHandler())
		adminAuthed.GET("/stats", directoryHandlers.StatsHandler())
	}

	return router, bg
}

// auditRecorderConfig maps the loaded configuration onto the audit package's
// sink config, leaving unconfigured destinations nil.
func auditRecorderConfig(cfg *config.Config) audit.Config {
	var ac audit.Config
	if cfg.Audit.File.Path != "" {
		ac.File = &audit.FileConfig{
			Path:       cfg.Audit.File.Path,
			MaxSizeMB:  cfg.Audit.File.MaxSizeMB,
			MaxBackups: cfg.Audit.File.MaxBackups,
		}
	}
	if cfg.Audit.Webhook.URL != "" {
		ac.Webhook = &audit.WebhookConfig{
			URL:     cfg.Audit.Webhook.URL,
			Timeout: cfg.Audit.Webhook.Timeout,
		}
	}
	return ac
}

// @Summary      Health check
// @Description  Returns whether the service and its database are reachable.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status: healthy"
// @Failure      503  {object}  map[string]interface{}  "status: unhealthy"
// @Router       /health [get]
func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check database connection
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// readinessHandler returns the readiness status of the service. The auth core
// has a single hard dependency, so readiness and liveness both reduce to the
// database check; the separate endpoint keeps the Kubernetes probe contract.
func readinessHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{}

		if err := db.Ping(); err != nil {
			checks["database"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "database not ready",
			})
			return
		}
		checks["database"] = "healthy"

		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"checks": checks,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     "0.1.0",
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware logs each request through slog. Output format (JSON or
// text) follows the global handler configured in telemetry.SetupLogger, so
// there is nothing format-specific here.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logRequest(c, time.Since(start), path, query)
	}
}

func logRequest(c *gin.Context, latency time.Duration, path, query string) {
	requestID, _ := c.Get(middleware.RequestIDKey)
	slog.LogAttrs(
		c.Request.Context(),
		slog.LevelInfo,
		"http request",
		slog.String("method", c.Request.Method),
		slog.String("path", path),
		slog.String("query", query),
		slog.Int("status", c.Writer.Status()),
		slog.Int("size", c.Writer.Size()),
		slog.Duration("latency", latency),
		slog.String("ip", c.ClientIP()),
		slog.String("request_id", fmt.Sprintf("%v", requestID)),
		slog.String("user_agent", c.Request.UserAgent()),
	)
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Check if origin is allowed
		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Challenge-Token")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
