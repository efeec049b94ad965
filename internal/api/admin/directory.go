package admin

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/capturelog/capturelog/internal/db/repositories"
)

// DirectoryHandlers serves the operator's read-only views over tenant data.
// These go straight to the repositories: the tenant services all enforce
// membership-scoped authorization, which does not apply to the operator.
type DirectoryHandlers struct {
	userRepo    *repositories.UserRepository
	orgRepo     *repositories.OrganizationRepository
	sessionRepo *repositories.SessionRepository
}

// NewDirectoryHandlers creates a new DirectoryHandlers instance
func NewDirectoryHandlers(
	userRepo *repositories.UserRepository,
	orgRepo *repositories.OrganizationRepository,
	sessionRepo *repositories.SessionRepository,
) *DirectoryHandlers {
	return &DirectoryHandlers{
		userRepo:    userRepo,
		orgRepo:     orgRepo,
		sessionRepo: sessionRepo,
	}
}

// pagination reads limit/offset query parameters with sane bounds
func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 500 {
		limit = 50
	}
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ListUsersHandler lists all accounts, paginated
// GET /v1/admin/users
func (h *DirectoryHandlers) ListUsersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := pagination(c)

		users, total, err := h.userRepo.ListUsers(c.Request.Context(), limit, offset)
		if err != nil {
			slog.Error("admin list users failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"users":  users,
			"total":  total,
			"limit":  limit,
			"offset": offset,
		})
	}
}

// ListOrganizationsHandler lists all organizations, paginated
// GET /v1/admin/orgs
func (h *DirectoryHandlers) ListOrganizationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := pagination(c)

		orgs, total, err := h.orgRepo.ListOrganizations(c.Request.Context(), limit, offset)
		if err != nil {
			slog.Error("admin list organizations failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list organizations"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"organizations": orgs,
			"total":         total,
			"limit":         limit,
			"offset":        offset,
		})
	}
}

// StatsHandler reports instance-wide counts
// GET /v1/admin/stats
func (h *DirectoryHandlers) StatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, totalUsers, err := h.userRepo.ListUsers(c.Request.Context(), 1, 0)
		if err != nil {
			slog.Error("admin stats failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
			return
		}

		_, totalOrgs, err := h.orgRepo.ListOrganizations(c.Request.Context(), 1, 0)
		if err != nil {
			slog.Error("admin stats failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
			return
		}

		activeSessions, err := h.sessionRepo.CountActiveSessions(c.Request.Context(), time.Now())
		if err != nil {
			slog.Error("admin stats failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"total_users":         totalUsers,
			"total_organizations": totalOrgs,
			"active_sessions":     activeSessions,
		})
	}
}
