// Package invitations implements the invitation endpoints. Creating, listing,
// and revoking invitations are organization-scoped admin operations; code
// validation is public so a join page can describe an invitation before the
// visitor has an account.
package invitations

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/capturelog/capturelog/internal/api/respond"
	"github.com/capturelog/capturelog/internal/db/models"
	"github.com/capturelog/capturelog/internal/middleware"
	"github.com/capturelog/capturelog/internal/services"
)

// Handlers holds the invitation endpoints
type Handlers struct {
	invitations       *services.InvitationService
	defaultExpiryDays int
}

// NewHandlers creates a new invitation Handlers instance. defaultExpiryDays
// applies when a create request leaves the lifetime unset.
func NewHandlers(invitations *services.InvitationService, defaultExpiryDays int) *Handlers {
	return &Handlers{invitations: invitations, defaultExpiryDays: defaultExpiryDays}
}

// CreateInvitationRequest represents the request to issue an invitation
type CreateInvitationRequest struct {
	Role          models.Role `json:"role" binding:"required"`
	Email         *string     `json:"email"`
	ExpiresInDays int         `json:"expires_in_days"`
}

// @Summary      Create invitation
// @Description  Issue a join code for the organization. Invitations grant admin or member, never owner. An email constraint locks redemption to one account.
// @Tags         Invitations
// @Security     SessionCookie
// @Accept       json
// @Produce      json
// @Param        org_id  path  string                   true  "Organization ID"
// @Param        body    body  CreateInvitationRequest  true  "Invitation request"
// @Success      201  {object}  map[string]interface{}  "Created invitation with its code"
// @Failure      400  {object}  map[string]interface{}  "Invalid role"
// @Failure      403  {object}  map[string]interface{}  "Caller lacks the admin role"
// @Router       /v1/orgs/{org_id}/invitations [post]
// CreateInvitationHandler issues an invitation code
// POST /v1/orgs/:org_id/invitations
func (h *Handlers) CreateInvitationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(middleware.UserIDKey)
		orgID := c.Param("org_id")

		var req CreateInvitationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, "Invalid request")
			return
		}

		days := req.ExpiresInDays
		if days <= 0 {
			days = h.defaultExpiryDays
		}

		inv, err := h.invitations.CreateInvitation(c.Request.Context(), services.CreateInvitationParams{
			OrganizationID:  orgID,
			InvitedByUserID: userID,
			Role:            req.Role,
			Email:           req.Email,
			ExpiresInDays:   days,
		})
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"invitation": inv})
	}
}

// ValidateInvitationHandler checks an invitation code without consuming it.
// Public: a join page calls this before the visitor signs up. The response
// reveals only the organization and role being offered, never the inviter or
// the email constraint.
// GET /v1/invitations/:code
func (h *Handlers) ValidateInvitationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Param("code")

		inv, err := h.invitations.ValidateInvitation(c.Request.Context(), code, nil)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"organization_id": inv.OrganizationID,
			"role":            inv.Role,
			"expires_at":      inv.ExpiresAt,
		})
	}
}

// ListPendingInvitationsHandler lists an organization's unconsumed invitations
// GET /v1/orgs/:org_id/invitations
func (h *Handlers) ListPendingInvitationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(middleware.UserIDKey)
		orgID := c.Param("org_id")

		invs, err := h.invitations.ListPendingInvitations(c.Request.Context(), orgID, userID)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"invitations": invs})
	}
}

// RevokeInvitationHandler deletes a pending invitation
// DELETE /v1/orgs/:org_id/invitations/:id
func (h *Handlers) RevokeInvitationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(middleware.UserIDKey)
		invitationID := c.Param("id")

		if err := h.invitations.RevokeInvitation(c.Request.Context(), invitationID, userID); err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Invitation revoked"})
	}
}
