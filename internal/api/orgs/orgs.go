// Package orgs implements the organization membership endpoints: listing the
// caller's organizations, listing members, changing roles, and removing
// members. Role requirements are enforced by the RequireOrgRole middleware on
// the route; the handlers add the cross-checks the middleware cannot see,
// like a membership ID that belongs to a different organization than the one
// in the path.
package orgs

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/capturelog/capturelog/internal/api/respond"
	"github.com/capturelog/capturelog/internal/db/models"
	"github.com/capturelog/capturelog/internal/middleware"
	"github.com/capturelog/capturelog/internal/services"
)

// Handlers holds the organization membership endpoints
type Handlers struct {
	memberships *services.MembershipService
}

// NewHandlers creates a new organization Handlers instance
func NewHandlers(memberships *services.MembershipService) *Handlers {
	return &Handlers{memberships: memberships}
}

// ListMyOrganizationsHandler lists the authenticated user's memberships
// GET /v1/orgs
func (h *Handlers) ListMyOrganizationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(middleware.UserIDKey)

		memberships, err := h.memberships.ListMemberships(c.Request.Context(), userID, "")
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"memberships": memberships})
	}
}

// ListMembersHandler lists an organization's members with their emails
// GET /v1/orgs/:org_id/members
func (h *Handlers) ListMembersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.Param("org_id")

		members, err := h.memberships.ListMembers(c.Request.Context(), orgID)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"members": members})
	}
}

// ChangeRoleRequest represents the request to change a member's role
type ChangeRoleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

// @Summary      Change member role
// @Description  Change a member's role within the organization. The owner role cannot be granted or revoked, and the last admin-capable member cannot be demoted.
// @Tags         Organizations
// @Security     SessionCookie
// @Accept       json
// @Produce      json
// @Param        org_id         path  string             true  "Organization ID"
// @Param        membership_id  path  string             true  "Membership ID"
// @Param        body           body  ChangeRoleRequest  true  "New role"
// @Success      200  {object}  map[string]interface{}  "Updated membership"
// @Failure      403  {object}  map[string]interface{}  "Caller lacks the admin role"
// @Failure      404  {object}  map[string]interface{}  "Membership not found in this organization"
// @Failure      409  {object}  map[string]interface{}  "Owner role change or last-admin demotion"
// @Router       /v1/orgs/{org_id}/members/{membership_id} [put]
// ChangeRoleHandler changes a member's role
// PUT /v1/orgs/:org_id/members/:membership_id
func (h *Handlers) ChangeRoleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.Param("org_id")
		membershipID := c.Param("membership_id")

		var req ChangeRoleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, "Invalid request")
			return
		}

		m, err := h.memberships.GetMembershipByID(c.Request.Context(), membershipID)
		if err != nil {
			respond.Error(c, err)
			return
		}
		if m.OrganizationID != orgID {
			respond.Error(c, services.E(services.KindMembershipNotFound, "membership not found"))
			return
		}

		if err := h.memberships.ChangeRole(c.Request.Context(), membershipID, req.Role); err != nil {
			respond.Error(c, err)
			return
		}

		m.Role = req.Role
		c.JSON(http.StatusOK, gin.H{"membership": m})
	}
}

// RemoveMemberHandler removes a member from the organization
// DELETE /v1/orgs/:org_id/members/:membership_id
func (h *Handlers) RemoveMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.Param("org_id")
		membershipID := c.Param("membership_id")

		m, err := h.memberships.GetMembershipByID(c.Request.Context(), membershipID)
		if err != nil {
			respond.Error(c, err)
			return
		}
		if m.OrganizationID != orgID {
			respond.Error(c, services.E(services.KindMembershipNotFound, "membership not found"))
			return
		}

		if err := h.memberships.RemoveMember(c.Request.Context(), membershipID); err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
	}
}

// LeaveOrganizationHandler removes the caller's own membership. Leaving a
// personal organization is rejected, as is leaving as the last admin-capable
// member.
// POST /v1/orgs/:org_id/leave
func (h *Handlers) LeaveOrganizationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(middleware.UserIDKey)
		orgID := c.Param("org_id")

		m, err := h.memberships.GetMembership(c.Request.Context(), userID, orgID)
		if err != nil {
			respond.Error(c, err)
			return
		}
		if m == nil {
			respond.Error(c, services.E(services.KindNotAMember, "not a member of this organization"))
			return
		}

		if err := h.memberships.RemoveMember(c.Request.Context(), m.ID); err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Left organization"})
	}
}
