package authapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/capturelog/capturelog/internal/api/respond"
	"github.com/capturelog/capturelog/internal/middleware"
	"github.com/capturelog/capturelog/internal/services"
)

// SessionHandler returns the authenticated caller's identity and memberships
// GET /v1/auth/session
func (h *Handlers) SessionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(middleware.UserIDKey)

		user, err := h.users.GetUser(c.Request.Context(), userID)
		if err != nil {
			respond.Error(c, err)
			return
		}

		memberships, err := h.memberships.ListMemberships(c.Request.Context(), userID, "")
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"user":                    user,
			"memberships":             memberships,
			"current_organization_id": c.GetString(middleware.OrganizationIDKey),
			"auth_method":             c.GetString(middleware.AuthMethodKey),
		})
	}
}

// SwitchOrganizationRequest represents the request to change the session's
// current organization
type SwitchOrganizationRequest struct {
	OrganizationID string `json:"organization_id" binding:"required"`
}

// @Summary      Switch organization
// @Description  Re-point the current session at another organization the caller belongs to.
// @Tags         Auth
// @Security     SessionCookie
// @Accept       json
// @Produce      json
// @Param        body  body  SwitchOrganizationRequest  true  "Target organization"
// @Success      200  {object}  map[string]interface{}  "Updated session"
// @Failure      401  {object}  map[string]interface{}  "Not signed in with a session"
// @Failure      403  {object}  map[string]interface{}  "Caller is not a member of the target organization"
// @Router       /v1/auth/session/organization [post]
// SwitchOrganizationHandler re-points the session's current organization
// POST /v1/auth/session/organization
func (h *Handlers) SwitchOrganizationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Token callers have no session to re-point
		sessionID := c.GetString(middleware.SessionIDKey)
		if sessionID == "" {
			respond.Error(c, services.E(services.KindUnauthenticated, "organization switching requires a session"))
			return
		}

		var req SwitchOrganizationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, "Invalid request")
			return
		}

		session, err := h.sessions.SwitchOrganization(c.Request.Context(), sessionID, req.OrganizationID)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"session": session})
	}
}

// AcceptInvitationRequest represents the request to redeem an invitation code
type AcceptInvitationRequest struct {
	Code string `json:"code" binding:"required"`
}

// AcceptInvitationHandler redeems an invitation code for the authenticated
// user and creates the membership it grants. Acceptance and membership
// creation are two separate writes; a crash between them leaves a consumed
// invitation without a membership.
// POST /v1/auth/invitations/accept
func (h *Handlers) AcceptInvitationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(middleware.UserIDKey)

		var req AcceptInvitationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, "Invalid request")
			return
		}

		inv, err := h.invitations.AcceptInvitation(c.Request.Context(), req.Code, userID)
		if err != nil {
			respond.Error(c, err)
			return
		}

		membership, err := h.memberships.AddMember(c.Request.Context(), services.AddMemberParams{
			UserID:         userID,
			OrganizationID: inv.OrganizationID,
			Role:           inv.Role,
			IsPersonalOrg:  false,
		})
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"membership": membership})
	}
}

// LogoutHandler revokes the current session and clears the cookie. Token
// callers get a 200 with nothing to revoke.
// POST /v1/auth/logout
func (h *Handlers) LogoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetString(middleware.SessionIDKey)
		if sessionID != "" {
			if err := h.sessions.RevokeSession(c.Request.Context(), sessionID); err != nil {
				respond.Error(c, err)
				return
			}
		}
		h.clearSessionCookie(c)

		c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
	}
}

// LogoutAllHandler revokes every session belonging to the authenticated user
// POST /v1/auth/logout/all
func (h *Handlers) LogoutAllHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(middleware.UserIDKey)

		if err := h.sessions.RevokeAllUserSessions(c.Request.Context(), userID); err != nil {
			respond.Error(c, err)
			return
		}
		h.clearSessionCookie(c)

		c.JSON(http.StatusOK, gin.H{"message": "All sessions revoked"})
	}
}
