// rbac.go implements role-based authorization middleware.
//
// Roles are checked against the membership table at request time rather than
// being embedded in the session or token: a role change takes effect on the
// member's next request without invalidating their credentials.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/capturelog/capturelog/internal/db/models"
	"github.com/capturelog/capturelog/internal/services"
)

// RequireOrgRole checks that the authenticated user holds at least the
// required role in the request's organization. Routes scoped by an :org_id
// path parameter are checked against that organization; otherwise the
// credential's resolved organization applies. Must run after CombinedAuth.
func RequireOrgRole(memberships *services.MembershipService, required models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(UserIDKey)
		orgID := c.Param("org_id")
		if orgID == "" {
			orgID = c.GetString(OrganizationIDKey)
		}
		if userID == "" || orgID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		if err := memberships.RequireRole(c.Request.Context(), userID, orgID, required); err != nil {
			switch services.KindOf(err) {
			case services.KindNotAMember:
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": "not a member of this organization",
				})
			case services.KindInsufficientRole:
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error":   "insufficient role",
					"details": "requires at least the " + string(required) + " role",
				})
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "authorization check failed",
				})
			}
			return
		}

		c.Next()
	}
}
