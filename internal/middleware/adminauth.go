// adminauth.go provides middleware for the operator admin surface. Admin
// requests authenticate with the stateless signed cookie issued by
// services.AdminSessionService; the tenant auth chain is never consulted.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/capturelog/capturelog/internal/auth"
	"github.com/capturelog/capturelog/internal/services"
)

// IsAdminKey is the context key set when a request carries a valid admin
// session
const IsAdminKey = "is_admin"

// AdminAuth authenticates requests against the admin session cookie
func AdminAuth(admin *services.AdminSessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(auth.AdminSessionCookieName)
		if err != nil || cookie == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "admin authentication required",
			})
			return
		}

		if err := admin.Verify(cookie); err != nil {
			if services.IsKind(err, services.KindSessionExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "admin session expired",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "admin session invalid",
			})
			return
		}

		c.Set(IsAdminKey, true)
		c.Next()
	}
}
