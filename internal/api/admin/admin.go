// Package admin implements the operator endpoints. The operator is a single
// principal authenticated by a configured password, in a trust domain fully
// separate from tenant users: admin requests carry a signed, self-contained
// token in their own cookie and never touch the tenant session store.
package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/capturelog/capturelog/internal/api/respond"
	"github.com/capturelog/capturelog/internal/auth"
	"github.com/capturelog/capturelog/internal/services"
)

// Handlers holds the operator endpoints
type Handlers struct {
	admin        *services.AdminSessionService
	cookieSecure bool
}

// NewHandlers creates a new admin Handlers instance
func NewHandlers(admin *services.AdminSessionService, cookieSecure bool) *Handlers {
	return &Handlers{admin: admin, cookieSecure: cookieSecure}
}

// LoginRequest represents the operator login request
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// @Summary      Operator login
// @Description  Exchange the operator password for a signed admin session cookie. Admin access is disabled entirely when no password is configured.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        body  body  LoginRequest  true  "Operator password"
// @Success      200  {object}  map[string]interface{}  "Signed in"
// @Failure      401  {object}  map[string]interface{}  "Wrong password or admin access disabled"
// @Router       /v1/admin/login [post]
// LoginHandler authenticates the operator
// POST /v1/admin/login
func (h *Handlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, "Invalid request")
			return
		}

		token, err := h.admin.Login(req.Password)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(
			auth.AdminSessionCookieName,
			token,
			int(h.admin.TTL().Seconds()),
			"/",
			"",
			h.cookieSecure,
			true,
		)

		c.JSON(http.StatusOK, gin.H{"message": "Signed in"})
	}
}

// LogoutHandler clears the admin session cookie. The token itself stays
// valid until its TTL elapses; there is no server-side state to revoke.
// POST /v1/admin/logout
func (h *Handlers) LogoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(auth.AdminSessionCookieName, "", -1, "/", "", h.cookieSecure, true)

		c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
	}
}
