package authapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/capturelog/capturelog/internal/api/respond"
)

// SignupRequest represents the request to create a new account
type SignupRequest struct {
	Email string `json:"email" binding:"required"`
}

// @Summary      Sign up
// @Description  Create a new account with a personal organization. The caller still needs to register a passkey before they can sign in.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body  SignupRequest  true  "Signup request"
// @Success      201  {object}  map[string]interface{}  "Created account, personal organization, and owner membership"
// @Failure      400  {object}  map[string]interface{}  "Invalid email"
// @Failure      409  {object}  map[string]interface{}  "Email already registered"
// @Router       /v1/auth/signup [post]
// SignupHandler creates an account and its personal organization
// POST /v1/auth/signup
func (h *Handlers) SignupHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SignupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, "Invalid request")
			return
		}

		result, err := h.users.Signup(c.Request.Context(), req.Email)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"user":         result.User,
			"organization": result.Organization,
			"membership":   result.Membership,
		})
	}
}
