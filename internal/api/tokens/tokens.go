// Package tokens implements the API token management endpoints. Tokens are
// long-lived programmatic credentials; the raw secret is returned exactly
// once at creation and only its bcrypt hash is stored.
package tokens

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/capturelog/capturelog/internal/api/respond"
	"github.com/capturelog/capturelog/internal/middleware"
	"github.com/capturelog/capturelog/internal/services"
)

// Handlers holds the API token endpoints
type Handlers struct {
	tokens *services.TokenService
}

// NewHandlers creates a new token Handlers instance
func NewHandlers(tokens *services.TokenService) *Handlers {
	return &Handlers{tokens: tokens}
}

// CreateTokenRequest represents the request to create a new API token
type CreateTokenRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateTokenResponse represents the response when creating an API token
type CreateTokenResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Token     string    `json:"token"` // Only returned once during creation
	CreatedAt time.Time `json:"created_at"`
}

// @Summary      Create API token
// @Description  Create a new API token for the authenticated user. The full token is only returned once during creation.
// @Tags         Tokens
// @Security     SessionCookie
// @Accept       json
// @Produce      json
// @Param        body  body  CreateTokenRequest  true  "Token creation request"
// @Success      201  {object}  CreateTokenResponse  "Token created (secret returned once)"
// @Failure      401  {object}  map[string]interface{}  "Not authenticated"
// @Failure      409  {object}  map[string]interface{}  "Token limit reached"
// @Router       /v1/tokens [post]
// CreateTokenHandler creates a new API token
// POST /v1/tokens
func (h *Handlers) CreateTokenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(middleware.UserIDKey)

		var req CreateTokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, "Invalid request")
			return
		}

		raw, token, err := h.tokens.CreateToken(c.Request.Context(), userID, req.Name)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusCreated, CreateTokenResponse{
			ID:        token.ID,
			Name:      token.Name,
			Token:     raw,
			CreatedAt: token.CreatedAt,
		})
	}
}

// ListTokensHandler lists the authenticated user's API tokens
// GET /v1/tokens
func (h *Handlers) ListTokensHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(middleware.UserIDKey)

		tokens, err := h.tokens.ListTokens(c.Request.Context(), userID)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"tokens": tokens})
	}
}

// RevokeTokenHandler deletes one of the authenticated user's API tokens.
// A token belonging to another user reads as not found so token IDs cannot
// be probed across accounts.
// DELETE /v1/tokens/:id
func (h *Handlers) RevokeTokenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(middleware.UserIDKey)
		tokenID := c.Param("id")

		if err := h.tokens.RevokeToken(c.Request.Context(), tokenID, userID); err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Token revoked"})
	}
}
