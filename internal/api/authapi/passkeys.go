package authapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/capturelog/capturelog/internal/api/respond"
	"github.com/capturelog/capturelog/internal/middleware"
)

// BeginRegistrationRequest represents the request to start a passkey
// registration ceremony
type BeginRegistrationRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// @Summary      Begin passkey registration
// @Description  Start a WebAuthn registration ceremony. Returns the browser creation options and a signed challenge token that must accompany the finish call.
// @Tags         Passkeys
// @Accept       json
// @Produce      json
// @Param        body  body  BeginRegistrationRequest  true  "Registration request"
// @Success      200  {object}  map[string]interface{}  "Creation options and challenge token"
// @Failure      404  {object}  map[string]interface{}  "User not found"
// @Router       /v1/auth/register/begin [post]
// BeginRegistrationHandler starts a passkey registration ceremony
// POST /v1/auth/register/begin
//
// Unauthenticated so a freshly signed-up account can register its first
// passkey. Possession of the challenge token plus a valid attestation is the
// proof the finish step checks.
func (h *Handlers) BeginRegistrationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BeginRegistrationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, "Invalid request")
			return
		}

		options, token, err := h.passkeys.BeginRegistration(c.Request.Context(), req.UserID)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"options":         options,
			"challenge_token": token,
		})
	}
}

// FinishRegistrationHandler completes a passkey registration ceremony and
// signs the caller in. The request body is the raw WebAuthn attestation
// response; user_id and optional name travel as query parameters and the
// challenge token as a header, because the protocol parser consumes the body.
// POST /v1/auth/register/finish?user_id=...&name=...
func (h *Handlers) FinishRegistrationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("user_id")
		if userID == "" {
			respond.BadRequest(c, "user_id is required")
			return
		}

		token := c.GetHeader(challengeTokenHeader)
		if token == "" {
			respond.BadRequest(c, "challenge token is required")
			return
		}

		var name *string
		if n := c.Query("name"); n != "" {
			name = &n
		}

		cred, err := h.passkeys.FinishRegistration(c.Request.Context(), userID, token, c.Request, name)
		if err != nil {
			respond.Error(c, err)
			return
		}

		// A successful registration proves possession, so it doubles as a
		// sign-in. Empty org selects the user's personal organization.
		session, err := h.sessions.CreateSession(c.Request.Context(), userID, "")
		if err != nil {
			respond.Error(c, err)
			return
		}
		h.setSessionCookie(c, session.ID)

		c.JSON(http.StatusCreated, gin.H{
			"credential": cred,
			"session":    session,
		})
	}
}

// BeginLoginRequest represents the request to start a passkey login ceremony
type BeginLoginRequest struct {
	Email string `json:"email" binding:"required"`
}

// @Summary      Begin passkey login
// @Description  Start a WebAuthn authentication ceremony for the account with the given email.
// @Tags         Passkeys
// @Accept       json
// @Produce      json
// @Param        body  body  BeginLoginRequest  true  "Login request"
// @Success      200  {object}  map[string]interface{}  "Assertion options and challenge token"
// @Failure      404  {object}  map[string]interface{}  "Unknown account or no registered passkeys"
// @Router       /v1/auth/login/begin [post]
// BeginLoginHandler starts a passkey login ceremony
// POST /v1/auth/login/begin
func (h *Handlers) BeginLoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BeginLoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, "Invalid request")
			return
		}

		options, token, err := h.passkeys.BeginLogin(c.Request.Context(), req.Email)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"options":         options,
			"challenge_token": token,
		})
	}
}

// FinishLoginHandler completes a passkey login ceremony and issues a tenant
// session. Body is the raw WebAuthn assertion response.
// POST /v1/auth/login/finish?email=...
func (h *Handlers) FinishLoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.Query("email")
		if email == "" {
			respond.BadRequest(c, "email is required")
			return
		}

		token := c.GetHeader(challengeTokenHeader)
		if token == "" {
			respond.BadRequest(c, "challenge token is required")
			return
		}

		session, err := h.passkeys.FinishLogin(c.Request.Context(), email, token, c.Request)
		if err != nil {
			respond.Error(c, err)
			return
		}
		h.setSessionCookie(c, session.ID)

		c.JSON(http.StatusOK, gin.H{"session": session})
	}
}

// ListCredentialsHandler lists the authenticated user's passkeys
// GET /v1/auth/passkeys
func (h *Handlers) ListCredentialsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(middleware.UserIDKey)

		creds, err := h.passkeys.ListCredentials(c.Request.Context(), userID)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"credentials": creds})
	}
}

// DeleteCredentialHandler removes one of the authenticated user's passkeys.
// The last remaining passkey cannot be deleted; that would lock the account.
// DELETE /v1/auth/passkeys/:id
func (h *Handlers) DeleteCredentialHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(middleware.UserIDKey)
		credentialID := c.Param("id")

		if err := h.passkeys.DeleteCredential(c.Request.Context(), userID, credentialID); err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Passkey deleted"})
	}
}
