// Package authapi implements the authentication HTTP handlers: account
// signup, passkey registration and login ceremonies, and tenant session
// management. Passkey ceremonies are two-step; the server state between the
// begin and finish calls travels in a signed challenge token instead of
// server-side storage, so any instance can finish a ceremony another instance
// began.
package authapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/capturelog/capturelog/internal/auth"
	"github.com/capturelog/capturelog/internal/services"
)

// challengeTokenHeader carries the signed ceremony token between the begin
// and finish calls. It rides in a header because the finish request body is
// the raw WebAuthn response, consumed whole by the protocol parser.
const challengeTokenHeader = "X-Challenge-Token"

// Handlers holds the authentication endpoints
type Handlers struct {
	users        *services.UserService
	sessions     *services.SessionService
	passkeys     *services.PasskeyService
	memberships  *services.MembershipService
	invitations  *services.InvitationService
	cookieSecure bool
}

// NewHandlers creates a new authentication Handlers instance
func NewHandlers(
	users *services.UserService,
	sessions *services.SessionService,
	passkeys *services.PasskeyService,
	memberships *services.MembershipService,
	invitations *services.InvitationService,
	cookieSecure bool,
) *Handlers {
	return &Handlers{
		users:        users,
		sessions:     sessions,
		passkeys:     passkeys,
		memberships:  memberships,
		invitations:  invitations,
		cookieSecure: cookieSecure,
	}
}

// setSessionCookie writes the tenant session cookie for the session's
// remaining lifetime
func (h *Handlers) setSessionCookie(c *gin.Context, sessionID string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(
		auth.SessionCookieName,
		sessionID,
		int(h.sessions.TTL().Seconds()),
		"/",
		"",
		h.cookieSecure,
		true,
	)
}

// clearSessionCookie expires the tenant session cookie
func (h *Handlers) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(auth.SessionCookieName, "", -1, "/", "", h.cookieSecure, true)
}
