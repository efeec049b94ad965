// Package respond translates service-layer errors into HTTP responses.
// Handlers pass any error returned by a service; the error kind decides the
// status code and the message becomes the JSON error body. Storage failures
// and unknown errors are logged and rendered as an opaque 500 so internal
// details never reach clients.
package respond

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/capturelog/capturelog/internal/services"
)

var kindStatus = map[services.ErrorKind]int{
	// Validation
	services.KindInvalidRole:  http.StatusBadRequest,
	services.KindInvalidEmail: http.StatusBadRequest,

	// Authentication
	services.KindUnauthenticated:    http.StatusUnauthorized,
	services.KindInvalidTokenFormat: http.StatusUnauthorized,
	services.KindInvalidSecret:      http.StatusUnauthorized,
	services.KindInvalidSignature:   http.StatusUnauthorized,
	services.KindSessionExpired:     http.StatusUnauthorized,
	services.KindVerificationFailed: http.StatusUnauthorized,

	// Authorization
	services.KindNotAMember:              http.StatusForbidden,
	services.KindInsufficientRole:        http.StatusForbidden,
	services.KindCredentialOwnership:     http.StatusForbidden,
	services.KindInvitationEmailMismatch: http.StatusForbidden,

	// Absence
	services.KindUserNotFound:         http.StatusNotFound,
	services.KindOrganizationNotFound: http.StatusNotFound,
	services.KindTokenNotFound:        http.StatusNotFound,
	services.KindSessionNotFound:      http.StatusNotFound,
	services.KindMembershipNotFound:   http.StatusNotFound,
	services.KindCredentialNotFound:   http.StatusNotFound,
	services.KindInvitationNotFound:   http.StatusNotFound,

	// State conflicts
	services.KindAlreadyMember:           http.StatusConflict,
	services.KindCannotLeavePersonalOrg:  http.StatusConflict,
	services.KindLastAdmin:               http.StatusConflict,
	services.KindCannotChangeOwnerRole:   http.StatusConflict,
	services.KindCannotDeleteLastPasskey: http.StatusConflict,
	services.KindEmailTaken:              http.StatusConflict,
	services.KindTokenLimitReached:       http.StatusConflict,
	services.KindNoMemberships:           http.StatusConflict,

	// Expiry
	services.KindInvitationExpired:         http.StatusGone,
	services.KindInvitationAlreadyAccepted: http.StatusGone,
	services.KindChallengeExpired:          http.StatusGone,
}

// Error writes the JSON error response for a service error and aborts the
// request. Unknown kinds and storage failures become 500s.
func Error(c *gin.Context, err error) {
	var serviceErr *services.Error
	if e, ok := err.(*services.Error); ok {
		serviceErr = e
	}

	if serviceErr == nil || serviceErr.Kind == services.KindStorage {
		slog.Error("request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	status, ok := kindStatus[serviceErr.Kind]
	if !ok {
		slog.Error("unmapped error kind",
			"kind", string(serviceErr.Kind),
			"path", c.Request.URL.Path,
			"error", err,
		)
		status = http.StatusInternalServerError
	}

	c.AbortWithStatusJSON(status, gin.H{
		"error": serviceErr.Message,
		"code":  string(serviceErr.Kind),
	})
}

// BadRequest writes a 400 for malformed request bodies or parameters
func BadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message})
}
