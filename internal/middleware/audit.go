package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/capturelog/capturelog/internal/audit"
	"github.com/capturelog/capturelog/internal/safego"
)

// AuditTrail records mutating requests to the audit recorder after the
// handler completes. Reads are not audited; the trail captures state
// changes (sign-ins, logouts, membership changes, token issuance) with the
// caller identity resolved by the auth middleware earlier in the chain.
//
// Recording runs off the request goroutine so a slow audit destination
// never adds latency to the response.
func AuditTrail(recorder *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			return
		}
		if !recorder.Enabled() {
			return
		}

		event := &audit.Event{
			Timestamp:      time.Now().UTC(),
			Action:         c.Request.Method + " " + c.FullPath(),
			UserID:         c.GetString(UserIDKey),
			OrganizationID: c.GetString(OrganizationIDKey),
			SessionID:      c.GetString(SessionIDKey),
			AuthMethod:     c.GetString(AuthMethodKey),
			IPAddress:      c.ClientIP(),
			RequestID:      c.GetString(RequestIDKey),
			Path:           c.Request.URL.Path,
			StatusCode:     c.Writer.Status(),
		}

		// The request context is cancelled once the response is written, so
		// the recorder gets a fresh one. Sinks apply their own timeouts.
		safego.Go(func() {
			recorder.Record(context.Background(), event)
		})
	}
}
