// metrics.go records per-request Prometheus series. Registered before any
// route handler so every request is measured.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/capturelog/capturelog/internal/telemetry"
)

// MetricsMiddleware increments telemetry.HTTPRequestsTotal and observes
// telemetry.HTTPRequestDuration for each request. The path label uses
// c.FullPath(), the matched route template (/v1/orgs/:org_id/members), never
// the raw URL: session IDs and token IDs in paths must not become label
// values. Requests that match no route are folded into "<no-route>" to keep
// cardinality bounded.
//
// Register after gin.Recovery so statuses written by the panic handler are
// still captured.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "<no-route>"
		}

		status := strconv.Itoa(c.Writer.Status())
		telemetry.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		telemetry.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
