package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/capturelog/capturelog/internal/telemetry"
)

// labelsMatch reports whether the written metric carries every wanted label
// pair.
func labelsMatch(dm *dto.Metric, labels prometheus.Labels) bool {
	for k, want := range labels {
		found := false
		for _, lp := range dm.GetLabel() {
			if lp.GetName() == k && lp.GetValue() == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// counterValue reads the current value of the series matching labels, or 0 if
// the series has not been observed yet.
func counterValue(cv *prometheus.CounterVec, labels prometheus.Labels) float64 {
	ch := make(chan prometheus.Metric, 32)
	cv.Collect(ch)
	close(ch)
	for m := range ch {
		var dm dto.Metric
		if err := m.Write(&dm); err != nil {
			continue
		}
		if labelsMatch(&dm, labels) {
			return dm.GetCounter().GetValue()
		}
	}
	return 0
}

// histogramCount reads the sample count of the series matching labels.
func histogramCount(hv *prometheus.HistogramVec, labels prometheus.Labels) uint64 {
	ch := make(chan prometheus.Metric, 32)
	hv.Collect(ch)
	close(ch)
	for m := range ch {
		var dm dto.Metric
		if err := m.Write(&dm); err != nil {
			continue
		}
		if labelsMatch(&dm, labels) {
			return dm.GetHistogram().GetSampleCount()
		}
	}
	return 0
}

// pathLabelValues collects every value the path label currently holds.
func pathLabelValues(cv *prometheus.CounterVec) map[string]bool {
	values := map[string]bool{}
	ch := make(chan prometheus.Metric, 32)
	cv.Collect(ch)
	close(ch)
	for m := range ch {
		var dm dto.Metric
		if err := m.Write(&dm); err != nil {
			continue
		}
		for _, lp := range dm.GetLabel() {
			if lp.GetName() == "path" {
				values[lp.GetValue()] = true
			}
		}
	}
	return values
}

func newMetricsRouter(status int) *gin.Engine {
	r := gin.New()
	r.Use(MetricsMiddleware())
	r.GET("/v1/tokens/:id", func(c *gin.Context) { c.Status(status) })
	return r
}

func serveMetrics(r *gin.Engine, path string) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(httptest.NewRecorder(), req)
}

func TestMetricsMiddleware_CountsRequests(t *testing.T) {
	labels := prometheus.Labels{"method": "GET", "path": "/v1/tokens/:id", "status": "200"}
	before := counterValue(telemetry.HTTPRequestsTotal, labels)

	serveMetrics(newMetricsRouter(http.StatusOK), "/v1/tokens/tok-1")

	if after := counterValue(telemetry.HTTPRequestsTotal, labels); after-before < 1 {
		t.Errorf("http_requests_total not incremented: before=%.0f after=%.0f", before, after)
	}
}

func TestMetricsMiddleware_ObservesDuration(t *testing.T) {
	labels := prometheus.Labels{"method": "GET", "path": "/v1/tokens/:id"}
	before := histogramCount(telemetry.HTTPRequestDuration, labels)

	serveMetrics(newMetricsRouter(http.StatusOK), "/v1/tokens/tok-2")

	if after := histogramCount(telemetry.HTTPRequestDuration, labels); after <= before {
		t.Errorf("http_request_duration_seconds sample count did not grow: before=%d after=%d", before, after)
	}
}

func TestMetricsMiddleware_PathLabelIsRouteTemplate(t *testing.T) {
	// Concrete IDs must never become label values; only the template may.
	serveMetrics(newMetricsRouter(http.StatusOK), "/v1/tokens/tok-3")

	if pathLabelValues(telemetry.HTTPRequestsTotal)["/v1/tokens/tok-3"] {
		t.Error("raw URL /v1/tokens/tok-3 appeared as a path label; expected the route template")
	}
}

func TestMetricsMiddleware_UnmatchedRouteUsesSentinel(t *testing.T) {
	r := gin.New()
	r.Use(MetricsMiddleware())

	serveMetrics(r, "/does-not-exist")

	if !pathLabelValues(telemetry.HTTPRequestsTotal)["<no-route>"] {
		t.Error("expected <no-route> path label for an unmatched request")
	}
}

func TestMetricsMiddleware_CountsErrorStatuses(t *testing.T) {
	labels := prometheus.Labels{"method": "GET", "path": "/v1/tokens/:id", "status": "500"}
	before := counterValue(telemetry.HTTPRequestsTotal, labels)

	serveMetrics(newMetricsRouter(http.StatusInternalServerError), "/v1/tokens/tok-4")

	if after := counterValue(telemetry.HTTPRequestsTotal, labels); after-before < 1 {
		t.Errorf("http_requests_total for status=500 not incremented: before=%.0f after=%.0f", before, after)
	}
}
