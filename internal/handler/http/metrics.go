package http

import (
	"net/http"
	"strconv"
	"time"

	"release-radar/internal/handler/http/pathutil"
	"release-radar/internal/observability/metrics"
	"release-radar/internal/observability/slo"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// responseWriter wraps http.ResponseWriter to record status code and response size.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

// MetricsMiddleware records HTTP request metrics including duration, size, and status codes.
// The metrics themselves live in the central observability registry.
// It uses path normalization to prevent label cardinality explosion from ID-containing paths.
// The middleware tracks:
// - In-flight requests (gauge incremented/decremented per request)
// - Request duration with optimized histogram buckets
// - Request and response sizes
// - Status code distribution
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Track in-flight requests
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		// Track active connections (legacy metric, kept for compatibility)
		metrics.ActiveConnections.Inc()
		defer metrics.ActiveConnections.Dec()

		// Normalize path to prevent cardinality explosion
		// Example: /artists/123 -> /artists/:id
		normalizedPath := pathutil.NormalizePath(r.URL.Path)

		// Wrap response writer to capture status code and response size
		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		// Measure request duration
		start := time.Now()
		next.ServeHTTP(rw, r)
		duration := time.Since(start)

		// Record metrics (using normalized path to prevent cardinality explosion)
		status := strconv.Itoa(rw.statusCode)
		metrics.RecordHTTPRequest(r.Method, normalizedPath, status, duration, int(r.ContentLength), rw.size)

		// Feed the SLO window; the gauges are published periodically by slo.Run.
		slo.Record(rw.statusCode, duration)
	})
}

// MetricsHandler returns an HTTP handler for the Prometheus metrics endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
