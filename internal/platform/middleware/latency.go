package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tombola/internal/platform/metrics"
)

// LatencyMiddleware records request duration into the latency histogram.
// The chi route pattern is used as the path label so parameterized routes
// do not explode label cardinality.
func LatencyMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					path = pattern
				}
			}
			m.ObserveRequest(r.Method, path, sw.status, time.Since(start))
		})
	}
}
