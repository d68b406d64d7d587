// Package httpapi assembles the public HTTP surface: the raffle API, the
// health probe and the Prometheus scrape endpoint.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tombola/internal/transport/http/shared"
)

// Registrar mounts a group of routes onto the root router.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker probes one dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthFunc adapts a plain probe function to HealthChecker.
type HealthFunc func(ctx context.Context) error

func (f HealthFunc) Health(ctx context.Context) error { return f(ctx) }

const healthCheckTimeout = 2 * time.Second

// RouterConfig collects everything the root router serves.
type RouterConfig struct {
	Raffle Registrar

	// Checks maps dependency names to their probes. Every probe runs on
	// each /healthz request.
	Checks map[string]HealthChecker

	// Gatherer backs /metrics. Nil falls back to the default registry.
	Gatherer prometheus.Gatherer
}

// NewRouter wires all public endpoints.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", handleHealth(cfg.Checks))

	if cfg.Raffle != nil {
		cfg.Raffle.Register(r)
	}
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Failed map[string]string `json:"failed,omitempty"`
}

// handleHealth reports ok only when every registered dependency answers
// within the probe timeout.
func handleHealth(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		var failed map[string]string
		for name, check := range checks {
			if err := check.Health(ctx); err != nil {
				if failed == nil {
					failed = make(map[string]string)
				}
				failed[name] = err.Error()
			}
		}

		if len(failed) > 0 {
			shared.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Failed: failed})
			return
		}
		shared.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}
