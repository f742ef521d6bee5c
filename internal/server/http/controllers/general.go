package controllers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BaraaAbuhalima/counter-app/internal/runtime"
)

// GeneralController handles endpoints that are not specific to counters:
// health and Prometheus metrics.
type GeneralController struct {
	rt      *runtime.Runtime
	metrics http.Handler
}

// NewGeneralController creates a new general controller.
func NewGeneralController(rt *runtime.Runtime) *GeneralController {
	return &GeneralController{
		rt:      rt,
		metrics: promhttp.Handler(),
	}
}

// RegisterRoutes registers general routes with the given mux.
//
// This method sets up HTTP endpoints for:
// - Health checks (/healthz)
// - Prometheus exposition (/metrics)
func (c *GeneralController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", c.handleHealth)
	mux.HandleFunc("/metrics", c.handleMetrics)
}

// handleHealth returns the health status of the service.
//
// Returns 200 OK with {"status": "ok"} if the backend answers, 503 Service
// Unavailable otherwise.
func (c *GeneralController) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if err := c.rt.CheckHealth(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "not_serving")
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (c *GeneralController) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	c.metrics.ServeHTTP(w, r)
}
