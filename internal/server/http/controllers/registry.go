package controllers

import (
	"net/http"

	"github.com/BaraaAbuhalima/counter-app/internal/runtime"
	countersvc "github.com/BaraaAbuhalima/counter-app/internal/services/counters"
	logpkg "github.com/BaraaAbuhalima/counter-app/pkg/log"
)

// ControllerRegistry manages all HTTP controllers.
//
// It provides a centralized way to register all controller routes.
type ControllerRegistry struct {
	general  *GeneralController
	counters *CountersController
}

// NewControllerRegistry creates a new controller registry.
//
// It initializes all controllers with the provided runtime and services.
func NewControllerRegistry(rt *runtime.Runtime, countersSvc *countersvc.Service, logger logpkg.Logger) *ControllerRegistry {
	return &ControllerRegistry{
		general:  NewGeneralController(rt),
		counters: NewCountersController(countersSvc, logger),
	}
}

// RegisterAllRoutes registers all controller routes with the given mux.
//
// This sets up the general endpoints (health, metrics) and the counter
// endpoints.
func (r *ControllerRegistry) RegisterAllRoutes(mux *http.ServeMux) {
	r.general.RegisterRoutes(mux)
	r.counters.RegisterRoutes(mux)
}
