package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/BaraaAbuhalima/counter-app/internal/counter"
	countersvc "github.com/BaraaAbuhalima/counter-app/internal/services/counters"
	logpkg "github.com/BaraaAbuhalima/counter-app/pkg/log"
)

// CountersController serves the counter read/update endpoints and the
// change stream.
type CountersController struct {
	svc    *countersvc.Service
	logger logpkg.Logger
}

// NewCountersController creates a new counters controller.
func NewCountersController(svc *countersvc.Service, logger logpkg.Logger) *CountersController {
	if logger == nil {
		logger = logpkg.GetDefaultLogger()
	}
	return &CountersController{svc: svc, logger: logger.WithComponent("http")}
}

// RegisterRoutes registers counter routes with the given mux.
//
// /api/counter is an alias of /counter for clients mounted under /api.
func (c *CountersController) RegisterRoutes(mux *http.ServeMux) {
	for _, prefix := range []string{"", "/api"} {
		mux.HandleFunc(prefix+"/counter", c.handleCounter)
		mux.HandleFunc(prefix+"/counter/watch", c.handleWatchSSE)
	}
}

// handleCounter dispatches GET (read) and POST (apply delta).
func (c *CountersController) handleCounter(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		c.handleGet(w, r)
	case http.MethodPost:
		c.handleApply(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleGet returns every counter, e.g. {"video":3,"photo":5}.
func (c *CountersController) handleGet(w http.ResponseWriter, r *http.Request) {
	snap, err := c.svc.Get(r.Context())
	if err != nil {
		c.logger.WithContext(r.Context()).Error("read counters failed", logpkg.Err(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, countersBody(snap.Counters, snap.Persisted))
}

// handleApply adds a signed delta to one counter.
//
// Expects {"key":"video"|"photo","delta":int}. Unknown keys get 400
// {"error":"Invalid key"}, an out-of-range result gets 400
// {"error":"Invalid delta"}; storage failures that the fallback does not mask
// get 500 {"error":"Internal server error"}.
func (c *CountersController) handleApply(w http.ResponseWriter, r *http.Request) {
	var req applyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !counter.Valid(req.Key) {
		writeError(w, http.StatusBadRequest, "Invalid key")
		return
	}
	snap, err := c.svc.Apply(r.Context(), req.Key, req.Delta)
	if err != nil {
		if errors.Is(err, counter.ErrUnknownCounter) {
			writeError(w, http.StatusBadRequest, "Invalid key")
			return
		}
		if errors.Is(err, counter.ErrOverflow) {
			writeError(w, http.StatusBadRequest, "Invalid delta")
			return
		}
		c.logger.WithContext(r.Context()).Error("apply delta failed",
			logpkg.Str("key", req.Key), logpkg.Int64("delta", req.Delta), logpkg.Err(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, countersBody(snap.Counters, snap.Persisted))
}

// handleWatchSSE streams change events until the client disconnects.
//
// Query parameters:
// - filter: optional CEL expression over key, delta, counters, persisted, revision
func (c *CountersController) handleWatchSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	filter := r.URL.Query().Get("filter")
	if err := countersvc.ValidateFilter(filter); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	sink := sseSink{w: w}
	_ = sink.Flush()
	if err := c.svc.Watch(r.Context(), filter, sink); err != nil {
		c.logger.WithContext(r.Context()).Debug("watch ended", logpkg.Err(err))
	}
}
