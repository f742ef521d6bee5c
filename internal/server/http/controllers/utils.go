package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/BaraaAbuhalima/counter-app/internal/counter"
)

// Helper functions for common HTTP responses

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeJSON writes a JSON response with the given data.
func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

// countersBody flattens a record into the response object, adding
// "_persisted": false when the values did not reach the backend.
func countersBody(rec counter.Record, persisted bool) map[string]any {
	out := make(map[string]any, len(rec)+1)
	for k, v := range rec {
		out[k] = v
	}
	if !persisted {
		out[persistedKey] = false
	}
	return out
}
