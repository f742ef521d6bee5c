package controllers

import (
	"encoding/json"
	"net/http"

	countersvc "github.com/BaraaAbuhalima/counter-app/internal/services/counters"
)

// sseSink implements the WatchSink interface for Server-Sent Events.
//
// It formats change events as SSE data events for real-time streaming
// to web clients.
type sseSink struct {
	w http.ResponseWriter
}

// Send formats and sends a change event as an SSE data event.
//
// The event is JSON-encoded and sent with the "data: " prefix followed by
// two newlines as required by the SSE specification.
func (s sseSink) Send(e countersvc.Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := s.w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := s.w.Write(b); err != nil {
		return err
	}
	if _, err := s.w.Write([]byte("\n\n")); err != nil {
		return err
	}
	return nil
}

// Flush flushes the HTTP response writer if it supports flushing.
func (s sseSink) Flush() error {
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
