package transports

import (
	"context"
	"fmt"
)

// Counters is the counter state returned by Get and Apply.
type Counters struct {
	Values map[string]int64
	// Persisted is false when the server answered from its memory fallback.
	Persisted bool
}

// Event is one change notification from the watch stream.
type Event struct {
	Revision  uint64           `json:"revision"`
	Key       string           `json:"key"`
	Delta     int64            `json:"delta"`
	Counters  map[string]int64 `json:"counters"`
	Persisted bool             `json:"persisted"`
	AtMs      int64            `json:"atMs"`
}

// CounterTransport abstracts the transport used by the CLI (gRPC/HTTP).
type CounterTransport interface {
	Get(ctx context.Context) (Counters, error)
	Apply(ctx context.Context, key string, delta int64) (Counters, error)
}

// Watcher is implemented by transports that can stream change events.
type Watcher interface {
	Watch(ctx context.Context, filter string, onEvent func(Event) error) error
}

// APIError is a non-success answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}
