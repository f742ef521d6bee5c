package countersvc

import "github.com/BaraaAbuhalima/counter-app/internal/counter"

// Snapshot is the result of Get and Apply.
type Snapshot struct {
	Counters counter.Record
	// Persisted is false when the values come from the memory fallback.
	Persisted bool
	// Revision is the latest change revision seen by this process.
	Revision uint64
}

// Event is published to watchers after every successful Apply.
type Event struct {
	Revision  uint64         `json:"revision"`
	Key       string         `json:"key"`
	Delta     int64          `json:"delta"`
	Counters  counter.Record `json:"counters"`
	Persisted bool           `json:"persisted"`
	AtMs      int64          `json:"atMs"`
}

// WatchSink is implemented by transports to receive change events.
type WatchSink interface {
	Send(Event) error
	Flush() error
}

// SinkFunc adapts a function to WatchSink with a no-op Flush.
type SinkFunc func(Event) error

func (f SinkFunc) Send(e Event) error { return f(e) }
func (f SinkFunc) Flush() error       { return nil }
