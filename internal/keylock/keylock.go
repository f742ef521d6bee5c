package keylock

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Registry holds the pending chain for every key with in-flight work.
type Registry struct {
	mu      sync.Mutex
	pending map[string]*handle
	metrics Metrics
}

// handle is one scheduled operation. done is closed once it has settled.
type handle struct {
	done chan struct{}
}

// Option configures a Registry.
type Option func(*Registry)

// WithMetrics overrides the metrics sink. Defaults to the Prometheus collectors.
func WithMetrics(m Metrics) Option {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// New returns an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		pending: make(map[string]*handle),
		metrics: promMetrics{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do runs op once every operation submitted earlier under key has settled.
// The error returned is op's own error; failures of earlier operations are
// not visible here.
func (r *Registry) Do(ctx context.Context, key string, op func(ctx context.Context) error) error {
	h, prev := r.schedule(key)
	defer r.settle(key, h)

	queued := time.Now()
	if prev != nil {
		<-prev.done
	}
	r.metrics.ObserveWait(time.Since(queued))

	err := run(ctx, op)
	r.metrics.ObserveOutcome(err)
	return err
}

// WithLock is the typed form of Do.
func WithLock[T any](ctx context.Context, r *Registry, key string, op func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := r.Do(ctx, key, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// Pending reports whether key currently has a registered chain.
func (r *Registry) Pending(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pending[key]
	return ok
}

// Len returns the number of keys with a registered chain.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// schedule registers a new handle for key and returns it with its
// predecessor, if any. Registration order is submission order.
func (r *Registry) schedule(key string) (h, prev *handle) {
	h = &handle{done: make(chan struct{})}
	r.mu.Lock()
	prev = r.pending[key]
	r.pending[key] = h
	r.mu.Unlock()
	r.metrics.IncInflight()
	return h, prev
}

// settle releases h's successor and drops the registration if h is still the
// latest one for key.
func (r *Registry) settle(key string, h *handle) {
	r.mu.Lock()
	if r.pending[key] == h {
		delete(r.pending, key)
	}
	r.mu.Unlock()
	close(h.done)
	r.metrics.DecInflight()
}

func run(ctx context.Context, op func(ctx context.Context) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("keylock: operation panicked: %v", rec)
		}
	}()
	return op(ctx)
}
