package countersvc

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/BaraaAbuhalima/counter-app/internal/counter"
	"github.com/BaraaAbuhalima/counter-app/internal/keylock"
	"github.com/BaraaAbuhalima/counter-app/internal/runtime"
	memstore "github.com/BaraaAbuhalima/counter-app/internal/storage/memory"
	logpkg "github.com/BaraaAbuhalima/counter-app/pkg/log"
)

// Service reads and updates counters through the runtime backend.
type Service struct {
	rt       *runtime.Runtime
	logger   logpkg.Logger
	memory   *memstore.Store
	fallback bool
	revision atomic.Uint64
	hub      *hub
}

// New returns a Service using the process default logger.
func New(rt *runtime.Runtime) *Service {
	return NewWithLogger(rt, nil)
}

// NewWithLogger returns a Service using the provided logger.
func NewWithLogger(rt *runtime.Runtime, logger logpkg.Logger) *Service {
	if logger == nil {
		logger = logpkg.GetDefaultLogger()
	}
	logger = logger.With(logpkg.Component("counters"))
	cfg := rt.Config()
	return &Service{
		rt:       rt,
		logger:   logger,
		memory:   memstore.New(),
		fallback: cfg.FallbackToMemory,
		hub:      newHub(cfg.WatchBuffer, logger),
	}
}

// Get returns the current counters. Missing names read as zero.
func (s *Service) Get(ctx context.Context) (Snapshot, error) {
	backend := s.rt.Backend()
	rec, err := backend.Load(ctx)
	if err == nil {
		return Snapshot{Counters: counter.Normalize(rec), Persisted: true, Revision: s.revision.Load()}, nil
	}
	if !s.fallback || callerGone(ctx, err) {
		return Snapshot{}, fmt.Errorf("counters: load: %w", err)
	}
	s.logger.Warn("backend read failed; serving in-memory counters",
		logpkg.Str("location", backend.Location()), logpkg.Err(err))
	mem, _ := s.memory.Load(ctx)
	return Snapshot{Counters: mem, Persisted: false, Revision: s.revision.Load()}, nil
}

// Apply adds delta to the named counter and returns every counter after
// the update. Unknown names fail with counter.ErrUnknownCounter before any
// I/O, and a delta that would overflow fails with counter.ErrOverflow.
// Updates against the same backend location run one at a time in
// submission order.
func (s *Service) Apply(ctx context.Context, name string, delta int64) (Snapshot, error) {
	if !counter.Valid(name) {
		return Snapshot{}, fmt.Errorf("%w: %q", counter.ErrUnknownCounter, name)
	}
	backend := s.rt.Backend()
	return keylock.WithLock(ctx, s.rt.Locks(), backend.Location(), func(ctx context.Context) (Snapshot, error) {
		snap, loaded, err := s.applyBackend(ctx, backend, name, delta)
		if errors.Is(err, counter.ErrOverflow) {
			return Snapshot{}, err
		}
		if err != nil {
			if !s.fallback || callerGone(ctx, err) {
				return Snapshot{}, fmt.Errorf("counters: apply %s: %w", name, err)
			}
			s.logger.Warn("backend write failed; applying to in-memory counters",
				logpkg.Str("location", backend.Location()), logpkg.Str("key", name), logpkg.Err(err))
			if loaded != nil {
				_ = s.memory.Save(ctx, loaded)
			}
			if snap, err = s.applyMemory(ctx, name, delta); err != nil {
				return Snapshot{}, err
			}
		}
		snap.Revision = s.revision.Add(1)
		s.hub.publish(Event{
			Revision:  snap.Revision,
			Key:       name,
			Delta:     delta,
			Counters:  snap.Counters.Clone(),
			Persisted: snap.Persisted,
			AtMs:      time.Now().UnixMilli(),
		})
		return snap, nil
	})
}

// applyBackend returns the record it loaded alongside any later failure, so
// the memory fallback continues from the stored values.
func (s *Service) applyBackend(ctx context.Context, backend counter.Backend, name string, delta int64) (Snapshot, counter.Record, error) {
	rec, err := backend.Load(ctx)
	if err != nil {
		return Snapshot{}, nil, err
	}
	rec = counter.Normalize(rec)
	loaded := rec.Clone()
	if err := rec.Apply(name, delta); err != nil {
		return Snapshot{}, loaded, err
	}
	if err := backend.Save(ctx, rec); err != nil {
		return Snapshot{}, loaded, err
	}
	_ = s.memory.Save(ctx, rec)
	return Snapshot{Counters: rec, Persisted: true}, loaded, nil
}

// callerGone reports whether err comes from the caller's context rather than
// from storage. Such failures never fall back to memory.
func callerGone(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (s *Service) applyMemory(ctx context.Context, name string, delta int64) (Snapshot, error) {
	rec, _ := s.memory.Load(ctx)
	if err := rec.Apply(name, delta); err != nil {
		return Snapshot{}, err
	}
	_ = s.memory.Save(ctx, rec)
	return Snapshot{Counters: rec, Persisted: false}, nil
}

// Watch streams change events to sink until ctx is done or Send fails. An
// invalid filter returns ErrInvalidFilter before anything is registered.
func (s *Service) Watch(ctx context.Context, filter string, sink WatchSink) error {
	f, err := newCELFilter(filter)
	if err != nil {
		return err
	}
	w := s.hub.subscribe()
	defer s.hub.unsubscribe(w)
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-w.ch:
			if !f.Eval(e) {
				continue
			}
			if err := sink.Send(e); err != nil {
				return err
			}
			if err := sink.Flush(); err != nil {
				return err
			}
		}
	}
}

// Watchers reports the number of active watchers.
func (s *Service) Watchers() int { return s.hub.len() }
