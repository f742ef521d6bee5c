package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	cfgpkg "github.com/BaraaAbuhalima/counter-app/internal/config"
	"github.com/BaraaAbuhalima/counter-app/internal/counter"
	"github.com/BaraaAbuhalima/counter-app/internal/keylock"
	"github.com/BaraaAbuhalima/counter-app/internal/storage/jsonfile"
	memstore "github.com/BaraaAbuhalima/counter-app/internal/storage/memory"
	mongostore "github.com/BaraaAbuhalima/counter-app/internal/storage/mongo"
	pebblestore "github.com/BaraaAbuhalima/counter-app/internal/storage/pebble"
	sqlitestore "github.com/BaraaAbuhalima/counter-app/internal/storage/sqlite"
	logpkg "github.com/BaraaAbuhalima/counter-app/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	DataDir       string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
	// Logger receives backend diagnostics. Optional.
	Logger logpkg.Logger
	// Locks overrides the process registry, mainly for tests. Optional.
	Locks *keylock.Registry
}

// Runtime owns the counter backend and the serialized-mutator registry for
// a single process.
type Runtime struct {
	backend counter.Backend
	locks   *keylock.Registry
	config  cfgpkg.Config
}

// Open validates the configuration and opens the selected backend.
func Open(ctx context.Context, opts Options) (*Runtime, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	backend, err := openBackend(ctx, opts)
	if err != nil {
		return nil, err
	}
	locks := opts.Locks
	if locks == nil {
		locks = keylock.New()
	}
	return &Runtime{backend: backend, locks: locks, config: opts.Config}, nil
}

// New wraps an already open backend. Used by tests and embedders.
func New(backend counter.Backend, cfg cfgpkg.Config) *Runtime {
	return &Runtime{backend: backend, locks: keylock.New(), config: cfg}
}

func openBackend(ctx context.Context, opts Options) (counter.Backend, error) {
	cfg := opts.Config
	switch cfg.Store.Backend {
	case cfgpkg.BackendFile:
		return jsonfile.Open(cfg.StorePath(opts.DataDir))
	case cfgpkg.BackendPebble:
		db, err := pebblestore.Open(pebblestore.Options{
			DataDir:       cfg.StorePath(opts.DataDir),
			Fsync:         opts.Fsync,
			FsyncInterval: opts.FsyncInterval,
			Metrics:       pebblestore.PromMetrics{},
			Logger:        opts.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("runtime: open pebble: %w", err)
		}
		return pebblestore.NewCounterStore(db), nil
	case cfgpkg.BackendSQLite:
		return sqlitestore.Open(ctx, cfg.StorePath(opts.DataDir))
	case cfgpkg.BackendMongo:
		return mongostore.Open(ctx, mongostore.Options{
			URI:        cfg.Store.Mongo.URI,
			Database:   cfg.Store.Mongo.Database,
			Collection: cfg.Store.Mongo.Collection,
			DocumentID: cfg.Store.Mongo.DocumentID,
		})
	case cfgpkg.BackendMemory:
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("runtime: unknown backend %q", cfg.Store.Backend)
	}
}

// Close closes the backend.
func (r *Runtime) Close() error {
	if r.backend == nil {
		return nil
	}
	return r.backend.Close()
}

// CheckHealth pings the backend.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.backend == nil {
		return errors.New("backend not open")
	}
	return r.backend.Ping(ctx)
}

// Backend exposes the open counter backend.
func (r *Runtime) Backend() counter.Backend { return r.backend }

// Locks returns the process-scoped registry every mutation goes through.
func (r *Runtime) Locks() *keylock.Registry { return r.locks }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }
