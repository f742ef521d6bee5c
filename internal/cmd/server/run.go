package serverrun

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	cfgpkg "github.com/BaraaAbuhalima/counter-app/internal/config"
	"github.com/BaraaAbuhalima/counter-app/internal/runtime"
	grpcserver "github.com/BaraaAbuhalima/counter-app/internal/server/grpc"
	httpserver "github.com/BaraaAbuhalima/counter-app/internal/server/http"
	countersvc "github.com/BaraaAbuhalima/counter-app/internal/services/counters"
	pebblestore "github.com/BaraaAbuhalima/counter-app/internal/storage/pebble"
	logpkg "github.com/BaraaAbuhalima/counter-app/pkg/log"
)

func getenvDefault(key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

// small wrapper to allow testing
var getenv = func(key string) string { return os.Getenv(key) }

type Options struct {
	DataDir string
	// GRPCAddr may be empty to run HTTP only.
	GRPCAddr      string
	HTTPAddr      string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
}

// newProcessLogger builds the process-wide logger from COUNTER_LOG_LEVEL,
// COUNTER_LOG_FORMAT, COUNTER_LOG_OUTPUT (console|file|null),
// COUNTER_LOG_FILE and COUNTER_LOG_SAMPLE ("initial,thereafter");
// defaults: level=info, format=text, output=console, no sampling.
func newProcessLogger() (logpkg.Logger, *logpkg.Config) {
	cfg := &logpkg.Config{
		Level:  getenvDefault("COUNTER_LOG_LEVEL", "info"),
		Format: getenvDefault("COUNTER_LOG_FORMAT", "text"),
		Output: getenvDefault("COUNTER_LOG_OUTPUT", "console"),
		File:   getenv("COUNTER_LOG_FILE"),
		Redact: []string{"mongo_uri"},
	}
	if first, rest, ok := strings.Cut(getenv("COUNTER_LOG_SAMPLE"), ","); ok {
		initial, err1 := strconv.Atoi(strings.TrimSpace(first))
		thereafter, err2 := strconv.Atoi(strings.TrimSpace(rest))
		if err1 == nil && err2 == nil {
			cfg.SampleInitial, cfg.SampleThereafter = initial, thereafter
		}
	}
	l, err := logpkg.ApplyConfig(cfg)
	if err != nil {
		lvl := logpkg.InfoLevel
		if parsed, e := logpkg.ParseLevel(cfg.Level); e == nil {
			lvl = parsed
		}
		l = logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}))
	}
	return l, cfg
}

// Run starts the HTTP and gRPC servers and blocks until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.DataDir == "" {
		opts.DataDir = cfgpkg.DefaultDataDir()
	}

	procLogger, logCfg := newProcessLogger()
	restore := logpkg.RedirectStdLog(procLogger)
	defer restore()
	logpkg.SetDefaultLogger(procLogger)

	rt, err := runtime.Open(sctx, runtime.Options{
		DataDir:       opts.DataDir,
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
		Config:        opts.Config,
		Logger:        procLogger,
	})
	if err != nil {
		procLogger.Error("open runtime failed", logpkg.Str("backend", opts.Config.Store.Backend), logpkg.Err(err))
		return err
	}
	defer rt.Close()

	procLogger.Info("Starting counter server",
		logpkg.Str("grpc", opts.GRPCAddr),
		logpkg.Str("http", opts.HTTPAddr),
		logpkg.Str("backend", opts.Config.Store.Backend),
		logpkg.Str("location", rt.Backend().Location()),
		logpkg.Bool("fallback_to_memory", opts.Config.FallbackToMemory),
		logpkg.Str("level", logCfg.Level),
		logpkg.Str("format", logCfg.Format),
		logpkg.Str("output", logCfg.Output),
	)

	// one service for both transports so watchers see every apply
	svc := countersvc.NewWithLogger(rt, procLogger)
	hsrv := httpserver.New(rt, svc, procLogger)

	var wg sync.WaitGroup
	errCh := make(chan error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := hsrv.ListenAndServe(sctx, opts.HTTPAddr); err != nil && sctx.Err() == nil {
			procLogger.Error("http server failed", logpkg.Err(err))
			errCh <- err
		}
	}()

	var gsrv *grpcserver.Server
	if opts.GRPCAddr != "" {
		gsrv = grpcserver.New(rt, svc, procLogger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := gsrv.ListenAndServe(sctx, opts.GRPCAddr); err != nil && sctx.Err() == nil {
				procLogger.Error("grpc server failed", logpkg.Err(err))
				errCh <- err
			}
		}()
	}

	var runErr error
	select {
	case <-sctx.Done():
	case runErr = <-errCh:
		stop()
	}
	// stop servers before closing the backend
	if gsrv != nil {
		gsrv.Close()
	}
	hsrv.Close()
	wg.Wait()
	procLogger.Info("counter server stopped")
	return runErr
}
