package serverrun

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	cfgpkg "github.com/BaraaAbuhalima/counter-app/internal/config"
	pebblestore "github.com/BaraaAbuhalima/counter-app/internal/storage/pebble"
)

func TestGetenvDefault(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		def      string
		envValue string
		expected string
	}{
		{
			name:     "environment variable set",
			key:      "COUNTER_TEST_VAR",
			def:      "default",
			envValue: "env_value",
			expected: "env_value",
		},
		{
			name:     "environment variable empty",
			key:      "COUNTER_TEST_VAR_EMPTY",
			def:      "default",
			envValue: "",
			expected: "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.envValue)
			if result := getenvDefault(tt.key, tt.def); result != tt.expected {
				t.Errorf("getenvDefault(%s, %s) = %s, expected %s", tt.key, tt.def, result, tt.expected)
			}
		})
	}
}

func TestNewProcessLoggerFallsBackOnBadFormat(t *testing.T) {
	t.Setenv("COUNTER_LOG_LEVEL", "debug")
	t.Setenv("COUNTER_LOG_FORMAT", "xml")
	l, cfg := newProcessLogger()
	if l == nil {
		t.Fatal("expected a logger")
	}
	if cfg.Level != "debug" || cfg.Format != "xml" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if l.GetLevel().String() != "DEBUG" {
		t.Fatalf("level = %v", l.GetLevel())
	}
}

func TestNewProcessLoggerFileOutputAndSampling(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter.log")
	t.Setenv("COUNTER_LOG_LEVEL", "info")
	t.Setenv("COUNTER_LOG_FORMAT", "text")
	t.Setenv("COUNTER_LOG_OUTPUT", "file")
	t.Setenv("COUNTER_LOG_FILE", path)
	t.Setenv("COUNTER_LOG_SAMPLE", "1, 100")
	l, cfg := newProcessLogger()
	if cfg.Output != "file" || cfg.File != path {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.SampleInitial != 1 || cfg.SampleThereafter != 100 {
		t.Fatalf("sampling = %d,%d", cfg.SampleInitial, cfg.SampleThereafter)
	}
	for i := 0; i < 5; i++ {
		l.Info("backend write failed")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	// the first message, then every 100th after it
	if n := strings.Count(string(data), "backend write failed"); n != 2 {
		t.Fatalf("want 2 sampled lines, got %d: %q", n, data)
	}
}

func TestNewProcessLoggerFileWithoutPathFallsBack(t *testing.T) {
	t.Setenv("COUNTER_LOG_OUTPUT", "file")
	t.Setenv("COUNTER_LOG_FILE", "")
	if l, _ := newProcessLogger(); l == nil {
		t.Fatal("expected fallback logger")
	}
}

func TestDefaultDataDirIntegration(t *testing.T) {
	dir := cfgpkg.DefaultDataDir()
	if dir == "" {
		t.Fatal("DataDir should not be empty after fallback")
	}
	if !filepath.IsAbs(dir) && !strings.HasPrefix(dir, "./") {
		t.Errorf("DataDir should be absolute or start with ./, got %s", dir)
	}
}

// TestRunIntegration verifies Run starts and stops cleanly on cancellation.
func TestRunIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	t.Setenv("COUNTER_LOG_LEVEL", "error")
	cfg := cfgpkg.Default()
	cfg.Store.Backend = cfgpkg.BackendPebble

	opts := Options{
		DataDir:       t.TempDir(),
		GRPCAddr:      "127.0.0.1:0",
		HTTPAddr:      "127.0.0.1:0",
		Fsync:         pebblestore.FsyncModeNever,
		FsyncInterval: time.Millisecond,
		Config:        cfg,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := Run(ctx, opts); err != nil {
		t.Errorf("Run: %v", err)
	}
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return addr
}

func TestRunServesCounter(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	t.Setenv("COUNTER_LOG_LEVEL", "error")
	httpAddr := freeAddr(t)
	opts := Options{DataDir: t.TempDir(), HTTPAddr: httpAddr, Config: cfgpkg.Default()}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, opts) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run: %v", err)
		}
	}()

	var resp *http.Response
	deadline := time.Now().Add(3 * time.Second)
	for {
		var err error
		resp, err = http.Post("http://"+httpAddr+"/counter", "application/json", strings.NewReader(`{"key":"video","delta":2}`))
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never came up: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["video"] != float64(2) {
		t.Fatalf("body = %v", body)
	}
}

func TestRunFailsOnInvalidConfig(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.Store.Backend = "redis"
	t.Setenv("COUNTER_LOG_LEVEL", "error")
	if err := Run(context.Background(), Options{DataDir: t.TempDir(), HTTPAddr: "127.0.0.1:0", Config: cfg}); err == nil {
		t.Fatal("expected error")
	}
}
