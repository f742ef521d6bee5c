package httpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	cfgpkg "github.com/BaraaAbuhalima/counter-app/internal/config"
	"github.com/BaraaAbuhalima/counter-app/internal/counter"
	"github.com/BaraaAbuhalima/counter-app/internal/runtime"
	countersvc "github.com/BaraaAbuhalima/counter-app/internal/services/counters"
	logpkg "github.com/BaraaAbuhalima/counter-app/pkg/log"
)

func newTestServer(t *testing.T, mutate func(*cfgpkg.Config)) (*Server, *runtime.Runtime) {
	t.Helper()
	cfg := cfgpkg.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	rt, err := runtime.Open(context.Background(), runtime.Options{DataDir: t.TempDir(), Config: cfg})
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	logger, _ := logpkg.ApplyConfig(&logpkg.Config{Level: "error", Format: "text", Output: "null"})
	return New(rt, nil, logger), rt
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func TestHealthHandler(t *testing.T) {
	s, _ := newTestServer(t, nil)
	w := do(t, s, http.MethodGet, "/healthz", "")
	if w.Code != 200 {
		t.Fatalf("status: %d", w.Code)
	}
	if got := decode(t, w); got["status"] != "ok" {
		t.Fatalf("body: %v", got)
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatalf("missing request id")
	}
}

func TestGetCounterFresh(t *testing.T) {
	s, _ := newTestServer(t, nil)
	w := do(t, s, http.MethodGet, "/counter", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	got := decode(t, w)
	if got["video"] != float64(0) || got["photo"] != float64(0) {
		t.Fatalf("body: %v", got)
	}
	if _, ok := got["_persisted"]; ok {
		t.Fatalf("persisted flag on a persisted read: %v", got)
	}
}

func TestPostCounter(t *testing.T) {
	s, _ := newTestServer(t, nil)
	w := do(t, s, http.MethodPost, "/counter", `{"key":"video","delta":3}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d body %s", w.Code, w.Body.String())
	}
	got := decode(t, w)
	if got["video"] != float64(3) || got["photo"] != float64(0) {
		t.Fatalf("body: %v", got)
	}

	w = do(t, s, http.MethodPost, "/api/counter", `{"key":"photo","delta":-1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("alias status: %d", w.Code)
	}
	if got := decode(t, do(t, s, http.MethodGet, "/api/counter", "")); got["video"] != float64(3) || got["photo"] != float64(-1) {
		t.Fatalf("after alias: %v", got)
	}
}

func TestPostCounterErrors(t *testing.T) {
	s, _ := newTestServer(t, nil)
	tests := []struct {
		name   string
		method string
		body   string
		status int
		errMsg string
	}{
		{name: "unknown key", method: http.MethodPost, body: `{"key":"audio","delta":1}`, status: http.StatusBadRequest, errMsg: "Invalid key"},
		{name: "missing key", method: http.MethodPost, body: `{"delta":1}`, status: http.StatusBadRequest, errMsg: "Invalid key"},
		{name: "bad json", method: http.MethodPost, body: `{"key":`, status: http.StatusBadRequest, errMsg: "Invalid request body"},
		{name: "fractional delta", method: http.MethodPost, body: `{"key":"video","delta":1.5}`, status: http.StatusBadRequest, errMsg: "Invalid request body"},
		{name: "put", method: http.MethodPut, body: `{"key":"video","delta":1}`, status: http.StatusMethodNotAllowed, errMsg: "Method not allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, tt.method, "/counter", tt.body)
			if w.Code != tt.status {
				t.Fatalf("status: %d", w.Code)
			}
			if got := decode(t, w); got["error"] != tt.errMsg {
				t.Fatalf("body: %v", got)
			}
		})
	}
	if got := decode(t, do(t, s, http.MethodGet, "/counter", "")); got["video"] != float64(0) {
		t.Fatalf("rejected requests changed state: %v", got)
	}
}

func TestPostCounterOverflow(t *testing.T) {
	s, _ := newTestServer(t, nil)
	if w := do(t, s, http.MethodPost, "/counter", `{"key":"video","delta":9223372036854775807}`); w.Code != http.StatusOK {
		t.Fatalf("max delta status: %d", w.Code)
	}
	w := do(t, s, http.MethodPost, "/counter", `{"key":"video","delta":1}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("overflow status: %d", w.Code)
	}
	if got := decode(t, w); got["error"] != "Invalid delta" {
		t.Fatalf("body: %v", got)
	}
}

func TestConcurrentPostsAreSerialized(t *testing.T) {
	s, _ := newTestServer(t, nil)
	const n = 30
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := do(t, s, http.MethodPost, "/counter", `{"key":"photo","delta":1}`)
			if w.Code != http.StatusOK {
				t.Errorf("status: %d", w.Code)
			}
		}()
	}
	wg.Wait()
	if got := decode(t, do(t, s, http.MethodGet, "/counter", "")); got["photo"] != float64(n) {
		t.Fatalf("photo = %v, want %d", got["photo"], n)
	}
}

type brokenBackend struct{}

func (brokenBackend) Load(context.Context) (counter.Record, error) { return nil, context.DeadlineExceeded }
func (brokenBackend) Save(context.Context, counter.Record) error   { return context.DeadlineExceeded }
func (brokenBackend) Location() string                             { return "broken" }
func (brokenBackend) Ping(context.Context) error                   { return context.DeadlineExceeded }
func (brokenBackend) Close() error                                 { return nil }

func newBrokenServer(t *testing.T, fallback bool) *Server {
	t.Helper()
	cfg := cfgpkg.Default()
	cfg.FallbackToMemory = fallback
	rt := runtime.New(brokenBackend{}, cfg)
	logger, _ := logpkg.ApplyConfig(&logpkg.Config{Level: "error", Output: "null"})
	return New(rt, nil, logger)
}

func TestFallbackMarksNotPersisted(t *testing.T) {
	s := newBrokenServer(t, true)
	w := do(t, s, http.MethodPost, "/counter", `{"key":"video","delta":2}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	got := decode(t, w)
	if got["video"] != float64(2) || got["_persisted"] != false {
		t.Fatalf("body: %v", got)
	}
	if w := do(t, s, http.MethodGet, "/healthz", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("health status: %d", w.Code)
	}
}

func TestBackendFailureWithoutFallback(t *testing.T) {
	s := newBrokenServer(t, false)
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		w := do(t, s, method, "/counter", `{"key":"video","delta":2}`)
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("%s status: %d", method, w.Code)
		}
		if got := decode(t, w); got["error"] != "Internal server error" {
			t.Fatalf("%s body: %v", method, got)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t, func(c *cfgpkg.Config) { c.AllowedOrigins = []string{"https://app.example"} })
	req := httptest.NewRequest(http.MethodOptions, "/counter", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Fatalf("allow origin: %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)
	_ = do(t, s, http.MethodPost, "/counter", `{"key":"video","delta":1}`)
	w := do(t, s, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "counter_keylock_operations_total") {
		t.Fatalf("keylock metrics missing")
	}
}

func TestWatchInvalidFilter(t *testing.T) {
	s, _ := newTestServer(t, nil)
	w := do(t, s, http.MethodGet, "/counter/watch?filter="+`key%20%2B`, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestWatchSSE(t *testing.T) {
	cfg := cfgpkg.Default()
	rt, err := runtime.Open(context.Background(), runtime.Options{DataDir: t.TempDir(), Config: cfg})
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	defer rt.Close()
	logger, _ := logpkg.ApplyConfig(&logpkg.Config{Level: "error", Output: "null"})
	svc := countersvc.NewWithLogger(rt, logger)
	s := New(rt, svc, logger)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/counter/watch?filter="+`key%3D%3D%22photo%22`, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type: %q", ct)
	}

	deadline := time.Now().Add(2 * time.Second)
	for svc.Watchers() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("watcher not registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if _, err := svc.Apply(ctx, counter.Video, 1); err != nil {
		t.Fatalf("apply video: %v", err)
	}
	if _, err := svc.Apply(ctx, counter.Photo, 2); err != nil {
		t.Fatalf("apply photo: %v", err)
	}

	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var e countersvc.Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &e); err != nil {
			t.Fatalf("event: %v", err)
		}
		if e.Key != counter.Photo || e.Delta != 2 || e.Revision != 2 {
			t.Fatalf("event: %+v", e)
		}
		return
	}
	t.Fatalf("stream ended: %v", sc.Err())
}
