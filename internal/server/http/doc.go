// Package httpserver provides the REST gateway for the counters: GET and
// POST /counter (aliased under /api), an SSE change stream, health and
// Prometheus metrics.
//
// Example:
//
//	rt, _ := runtime.Open(ctx, runtime.Options{DataDir: "./data", Config: config.Default()})
//	s := httpserver.New(rt, nil, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":8080")
package httpserver
