// Package runtime opens the configured counter backend and owns the
// serialized-mutator registry shared by every transport in the process.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(ctx, runtime.Options{DataDir: "./data", Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(ctx)
//	_ = rt.Locks().Do(ctx, rt.Backend().Location(), func(ctx context.Context) error { ... })
package runtime
