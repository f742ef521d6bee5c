// Package config provides loading and environment overlay for the counter
// service configuration. It exposes a Default() baseline, JSON/YAML file
// loading and a COUNTER_* environment overlay.
//
// Example:
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/counter-app.yaml"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil { /* handle */ }
//	rt, _ := runtime.Open(ctx, runtime.Options{DataDir: "/var/lib/counter-app", Config: cfg})
//	defer rt.Close()
package config
