package config

import (
	"os"
	"strconv"
	"strings"
)

// FromEnv overlays COUNTER_* and MONGODB_* environment variables onto cfg.
// Setting MONGODB_URI without COUNTER_STORE_BACKEND selects the mongo backend.
func FromEnv(cfg *Config) {
	if v := os.Getenv("COUNTER_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = strings.ToLower(v)
	} else if os.Getenv("MONGODB_URI") != "" {
		cfg.Store.Backend = BackendMongo
	}
	if v := os.Getenv("COUNTER_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("MONGODB_URI"); v != "" {
		cfg.Store.Mongo.URI = v
	}
	if v := os.Getenv("MONGODB_DB"); v != "" {
		cfg.Store.Mongo.Database = v
	}
	if v := os.Getenv("COUNTER_MONGODB_COLLECTION"); v != "" {
		cfg.Store.Mongo.Collection = v
	}
	if v := os.Getenv("COUNTER_MONGODB_DOCUMENT_ID"); v != "" {
		cfg.Store.Mongo.DocumentID = v
	}
	if v := os.Getenv("COUNTER_FALLBACK_TO_MEMORY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.FallbackToMemory = b
		}
	}
	if v := os.Getenv("COUNTER_WATCH_BUF"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WatchBuffer = n
		}
	}
	if v := os.Getenv("COUNTER_ALLOWED_ORIGINS"); v != "" {
		parts := strings.Split(v, ",")
		cfg.AllowedOrigins = nil
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, p)
			}
		}
	}
}
