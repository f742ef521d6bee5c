package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendPebble = "pebble"
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	Store StoreConfig `json:"store" yaml:"store"`
	// FallbackToMemory serves and applies deltas from memory when the
	// backend fails instead of returning an error.
	FallbackToMemory bool `json:"fallbackToMemory" yaml:"fallbackToMemory"`
	// WatchBuffer is the per-watcher event queue length.
	WatchBuffer    int      `json:"watchBuffer" yaml:"watchBuffer"`
	AllowedOrigins []string `json:"allowedOrigins" yaml:"allowedOrigins"`
}

// StoreConfig selects and locates the counter backend.
type StoreConfig struct {
	Backend string `json:"backend" yaml:"backend"`
	// Path is the file, SQLite database or Pebble directory. Relative paths
	// resolve against the data directory; empty picks a per-backend default.
	Path  string      `json:"path" yaml:"path"`
	Mongo MongoConfig `json:"mongo" yaml:"mongo"`
}

// MongoConfig locates the counters document.
type MongoConfig struct {
	URI        string `json:"uri" yaml:"uri"`
	Database   string `json:"database" yaml:"database"`
	Collection string `json:"collection" yaml:"collection"`
	DocumentID string `json:"documentId" yaml:"documentId"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Backend: BackendFile,
		},
		FallbackToMemory: true,
		WatchBuffer:      64,
		AllowedOrigins:   []string{"*"},
	}
}

// Validate reports configuration that cannot start a runtime.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendFile, BackendPebble, BackendSQLite, BackendMemory:
	case BackendMongo:
		if c.Store.Mongo.URI == "" {
			return fmt.Errorf("config: store backend %q requires a URI (MONGODB_URI)", BackendMongo)
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	if c.WatchBuffer < 0 {
		return fmt.Errorf("config: watchBuffer must be >= 0")
	}
	return nil
}

// StorePath resolves the backend path against dataDir.
func (c Config) StorePath(dataDir string) string {
	p := c.Store.Path
	if p == "" {
		switch c.Store.Backend {
		case BackendPebble:
			p = "pebble"
		case BackendSQLite:
			p = "counters.db"
		default:
			p = "counter.json"
		}
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dataDir, p)
}

// Load reads configuration from a JSON or YAML file (by extension). If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return cfg, nil
}
