// Package jsonfile stores the counter Record as a JSON object in a single
// file, e.g. {"video": 3, "photo": 5}.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BaraaAbuhalima/counter-app/internal/counter"
)

// Store is a file-backed counter.Backend.
type Store struct {
	path string
}

var _ counter.Backend = (*Store)(nil)

// Open resolves path to an absolute location and creates its directory.
// The file itself is created on first Save.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("jsonfile: path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("jsonfile: resolve %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("jsonfile: mkdir: %w", err)
	}
	return &Store{path: abs}, nil
}

// Load reads the Record. A missing file reads as all zeros.
func (s *Store) Load(ctx context.Context) (counter.Record, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return counter.NewRecord(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("jsonfile: read: %w", err)
	}
	var r counter.Record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("jsonfile: decode %s: %w", s.path, err)
	}
	return counter.Normalize(r), nil
}

// Save writes the Record to a temp file in the same directory and renames
// it over the target so readers never see a partial file.
func (s *Store) Save(ctx context.Context, r counter.Record) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonfile: encode: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("jsonfile: create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("jsonfile: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("jsonfile: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("jsonfile: close: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("jsonfile: rename: %w", err)
	}
	return nil
}

// Location returns the absolute file path.
func (s *Store) Location() string { return s.path }

// Ping checks that the directory holding the file is reachable.
func (s *Store) Ping(ctx context.Context) error {
	info, err := os.Stat(filepath.Dir(s.path))
	if err != nil {
		return fmt.Errorf("jsonfile: stat: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("jsonfile: %s is not a directory", filepath.Dir(s.path))
	}
	return nil
}

// Close is a no-op; the file is opened per call.
func (s *Store) Close() error { return nil }
