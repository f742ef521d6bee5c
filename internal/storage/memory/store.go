// Package memstore keeps the counter Record in process memory. It serves as
// a standalone backend for development and as the fallback when the
// configured backend fails.
package memstore

import (
	"context"
	"sync"

	"github.com/BaraaAbuhalima/counter-app/internal/counter"
)

// Location is the keylock key used for the in-memory record.
const Location = "memory"

type Store struct {
	mu  sync.Mutex
	rec counter.Record
}

var _ counter.Backend = (*Store)(nil)

func New() *Store {
	return &Store{rec: counter.NewRecord()}
}

func (s *Store) Load(ctx context.Context) (counter.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Clone(), nil
}

func (s *Store) Save(ctx context.Context, r counter.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = counter.Normalize(r)
	return nil
}

func (s *Store) Location() string               { return Location }
func (s *Store) Ping(ctx context.Context) error { return nil }
func (s *Store) Close() error                   { return nil }
