package pebblestore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/BaraaAbuhalima/counter-app/internal/counter"
)

var counterPrefix = []byte("counter/")

// counterKey builds the key for a counter name: counter/<name>.
func counterKey(name string) []byte {
	k := make([]byte, 0, len(counterPrefix)+len(name))
	k = append(k, counterPrefix...)
	k = append(k, name...)
	return k
}

// prefixUpperBound returns the smallest key greater than every key with prefix.
func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

// CounterStore persists a counter.Record as one 8-byte big-endian value per
// counter name.
type CounterStore struct {
	db *DB
}

var _ counter.Backend = (*CounterStore)(nil)

// NewCounterStore wraps an open DB. Closing the store closes the DB.
func NewCounterStore(db *DB) *CounterStore {
	return &CounterStore{db: db}
}

// Load scans the counter/ prefix.
func (s *CounterStore) Load(ctx context.Context) (counter.Record, error) {
	start := time.Now()
	it, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: counterPrefix,
		UpperBound: prefixUpperBound(counterPrefix),
	})
	if err != nil {
		return nil, fmt.Errorf("pebble: iter: %w", err)
	}
	defer it.Close()

	rec := counter.NewRecord()
	size := 0
	for it.First(); it.Valid(); it.Next() {
		name := string(it.Key()[len(counterPrefix):])
		v := it.Value()
		if len(v) != 8 {
			return nil, fmt.Errorf("pebble: counter %q has %d-byte value", name, len(v))
		}
		rec[name] = int64(binary.BigEndian.Uint64(v))
		size += len(it.Key()) + len(v)
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("pebble: iter: %w", err)
	}
	s.db.metrics.ObserveRead(time.Since(start), size)
	return rec, nil
}

// Save writes every counter in a single batch.
func (s *CounterStore) Save(ctx context.Context, r counter.Record) error {
	start := time.Now()
	b := s.db.NewBatch()
	defer b.Close()
	size := 0
	for name, v := range r {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(v))
		key := counterKey(name)
		if err := b.Set(key, buf[:], nil); err != nil {
			return fmt.Errorf("pebble: batch set: %w", err)
		}
		size += len(key) + len(buf)
	}
	if err := s.db.CommitBatch(ctx, b); err != nil {
		return fmt.Errorf("pebble: commit: %w", err)
	}
	s.db.metrics.ObserveWrite(time.Since(start), size)
	return nil
}

// Location returns the database directory.
func (s *CounterStore) Location() string { return "pebble:" + s.db.Dir() }

// Ping opens and closes an iterator.
func (s *CounterStore) Ping(ctx context.Context) error {
	if s.db == nil || s.db.inner == nil {
		return errors.New("pebble: db not open")
	}
	it, err := s.db.NewIter(nil)
	if err != nil {
		return err
	}
	return it.Close()
}

// Close closes the underlying DB.
func (s *CounterStore) Close() error { return s.db.Close() }
