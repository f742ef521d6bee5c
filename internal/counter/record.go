// Package counter defines the counter names, the persisted Record and the
// Backend interface every storage implementation satisfies.
package counter

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Known counter names.
const (
	Video = "video"
	Photo = "photo"
)

// Names lists every counter a Record carries, in display order.
var Names = []string{Video, Photo}

// ErrUnknownCounter is returned when a delta targets a name outside Names.
var ErrUnknownCounter = errors.New("counter: unknown counter name")

// ErrOverflow is returned when a delta would move a counter outside int64.
var ErrOverflow = errors.New("counter: value out of range")

// Valid reports whether name is a known counter.
func Valid(name string) bool {
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}

// Record maps counter names to their values.
type Record map[string]int64

// NewRecord returns a Record with every known counter at zero.
func NewRecord() Record {
	r := make(Record, len(Names))
	for _, n := range Names {
		r[n] = 0
	}
	return r
}

// Normalize returns a copy of r that carries every known counter. Missing
// names read as zero; unknown names are kept as stored.
func Normalize(r Record) Record {
	out := NewRecord()
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Clone returns an independent copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Apply adds delta to the named counter. The record is left unchanged when
// the sum would overflow.
func (r Record) Apply(name string, delta int64) error {
	if !Valid(name) {
		return fmt.Errorf("%w: %q", ErrUnknownCounter, name)
	}
	cur := r[name]
	if (delta > 0 && cur > math.MaxInt64-delta) || (delta < 0 && cur < math.MinInt64-delta) {
		return fmt.Errorf("%w: %s %d%+d", ErrOverflow, name, cur, delta)
	}
	r[name] = cur + delta
	return nil
}

// Backend persists a single Record.
//
// Load and Save are not safe to interleave for the same location; callers
// serialize them with a keylock.Registry keyed by Location.
type Backend interface {
	Load(ctx context.Context) (Record, error)
	Save(ctx context.Context, r Record) error
	// Location identifies the storage the Record lives in, e.g. a file path.
	Location() string
	Ping(ctx context.Context) error
	Close() error
}
