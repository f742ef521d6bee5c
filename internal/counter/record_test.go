package counter

import (
	"errors"
	"math"
	"testing"
)

func TestNewRecordHasAllNames(t *testing.T) {
	r := NewRecord()
	if len(r) != len(Names) {
		t.Fatalf("len = %d, want %d", len(r), len(Names))
	}
	for _, n := range Names {
		if v, ok := r[n]; !ok || v != 0 {
			t.Fatalf("%s = %d (present %v)", n, v, ok)
		}
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		deltas  []int64
		want    int64
		wantErr bool
	}{
		{name: "increment", key: Video, deltas: []int64{1, 1, 1}, want: 3},
		{name: "decrement below zero", key: Photo, deltas: []int64{-2}, want: -2},
		{name: "mixed", key: Photo, deltas: []int64{5, -3}, want: 2},
		{name: "unknown", key: "audio", deltas: []int64{1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRecord()
			var err error
			for _, d := range tt.deltas {
				if err = r.Apply(tt.key, d); err != nil {
					break
				}
			}
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownCounter) {
					t.Fatalf("err = %v, want ErrUnknownCounter", err)
				}
				if _, ok := r[tt.key]; ok {
					t.Fatalf("unknown key was written")
				}
				return
			}
			if err != nil {
				t.Fatalf("apply: %v", err)
			}
			if r[tt.key] != tt.want {
				t.Fatalf("%s = %d, want %d", tt.key, r[tt.key], tt.want)
			}
		})
	}
}

func TestNormalizeFillsMissing(t *testing.T) {
	r := Normalize(Record{Video: 4})
	if r[Video] != 4 || r[Photo] != 0 {
		t.Fatalf("got %v", r)
	}
	if _, ok := r[Photo]; !ok {
		t.Fatalf("photo missing")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	a := NewRecord()
	b := a.Clone()
	_ = b.Apply(Video, 1)
	if a[Video] != 0 {
		t.Fatalf("clone shares storage")
	}
}

func TestApplyRejectsOverflow(t *testing.T) {
	r := Record{Video: math.MaxInt64 - 1, Photo: math.MinInt64 + 1}
	if err := r.Apply(Video, 1); err != nil {
		t.Fatalf("apply to max: %v", err)
	}
	if err := r.Apply(Video, 1); !errors.Is(err, ErrOverflow) {
		t.Fatalf("err = %v, want ErrOverflow", err)
	}
	if r[Video] != math.MaxInt64 {
		t.Fatalf("video changed on overflow: %d", r[Video])
	}
	if err := r.Apply(Photo, -2); !errors.Is(err, ErrOverflow) {
		t.Fatalf("err = %v, want ErrOverflow", err)
	}
	if r[Photo] != math.MinInt64+1 {
		t.Fatalf("photo changed on overflow: %d", r[Photo])
	}
	if err := r.Apply(Photo, math.MaxInt64); err != nil {
		t.Fatalf("large opposite delta: %v", err)
	}
}
