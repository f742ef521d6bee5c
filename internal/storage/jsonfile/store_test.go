package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/BaraaAbuhalima/counter-app/internal/counter"
)

func TestLoadMissingFileIsZero(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "data", "counter.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	r, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if r[counter.Video] != 0 || r[counter.Photo] != 0 {
		t.Fatalf("got %v", r)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()
	if err := s.Save(ctx, counter.Record{counter.Video: 3, counter.Photo: 5}); err != nil {
		t.Fatalf("save: %v", err)
	}
	r, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if r[counter.Video] != 3 || r[counter.Photo] != 5 {
		t.Fatalf("got %v", r)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "{\n  \"photo\": 5,\n  \"video\": 3\n}"
	if string(b) != want {
		t.Fatalf("file = %q, want %q", b, want)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %d entries", len(entries))
	}
}

func TestLoadFillsMissingNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter.json")
	if err := os.WriteFile(path, []byte(`{"video": 7}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	r, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if r[counter.Video] != 7 {
		t.Fatalf("video = %d", r[counter.Video])
	}
	if _, ok := r[counter.Photo]; !ok {
		t.Fatalf("photo missing")
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter.json")
	if err := os.WriteFile(path, []byte(`not json`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.Load(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestLocationIsAbsolute(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "counter.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !filepath.IsAbs(s.Location()) {
		t.Fatalf("location %q not absolute", s.Location())
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatalf("expected error")
	}
}
