package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BaraaAbuhalima/counter-app/internal/counter"
)

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "counters.db")
	s, err := Open(ctx, path)
	require.NoError(t, err)

	r, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, counter.NewRecord(), r)

	require.NoError(t, s.Save(ctx, counter.Record{counter.Video: 4, counter.Photo: 1}))
	require.NoError(t, s.Save(ctx, counter.Record{counter.Video: 5, counter.Photo: 1}))
	require.NoError(t, s.Close())

	// Reopen to prove the values were persisted.
	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Ping(ctx))

	r, err = s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, counter.Record{counter.Video: 5, counter.Photo: 1}, r)
	require.Equal(t, "sqlite:"+path, s.Location())
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	require.Error(t, err)
}
