// Package pebblestore provides a thin wrapper around Pebble with fsync policy,
// batches and minimal metrics hooks, plus a counter.Backend that keeps one
// key per counter.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data/pebble",
//	    Fsync:   pebblestore.FsyncModeInterval,
//	    Metrics: pebblestore.PromMetrics{},
//	})
//	if err != nil { /* handle */ }
//	store := pebblestore.NewCounterStore(db)
//	defer store.Close()
//
//	rec, _ := store.Load(ctx)
//	_ = rec.Apply("video", 1)
//	_ = store.Save(ctx, rec)
package pebblestore
