// Package keylock serializes read-modify-write operations that share a key.
//
// A Registry keeps one pending chain per key. Each submitted operation waits
// for the previously submitted operation under the same key to settle, runs,
// and then releases the next one. Operations under different keys never wait
// on each other. A failing operation does not break the chain; its error is
// returned only to its own caller.
//
// Example:
//
//	reg := keylock.New()
//	rec, err := keylock.WithLock(ctx, reg, "/var/lib/counter/counter.json", func(ctx context.Context) (counter.Record, error) {
//	    rec, err := backend.Load(ctx)
//	    if err != nil {
//	        return nil, err
//	    }
//	    if err := rec.Apply("video", 1); err != nil {
//	        return nil, err
//	    }
//	    return rec, backend.Save(ctx, rec)
//	})
//
// Scheduling cannot be cancelled: once submitted, an operation always runs.
// The context is handed to the operation untouched so it can bound its own
// I/O.
package keylock
