// Package countersvc implements reads and delta updates of the video/photo
// counters on top of the runtime backend.
//
// Every Apply runs load, apply and save as one operation in the runtime's
// keylock registry, keyed by the backend location, so concurrent updates to
// the same store never interleave. When the backend fails and the memory
// fallback is enabled, the update lands in an in-process record and the
// result is marked as not persisted.
//
// Watchers receive a change Event per successful Apply, optionally filtered
// by a CEL expression over key, delta, counters, persisted and revision.
package countersvc
