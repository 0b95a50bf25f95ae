// Package genstore keeps a generation counter per cache key.
//
// respcache bumps a key's generation whenever a mutation invalidates it. A read
// policy snapshots the generation before running the downstream handler and
// only stores the response if the generation is unchanged afterwards, so a
// slow read that raced an invalidation cannot write its stale body back.
package genstore

import (
	"context"
	"time"
)

// GenStore abstracts where generations live.
// Use Local for a single process, or Redis when several replicas share a backend.
type GenStore interface {
	// Snapshot returns the current generation; missing => 0.
	Snapshot(ctx context.Context, storageKey string) (uint64, error)
	// Bump atomically increments and returns the new generation.
	Bump(ctx context.Context, storageKey string) (uint64, error)
	// Cleanup prunes old metadata if applicable (no-op for Redis).
	Cleanup(retention time.Duration)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}
