// Package provider defines the storage abstraction used by respcache.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// same []byte that was previously passed to Set for a key (no prepended/appended
// metadata, no re-encoding, no mutation). respcache frames every value itself
// (internal/wire) and treats anything it cannot decode as corruption.
//
// Important: the keyspace "<namespace>:" is owned by respcache. External code
// sharing the same backend MUST NOT write values under that prefix.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs.
// Must be safe for concurrent use. Errors are returned as-is; the cache turns
// them into misses and no-ops, so implementations should not swallow them.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL; ttl <= 0 means no expiry.
	// May ignore cost if unsupported.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key and reports whether it existed.
	Del(ctx context.Context, key string) (bool, error)

	// Close releases resources.
	Close(ctx context.Context) error
}

// Pinger is implemented by providers that can probe their backend.
// The cache calls it once after construction to report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}
