package respcache

import "time"

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on request hot paths; wrap slow sinks in hooks/async.
type Hooks interface {
	// A connection to the backend was (re)established. Fired by engines that
	// expose connection events (redis).
	BackendConnected(engine Engine)

	// The startup probe succeeded or failed. A failed probe is not fatal:
	// the cache serves misses until the backend comes back.
	BackendReady(engine Engine)
	BackendUnavailable(engine Engine, err error)

	// A provider call failed. op ∈ {"get", "set", "del", "gen_snapshot", "gen_bump"}.
	BackendError(op, storageKey string, err error)

	CacheHit(storageKey string)
	CacheMiss(storageKey string)

	// A response was persisted; ttl 0 means no expiry.
	EntryStored(storageKey string, ttl time.Duration)
	// Provider returned ok=false on Set (backpressure/eviction).
	EntryRejected(storageKey string)
	// A successful mutation invalidated the key. removed reports whether an
	// entry was actually deleted.
	EntryInvalidated(storageKey string, removed bool)

	// An entry was dropped on read.
	// reason ∈ {"corrupt", "expired", "gen_mismatch", "value_decode"}
	SelfHeal(storageKey, reason string)

	// A policy was applied to a method it does not support.
	MethodMismatch(policy Kind, method string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) BackendConnected(Engine)            {}
func (NopHooks) BackendReady(Engine)                {}
func (NopHooks) BackendUnavailable(Engine, error)   {}
func (NopHooks) BackendError(string, string, error) {}
func (NopHooks) CacheHit(string)                    {}
func (NopHooks) CacheMiss(string)                   {}
func (NopHooks) EntryStored(string, time.Duration)  {}
func (NopHooks) EntryRejected(string)               {}
func (NopHooks) EntryInvalidated(string, bool)      {}
func (NopHooks) SelfHeal(string, string)            {}
func (NopHooks) MethodMismatch(Kind, string)        {}
