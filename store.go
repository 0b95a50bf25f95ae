package respcache

import (
	"context"
	"errors"
	"time"

	"github.com/unkn0wn-root/respcache/codec"
	"github.com/unkn0wn-root/respcache/genstore"
	"github.com/unkn0wn-root/respcache/internal/wire"
	"github.com/unkn0wn-root/respcache/provider"
)

// store is the boundary between policies and the provider. Nothing it does
// fails a request: provider errors become misses on get and no-ops on set/del.
type store struct {
	p       provider.Provider
	codec   codec.Codec[Entry]
	gen     genstore.GenStore // nil => generations are not tracked
	log     Logger
	hooks   Hooks
	timeout time.Duration
	cost    SetCostFunc
	now     func() time.Time
}

// opCtx detaches from request cancellation so a client hanging up does not
// abort a persist or invalidation halfway.
func (s *store) opCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(parent), s.timeout)
}

func (s *store) fail(op, key string, err error) {
	be := &BackendError{Op: op, Key: key, Err: err}
	if errors.Is(err, context.DeadlineExceeded) {
		s.log.Warn("backend timeout", Fields{"op": op, "key": key, "timeout": s.timeout})
	} else {
		s.log.Warn(be.Error(), Fields{"op": op, "key": key, "err": err})
	}
	s.hooks.BackendError(op, key, be)
}

// get returns the entry stored under key if it is present, decodable,
// unexpired and of the current generation, and reports the lookup to hooks as
// a hit or miss. Anything else reads as a miss; bad frames are removed on the
// way.
func (s *store) get(ctx context.Context, key string) (Entry, bool) {
	e, ok := s.lookup(ctx, key)
	if ok {
		s.hooks.CacheHit(key)
	} else {
		s.hooks.CacheMiss(key)
	}
	return e, ok
}

// lookup is get without hit/miss reporting. Mutations use it to check for an
// entry before they decide to capture.
func (s *store) lookup(ctx context.Context, key string) (Entry, bool) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	raw, ok, err := s.p.Get(ctx, key)
	if err != nil {
		s.fail("get", key, err)
		return Entry{}, false
	}
	if !ok {
		return Entry{}, false
	}

	f, err := wire.Decode(raw)
	if err != nil {
		s.heal(ctx, key, "corrupt")
		return Entry{}, false
	}
	if f.Expired(s.now().UnixNano()) {
		s.heal(ctx, key, "expired")
		return Entry{}, false
	}
	if s.gen != nil && f.Gen != s.snapshot(ctx, key) {
		s.heal(ctx, key, "gen_mismatch")
		return Entry{}, false
	}
	e, err := s.codec.Decode(f.Payload)
	if err != nil {
		s.heal(ctx, key, "value_decode")
		return Entry{}, false
	}
	return e, true
}

func (s *store) heal(ctx context.Context, key, reason string) {
	if _, err := s.p.Del(ctx, key); err != nil {
		s.fail("del", key, err)
	}
	s.log.Debug("dropped stored entry", Fields{"key": key, "reason": reason})
	s.hooks.SelfHeal(key, reason)
}

// set persists e under key. observedGen is the generation snapshotted before
// the response was produced; if an invalidation bumped it since, the write is
// skipped.
func (s *store) set(ctx context.Context, key string, e Entry, ttl time.Duration, observedGen uint64) bool {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if s.gen != nil && s.snapshot(ctx, key) != observedGen {
		s.log.Debug("store skipped (gen moved)", Fields{"key": key, "obs": observedGen})
		return false
	}
	payload, err := s.codec.Encode(e)
	if err != nil {
		s.log.Error("entry encode failed", Fields{"key": key, "err": err})
		return false
	}
	f := wire.Frame{Gen: observedGen, Payload: payload}
	if ttl > 0 {
		f.ExpiresAt = s.now().Add(ttl).UnixNano()
	}
	frame := wire.Encode(f)

	ok, err := s.p.Set(ctx, key, frame, s.cost(key, frame), ttl)
	if err != nil {
		s.fail("set", key, err)
		return false
	}
	if !ok {
		s.log.Debug("store rejected by provider (pressure)", Fields{"key": key})
		s.hooks.EntryRejected(key)
		return false
	}
	s.hooks.EntryStored(key, ttl)
	return true
}

// del invalidates key and reports whether an entry was removed. With a
// generation store the generation is bumped first so in-flight reads that
// snapshotted the old one cannot write back.
func (s *store) del(ctx context.Context, key string) bool {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if s.gen != nil {
		if _, err := s.gen.Bump(ctx, key); err != nil {
			s.fail("gen_bump", key, err)
		}
	}
	removed, err := s.p.Del(ctx, key)
	if err != nil {
		s.fail("del", key, err)
		return false
	}
	return removed
}

// snapshot returns the current generation of key, or 0 without a generation
// store. On error it returns 0 as well.
func (s *store) snapshot(ctx context.Context, key string) uint64 {
	if s.gen == nil {
		return 0
	}
	g, err := s.gen.Snapshot(ctx, key)
	if err != nil {
		s.fail("gen_snapshot", key, err)
		return 0
	}
	return g
}

func defaultSetCost(_ string, frame []byte) int64 { return int64(len(frame)) }

// generation snapshots key with its own deadline, for use before downstream runs.
func (s *store) generation(ctx context.Context, key string) uint64 {
	if s.gen == nil {
		return 0
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	return s.snapshot(ctx, key)
}
