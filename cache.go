package respcache

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache-Status values (RFC 9211) set by read policies.
const (
	cacheStatusHit  = "respcache; hit"
	cacheStatusMiss = "respcache; fwd=miss"

	defaultContentType = "application/json; charset=utf-8"
)

// Cache owns one backend and hands out policy middleware bound to it.
// It is safe for concurrent use; build it with New and release it with Close.
type Cache struct {
	engine    Engine
	ns        string
	keyFn     KeyFunc
	store     *store
	log       Logger
	hooks     Hooks
	onError   ErrorHandler
	cacheable func(status int) bool
	flights   *singleflight.Group // nil unless CoalesceMisses

	closeOnce sync.Once
	closeErr  error
}

// Forever caches GET/HEAD responses with no expiry.
func (c *Cache) Forever() func(http.Handler) http.Handler {
	return c.Middleware(Forever())
}

// Duration caches GET/HEAD responses for ttl. It panics if ttl is not
// positive, like an invalid route registration would.
func (c *Cache) Duration(ttl time.Duration) func(http.Handler) http.Handler {
	p, err := Duration(ttl)
	if err != nil {
		panic(err)
	}
	return c.Middleware(p)
}

// ResetOnMutate invalidates the cached response of the request URL when a
// POST/PUT/PATCH/DELETE response carries ind. It panics if ind.Key is empty.
func (c *Cache) ResetOnMutate(ind Indicator) func(http.Handler) http.Handler {
	p, err := ResetOnMutate(ind)
	if err != nil {
		panic(err)
	}
	return c.Middleware(p)
}

// Middleware returns the net/http middleware for p. Requests whose method p
// does not support are reported to the ErrorHandler and passed through
// without caching.
func (c *Cache) Middleware(p Policy) func(http.Handler) http.Handler {
	if !p.valid() {
		panic(fmt.Errorf("%w: zero Policy", ErrInvalidPolicy))
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tw := &trackingWriter{ResponseWriter: w}
			defer c.recoverPolicy(p, tw, r)

			if !p.allows(r.Method) {
				c.log.Warn("policy method mismatch", Fields{"policy": p.kind.String(), "method": r.Method, "path": r.URL.Path})
				c.hooks.MethodMismatch(p.kind, r.Method)
				c.onError(tw, r, &MethodMismatchError{Policy: p.kind, Method: r.Method})
				next.ServeHTTP(tw, r)
				return
			}

			key := c.keyFn(c.ns, r)
			if p.kind == KindResetOnMutate {
				c.serveMutation(tw, r, next, key, p.indicator)
				return
			}
			c.serveRead(tw, r, next, key, p)
		})
	}
}

func (c *Cache) recoverPolicy(p Policy, w http.ResponseWriter, r *http.Request) {
	v := recover()
	if v == nil {
		return
	}
	if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
		panic(v)
	}
	pe := &PolicyPanicError{Policy: p.kind, Value: v, Stack: debug.Stack()}
	c.log.Error("policy panic", Fields{"policy": p.kind.String(), "path": r.URL.Path, "err": pe})
	c.onError(w, r, pe)
}

func (c *Cache) serveRead(w http.ResponseWriter, r *http.Request, next http.Handler, key string, p Policy) {
	ctx := r.Context()
	if e, ok := c.store.get(ctx, key); ok {
		writeHit(w, e)
		return
	}
	observed := c.store.generation(ctx, key)
	w.Header().Set("Cache-Status", cacheStatusMiss)

	if c.flights != nil && r.Method == http.MethodGet {
		c.serveCoalesced(w, r, next, key, p, observed)
		return
	}

	var e Entry
	cw := newCapture(w)
	next.ServeHTTP(cw, r)
	if err := cw.emit(func(res *response) { e = res.entry() }); err != nil {
		c.log.Debug("client write failed; not storing", Fields{"key": key, "err": err})
		return
	}
	// HEAD shares the GET key but its handlers may omit the body
	if r.Method == http.MethodHead {
		return
	}
	c.persist(ctx, key, p, e, observed)
}

// serveCoalesced runs downstream once for all concurrent misses on key. The
// goroutine that ran it stores the result after its own client write.
func (c *Cache) serveCoalesced(w http.ResponseWriter, r *http.Request, next http.Handler, key string, p Policy, observed uint64) {
	led := false
	v, _, shared := c.flights.Do(key, func() (any, error) {
		led = true
		cw := newDetachedCapture()
		for k, vv := range w.Header() {
			cw.header[k] = append([]string(nil), vv...)
		}
		next.ServeHTTP(cw, r)
		return cw.result(), nil
	})
	res := v.(*response)
	if shared && !led {
		c.log.Debug("coalesced miss", Fields{"key": key})
	}
	if err := writeResponse(w, res, true); err != nil || !led {
		return
	}
	c.persist(r.Context(), key, p, res.entry(), observed)
}

func (c *Cache) persist(ctx context.Context, key string, p Policy, e Entry, observed uint64) {
	if !c.cacheable(e.Status) {
		c.log.Debug("response not cacheable", Fields{"key": key, "status": e.Status})
		return
	}
	if c.store.set(ctx, key, e, p.ttl, observed) {
		c.log.Debug("response stored", Fields{"key": key, "ttl": p.ttl})
	}
}

func writeHit(w http.ResponseWriter, e Entry) {
	h := w.Header()
	h.Set("Content-Type", coalesce(e.ContentType, defaultContentType))
	h.Set("Cache-Status", cacheStatusHit)
	status := coalesce(e.Status, http.StatusOK)
	w.WriteHeader(status)
	_, _ = w.Write(e.Body)
}

// serveMutation forwards a mutating request and, when its response carries
// the indicator, deletes the cached read response of the same URL before the
// body is sent. Without a generation store a cache miss is passed through
// untouched; with one, a match always bumps the generation so in-flight
// reads cannot store a stale body.
func (c *Cache) serveMutation(w http.ResponseWriter, r *http.Request, next http.Handler, key string, ind Indicator) {
	ctx := r.Context()
	if _, hit := c.store.lookup(ctx, key); !hit && c.store.gen == nil {
		next.ServeHTTP(w, r)
		return
	}

	cw := newCapture(w)
	next.ServeHTTP(cw, r)
	err := cw.emit(func(res *response) {
		if !ind.Match(res.body) {
			return
		}
		removed := c.store.del(ctx, key)
		c.log.Debug("invalidated", Fields{"key": key, "removed": removed})
		c.hooks.EntryInvalidated(key, removed)
	})
	if err != nil {
		c.log.Debug("client write failed", Fields{"key": key, "err": err})
	}
}

// Invalidate removes the cached response stored under storageKey (as built
// by the KeyFunc) and reports whether one existed.
func (c *Cache) Invalidate(ctx context.Context, storageKey string) bool {
	removed := c.store.del(ctx, storageKey)
	c.hooks.EntryInvalidated(storageKey, removed)
	return removed
}

// Engine reports the backend kind this Cache was built with.
func (c *Cache) Engine() Engine { return c.engine }

// Close releases the generation store and the backend. It is safe to call
// more than once; later calls return the first result.
func (c *Cache) Close(ctx context.Context) error {
	c.closeOnce.Do(func() {
		var errs []error
		if c.store.gen != nil {
			errs = append(errs, c.store.gen.Close(ctx))
		}
		errs = append(errs, c.store.p.Close(ctx))
		c.closeErr = errors.Join(errs...)
		if c.closeErr != nil {
			c.log.Warn("backend close failed", Fields{"engine": c.engine, "err": c.closeErr})
			return
		}
		c.log.Info("backend closed", Fields{"engine": c.engine})
	})
	return c.closeErr
}
