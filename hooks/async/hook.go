// Package asynchook moves hook delivery off the request path.
//
// usage:
//
//	raw := sloghook.New(slog.Default(), sloghook.Options{SelfHealEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	c, _ := respcache.New(respcache.Options{
//	    Engine: respcache.EngineConfig{Name: respcache.EngineRedis, Redis: &respcache.RedisConfig{Addrs: addrs}},
//	    Hooks:  hooks,
//	})
//
// Events are dropped, not queued without bound, when the queue is full.
package asynchook

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/respcache"
)

type Hooks struct {
	inner   respcache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	closed  atomic.Bool
	dropped atomic.Uint64
}

var _ respcache.Hooks = (*Hooks)(nil)

func New(inner respcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close stops accepting events and waits for queued ones to be delivered.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.closed.Store(true)
		close(h.q)
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded because the queue was full
// or the hooks were closed.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	if h.closed.Load() {
		h.dropped.Add(1)
		return
	}
	defer func() {
		// lost the race with Close
		if recover() != nil {
			h.dropped.Add(1)
		}
	}()
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) BackendConnected(e respcache.Engine) { h.try(func() { h.inner.BackendConnected(e) }) }
func (h *Hooks) BackendReady(e respcache.Engine)     { h.try(func() { h.inner.BackendReady(e) }) }
func (h *Hooks) BackendUnavailable(e respcache.Engine, err error) {
	h.try(func() { h.inner.BackendUnavailable(e, err) })
}
func (h *Hooks) BackendError(op, k string, err error) {
	h.try(func() { h.inner.BackendError(op, k, err) })
}
func (h *Hooks) CacheHit(k string)  { h.try(func() { h.inner.CacheHit(k) }) }
func (h *Hooks) CacheMiss(k string) { h.try(func() { h.inner.CacheMiss(k) }) }
func (h *Hooks) EntryStored(k string, ttl time.Duration) {
	h.try(func() { h.inner.EntryStored(k, ttl) })
}
func (h *Hooks) EntryRejected(k string) { h.try(func() { h.inner.EntryRejected(k) }) }
func (h *Hooks) EntryInvalidated(k string, removed bool) {
	h.try(func() { h.inner.EntryInvalidated(k, removed) })
}
func (h *Hooks) SelfHeal(k, r string) { h.try(func() { h.inner.SelfHeal(k, r) }) }
func (h *Hooks) MethodMismatch(p respcache.Kind, m string) {
	h.try(func() { h.inner.MethodMismatch(p, m) })
}
