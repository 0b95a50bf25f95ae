// Package sloghook writes respcache events to a log/slog logger. Hits and
// misses are not logged; use hooks/otel to count them.
package sloghook

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/respcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SelfHealEvery     uint64
	BackendErrorEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	respcache.NopHooks

	l    *slog.Logger
	opts Options

	selfHealCtr atomic.Uint64
	backendCtr  atomic.Uint64
}

var _ respcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) BackendConnected(e respcache.Engine) {
	if h.l == nil {
		return
	}
	h.l.Info("respcache.backend_connected", "engine", string(e))
}

func (h *Hooks) BackendReady(e respcache.Engine) {
	if h.l == nil {
		return
	}
	h.l.Info("respcache.backend_ready", "engine", string(e))
}

func (h *Hooks) BackendUnavailable(e respcache.Engine, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("respcache.backend_unavailable",
		"engine", string(e),
		"err", err)
}

func (h *Hooks) BackendError(op, storageKey string, err error) {
	if h.l == nil || !sample(h.opts.BackendErrorEvery, &h.backendCtr) {
		return
	}
	h.l.Warn("respcache.backend_error",
		"op", op,
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) EntryRejected(storageKey string) {
	if h.l == nil {
		return
	}
	h.l.Warn("respcache.entry_rejected", "key", h.redact(storageKey))
}

func (h *Hooks) EntryStored(storageKey string, ttl time.Duration) {
	if h.l == nil {
		return
	}
	h.l.Debug("respcache.entry_stored",
		"key", h.redact(storageKey),
		"ttl", ttl)
}

func (h *Hooks) EntryInvalidated(storageKey string, removed bool) {
	if h.l == nil {
		return
	}
	h.l.Debug("respcache.entry_invalidated",
		"key", h.redact(storageKey),
		"removed", removed)
}

func (h *Hooks) SelfHeal(storageKey, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("respcache.self_heal",
		"key", h.redact(storageKey),
		"reason", reason)
}

func (h *Hooks) MethodMismatch(policy respcache.Kind, method string) {
	if h.l == nil {
		return
	}
	h.l.Warn("respcache.method_mismatch",
		"policy", policy.String(),
		"method", method)
}
