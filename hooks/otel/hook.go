// Package otelhook counts respcache events with OpenTelemetry metrics.
package otelhook

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/unkn0wn-root/respcache"
)

// Metric names.
const (
	MetricLookups      = "respcache.lookups"
	MetricStored       = "respcache.entries.stored"
	MetricRejected     = "respcache.entries.rejected"
	MetricInvalidated  = "respcache.entries.invalidated"
	MetricSelfHeal     = "respcache.self_heal"
	MetricBackendError = "respcache.backend.errors"
	MetricBackendEvent = "respcache.backend.events"
	MetricMismatch     = "respcache.method_mismatch"
)

// Hooks records every event as a counter increment. Keys are never used as
// attributes; cardinality stays bounded by op, result and reason.
type Hooks struct {
	lookups      metric.Int64Counter
	stored       metric.Int64Counter
	rejected     metric.Int64Counter
	invalidated  metric.Int64Counter
	selfHeal     metric.Int64Counter
	backendError metric.Int64Counter
	backendEvent metric.Int64Counter
	mismatch     metric.Int64Counter
}

var _ respcache.Hooks = (*Hooks)(nil)

func New(meter metric.Meter) (*Hooks, error) {
	h := &Hooks{}
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&h.lookups, MetricLookups, "Cache lookups by result", "{lookup}"},
		{&h.stored, MetricStored, "Responses persisted to the backend", "{entry}"},
		{&h.rejected, MetricRejected, "Writes rejected by the backend under pressure", "{entry}"},
		{&h.invalidated, MetricInvalidated, "Invalidations triggered by successful mutations", "{entry}"},
		{&h.selfHeal, MetricSelfHeal, "Stored entries dropped on read", "{entry}"},
		{&h.backendError, MetricBackendError, "Failed backend calls", "{error}"},
		{&h.backendEvent, MetricBackendEvent, "Backend connection lifecycle events", "{event}"},
		{&h.mismatch, MetricMismatch, "Policies applied to unsupported methods", "{request}"},
	}
	for _, c := range counters {
		ctr, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, err
		}
		*c.dst = ctr
	}
	return h, nil
}

func add(c metric.Int64Counter, attrs ...attribute.KeyValue) {
	c.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

func (h *Hooks) BackendConnected(e respcache.Engine) {
	add(h.backendEvent, attribute.String("engine", string(e)), attribute.String("event", "connected"))
}

func (h *Hooks) BackendReady(e respcache.Engine) {
	add(h.backendEvent, attribute.String("engine", string(e)), attribute.String("event", "ready"))
}

func (h *Hooks) BackendUnavailable(e respcache.Engine, _ error) {
	add(h.backendEvent, attribute.String("engine", string(e)), attribute.String("event", "unavailable"))
}

func (h *Hooks) BackendError(op, _ string, _ error) {
	add(h.backendError, attribute.String("op", op))
}

func (h *Hooks) CacheHit(string)  { add(h.lookups, attribute.String("result", "hit")) }
func (h *Hooks) CacheMiss(string) { add(h.lookups, attribute.String("result", "miss")) }

func (h *Hooks) EntryStored(_ string, ttl time.Duration) {
	add(h.stored, attribute.Bool("expires", ttl > 0))
}

func (h *Hooks) EntryRejected(string) { add(h.rejected) }

func (h *Hooks) EntryInvalidated(_ string, removed bool) {
	add(h.invalidated, attribute.Bool("removed", removed))
}

func (h *Hooks) SelfHeal(_, reason string) {
	add(h.selfHeal, attribute.String("reason", reason))
}

func (h *Hooks) MethodMismatch(policy respcache.Kind, method string) {
	add(h.mismatch, attribute.String("policy", policy.String()), attribute.String("method", method))
}
