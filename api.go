package respcache

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/respcache/codec"
	"github.com/unkn0wn-root/respcache/genstore"
	"github.com/unkn0wn-root/respcache/provider"
)

// SetCostFunc reports the admission cost of a framed entry. Only
// cost-bounded stores (ristretto) use it.
type SetCostFunc func(storageKey string, frame []byte) int64

// Options configure New. Only Engine is required; everything else has
// sensible defaults.
type Options struct {
	// Required
	Engine EngineConfig

	Namespace    string             // key prefix; "" => DefaultNamespace
	KeyFunc      KeyFunc            // nil => Key
	Codec        codec.Codec[Entry] // nil => msgpack
	Logger       Logger             // nil or Engine.Logging=false => NopLogger
	Hooks        Hooks              // nil => NopHooks
	ErrorHandler ErrorHandler       // nil => 500 on panic, ignore mismatches
	OpTimeout    time.Duration      // per backend call; 0 => 2s
	SetCost      SetCostFunc        // nil => frame length

	// Cacheable decides which downstream statuses read policies persist.
	// nil => 2xx only.
	Cacheable func(status int) bool

	// CoalesceMisses lets concurrent GET misses on one key share a single
	// downstream execution. Off by default: every miss runs downstream and the
	// last writer wins.
	CoalesceMisses bool

	// GenStore enables generation tracking. Read policies then skip storing a
	// response if the key was invalidated while it was being produced. The
	// Cache closes it on Close.
	GenStore genstore.GenStore
}

const defaultOpTimeout = 2 * time.Second

// New validates opts.Engine, opens its backend and probes it once. Only
// configuration problems are returned; an unreachable backend is reported
// through Hooks and Logger and the cache serves misses until it recovers.
func New(opts Options) (*Cache, error) {
	if err := opts.Engine.validate(); err != nil {
		return nil, err
	}
	hooks := coalesce[Hooks](opts.Hooks, NopHooks{})
	p, err := openProvider(opts.Engine, hooks)
	if err != nil {
		return nil, err
	}
	c, err := newCache(opts, p)
	if err != nil {
		return nil, errors.Join(err, p.Close(context.Background()))
	}
	c.probe(p, c.store.timeout)
	return c, nil
}

// newCache wires a Cache around an already opened provider.
func newCache(opts Options, p provider.Provider) (*Cache, error) {
	if p == nil {
		return nil, errors.New("respcache: provider is required")
	}
	log := coalesce[Logger](opts.Logger, NopLogger{})
	if !opts.Engine.loggingEnabled() {
		log = NopLogger{}
	}
	hooks := coalesce[Hooks](opts.Hooks, NopHooks{})

	c := &Cache{
		engine:    opts.Engine.Name,
		ns:        coalesce(opts.Namespace, DefaultNamespace),
		keyFn:     opts.KeyFunc,
		log:       log,
		hooks:     hooks,
		onError:   opts.ErrorHandler,
		cacheable: opts.Cacheable,
	}
	if c.keyFn == nil {
		c.keyFn = Key
	}
	if c.onError == nil {
		c.onError = defaultErrorHandler
	}
	if c.cacheable == nil {
		c.cacheable = successful
	}
	if opts.CoalesceMisses {
		c.flights = &singleflight.Group{}
	}

	c.store = &store{
		p:       p,
		codec:   opts.Codec,
		gen:     opts.GenStore,
		log:     log,
		hooks:   hooks,
		timeout: coalesce(opts.OpTimeout, defaultOpTimeout),
		cost:    opts.SetCost,
		now:     time.Now,
	}
	if c.store.codec == nil {
		c.store.codec = codec.Msgpack[Entry]{}
	}
	if c.store.cost == nil {
		c.store.cost = defaultSetCost
	}
	return c, nil
}

func successful(status int) bool { return status >= 200 && status < 300 }

// defaultErrorHandler answers recovered panics with a 500 when nothing has
// been written yet. Method mismatches are only logged.
func defaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	var pe *PolicyPanicError
	if !errors.As(err, &pe) || responseStarted(w) {
		return
	}
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
