package respcache

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newFromConfig(t *testing.T, cfg EngineConfig, hooks Hooks) *Cache {
	t.Helper()
	c, err := New(Options{Engine: cfg, Hooks: hooks, OpTimeout: 500 * time.Millisecond})
	if err != nil {
		t.Fatalf("New(%s): %v", cfg.Name, err)
	}
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

func roundTrip(t *testing.T, c *Cache) {
	t.Helper()
	var calls atomic.Int32
	h := c.Duration(time.Minute)(jsonHandler(&calls, usersBody))
	do(t, h, http.MethodGet, "/users")
	rr := do(t, h, http.MethodGet, "/users")
	if calls.Load() != 1 || rr.Body.String() != usersBody {
		t.Fatalf("%s: calls=%d body=%q", c.Engine(), calls.Load(), rr.Body.String())
	}
}

func TestNewMemoryEngines(t *testing.T) {
	for _, store := range []string{"", MemoryStoreRistretto, MemoryStoreBigcache} {
		hooks := &recordingHooks{}
		c := newFromConfig(t, EngineConfig{Name: EngineMemory, Memory: &MemoryConfig{Store: store}}, hooks)
		if hooks.count("ready") != 1 {
			t.Fatalf("%q: ready not reported", store)
		}
		roundTrip(t, c)
	}
}

func TestNewRedisEngine(t *testing.T) {
	mr := miniredis.RunT(t)
	hooks := &recordingHooks{}
	c := newFromConfig(t, EngineConfig{
		Name:  EngineRedis,
		Redis: &RedisConfig{Addrs: []string{mr.Addr()}},
	}, hooks)

	if hooks.count("ready") != 1 || hooks.count("connected") == 0 {
		t.Fatalf("events = %v", hooks.events)
	}
	roundTrip(t, c)
	if !mr.Exists("respcache:/users") {
		t.Fatalf("entry not written to redis; keys=%v", mr.Keys())
	}
	if ttl := mr.TTL("respcache:/users"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("redis ttl = %v", ttl)
	}
}

func TestNewRedisEngineUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	hooks := &recordingHooks{}
	c := newFromConfig(t, EngineConfig{
		Name:  EngineRedis,
		Redis: &RedisConfig{Addrs: []string{addr}, DialTimeout: 100 * time.Millisecond, MaxRetries: -1},
	}, hooks)
	if hooks.count("unavailable") != 1 {
		t.Fatalf("events = %v", hooks.events)
	}

	var calls atomic.Int32
	h := c.Forever()(jsonHandler(&calls, usersBody))
	for i := 0; i < 2; i++ {
		if rr := do(t, h, http.MethodGet, "/users"); rr.Code != http.StatusOK || rr.Body.String() != usersBody {
			t.Fatalf("request %d: %d %q", i, rr.Code, rr.Body.String())
		}
	}
	if calls.Load() != 2 {
		t.Fatalf("handler called %d times, want 2", calls.Load())
	}
}

func TestBigcacheLifeWindowDefault(t *testing.T) {
	if got := bigcacheConfig(&MemoryConfig{}).LifeWindow; got != DefaultBigcacheLifeWindow {
		t.Fatalf("default LifeWindow = %v, want %v", got, DefaultBigcacheLifeWindow)
	}
	if got := bigcacheConfig(&MemoryConfig{LifeWindow: time.Hour}).LifeWindow; got != time.Hour {
		t.Fatalf("explicit LifeWindow = %v, want 1h", got)
	}
}
