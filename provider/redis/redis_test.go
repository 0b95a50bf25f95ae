package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newTestProvider(t *testing.T) (*miniredis.Miniredis, *Redis) {
	t.Helper()
	mr := miniredis.RunT(t)
	p, err := New(Config{Client: goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), CloseClient: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return mr, p
}

func TestProviderRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, p := newTestProvider(t)

	if err := p.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if _, ok, err := p.Get(ctx, "respcache:/a"); ok || err != nil {
		t.Fatalf("empty Get: ok=%v err=%v", ok, err)
	}
	if ok, err := p.Set(ctx, "respcache:/a", []byte{0, 1, 2}, 0, 0); !ok || err != nil {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}
	if ttl := mr.TTL("respcache:/a"); ttl != 0 {
		t.Fatalf("ttl 0 must not expire, got %v", ttl)
	}
	if v, ok, _ := p.Get(ctx, "respcache:/a"); !ok || string(v) != "\x00\x01\x02" {
		t.Fatalf("Get: %x ok=%v", v, ok)
	}
	if removed, _ := p.Del(ctx, "respcache:/a"); !removed {
		t.Fatalf("Del did not report the existing key")
	}
	if removed, _ := p.Del(ctx, "respcache:/a"); removed {
		t.Fatalf("Del reported a missing key")
	}
}

func TestProviderTTL(t *testing.T) {
	ctx := context.Background()
	mr, p := newTestProvider(t)

	if _, err := p.Set(ctx, "k", []byte("v"), 0, 5*time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	mr.FastForward(6 * time.Second)
	if _, ok, _ := p.Get(ctx, "k"); ok {
		t.Fatalf("entry outlived its ttl")
	}
}

func TestProviderSurfacesErrors(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	mr, p := newTestProvider(t)
	mr.Close()

	if _, _, err := p.Get(ctx, "k"); err == nil {
		t.Fatalf("Get on a closed server returned no error")
	}
	if _, err := p.Set(ctx, "k", []byte("v"), 0, 0); err == nil {
		t.Fatalf("Set on a closed server returned no error")
	}
}

func TestNewRequiresClient(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrNilClient) {
		t.Fatalf("err = %v", err)
	}
}
