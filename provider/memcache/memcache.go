// Package memcache stores entries in one or more memcached servers.
// Keys are distributed across servers by the client's server selector and the
// connection pool redials dropped connections on the next call.
package memcache

import (
	"context"
	"errors"
	"time"

	mc "github.com/bradfitz/gomemcache/memcache"

	"github.com/unkn0wn-root/respcache/internal/util"
	pr "github.com/unkn0wn-root/respcache/provider"
)

// maxRelativeExpiry is the largest expiration memcached reads as relative
// seconds; larger values are taken as an absolute unix timestamp.
const maxRelativeExpiry = 30 * 24 * time.Hour

var ErrNoServers = errors.New("memcache provider: no servers")

type Memcache struct {
	c   *mc.Client
	now func() time.Time
}

var (
	_ pr.Provider = (*Memcache)(nil)
	_ pr.Pinger   = (*Memcache)(nil)
)

type Config struct {
	Servers      []string
	Timeout      time.Duration // per-operation socket timeout; 0 => client default
	MaxIdleConns int
}

func New(cfg Config) (*Memcache, error) {
	if len(cfg.Servers) == 0 {
		return nil, ErrNoServers
	}
	c := mc.New(cfg.Servers...)
	if cfg.Timeout > 0 {
		c.Timeout = cfg.Timeout
	}
	if cfg.MaxIdleConns > 0 {
		c.MaxIdleConns = cfg.MaxIdleConns
	}
	return NewWithClient(c), nil
}

func NewWithClient(c *mc.Client) *Memcache { return &Memcache{c: c, now: time.Now} }

func (p *Memcache) Get(_ context.Context, key string) ([]byte, bool, error) {
	it, err := p.c.Get(util.CompactKey(key))
	if errors.Is(err, mc.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return it.Value, true, nil
}

func (p *Memcache) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	err := p.c.Set(&mc.Item{
		Key:        util.CompactKey(key),
		Value:      value,
		Expiration: p.expiration(ttl),
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *Memcache) Del(_ context.Context, key string) (bool, error) {
	err := p.c.Delete(util.CompactKey(key))
	if errors.Is(err, mc.ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *Memcache) Ping(context.Context) error {
	return p.c.Ping()
}

// Close drops idle connections when the client supports it.
func (p *Memcache) Close(context.Context) error {
	if cl, ok := any(p.c).(interface{ Close() error }); ok {
		return cl.Close()
	}
	return nil
}

// expiration converts ttl to memcached's int32 seconds. Sub-second TTLs round
// up to one second; 0 means never expire.
func (p *Memcache) expiration(ttl time.Duration) int32 {
	if ttl <= 0 {
		return 0
	}
	secs := (ttl + time.Second - 1) / time.Second
	if ttl > maxRelativeExpiry {
		return int32(p.now().Add(ttl).Unix())
	}
	return int32(secs)
}
