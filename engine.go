package respcache

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/respcache/provider"
	pbig "github.com/unkn0wn-root/respcache/provider/bigcache"
	pmc "github.com/unkn0wn-root/respcache/provider/memcache"
	predis "github.com/unkn0wn-root/respcache/provider/redis"
	pris "github.com/unkn0wn-root/respcache/provider/ristretto"
)

// openProvider builds the single provider a Cache owns. cfg must already be
// validated.
func openProvider(cfg EngineConfig, hooks Hooks) (provider.Provider, error) {
	switch cfg.Name {
	case EngineRedis:
		return openRedis(cfg.Redis, hooks)
	case EngineMemcached:
		return pmc.New(pmc.Config{
			Servers:      cfg.Memcached.Servers,
			Timeout:      cfg.Memcached.Timeout,
			MaxIdleConns: cfg.Memcached.MaxIdleConns,
		})
	case EngineMemory:
		return openMemory(cfg.Memory)
	}
	return nil, &ConfigError{Engine: cfg.Name, Err: ErrInvalidEngine}
}

func openRedis(rc *RedisConfig, hooks Hooks) (provider.Provider, error) {
	client := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs:        rc.Addrs,
		Username:     rc.Username,
		Password:     rc.Password,
		DB:           rc.DB,
		MasterName:   rc.MasterName,
		PoolSize:     rc.PoolSize,
		MaxRetries:   rc.MaxRetries,
		DialTimeout:  rc.DialTimeout,
		ReadTimeout:  rc.ReadTimeout,
		WriteTimeout: rc.WriteTimeout,
		// fires for every new pooled connection, including reconnects
		OnConnect: func(context.Context, *goredis.Conn) error {
			hooks.BackendConnected(EngineRedis)
			return nil
		},
	})
	p, err := predis.New(predis.Config{Client: client, CloseClient: true})
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return p, nil
}

func openMemory(mc *MemoryConfig) (provider.Provider, error) {
	if mc == nil {
		mc = &MemoryConfig{}
	}
	if mc.Store == MemoryStoreBigcache {
		return pbig.New(bigcacheConfig(mc))
	}
	rcfg := pris.DefaultConfig()
	rcfg.MaxCost = coalesce(mc.MaxCost, rcfg.MaxCost)
	rcfg.NumCounters = coalesce(mc.NumCounters, rcfg.NumCounters)
	return pris.New(rcfg)
}

// DefaultBigcacheLifeWindow bounds every bigcache entry when
// MemoryConfig.LifeWindow is unset. Shorter TTLs are enforced per entry on
// read; entries without expiry live this long.
const DefaultBigcacheLifeWindow = 365 * 24 * time.Hour

func bigcacheConfig(mc *MemoryConfig) pbig.Config {
	return pbig.Config{
		LifeWindow:         coalesce(mc.LifeWindow, DefaultBigcacheLifeWindow),
		Shards:             mc.Shards,
		HardMaxCacheSizeMB: mc.HardMaxCacheSizeMB,
	}
}

// probe pings the backend once. A failed probe is reported, not returned:
// remote engines reconnect on their own and the cache serves misses until then.
func (c *Cache) probe(p provider.Provider, timeout time.Duration) {
	pg, ok := p.(provider.Pinger)
	if !ok {
		c.hooks.BackendReady(c.engine)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := pg.Ping(ctx); err != nil {
		c.log.Warn("backend unavailable", Fields{"engine": c.engine, "err": err})
		c.hooks.BackendUnavailable(c.engine, err)
		return
	}
	c.log.Info("backend ready", Fields{"engine": c.engine})
	c.hooks.BackendReady(c.engine)
}
