package respcache

import (
	"bytes"
	"errors"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Engine names a backend kind.
type Engine string

const (
	// EngineMemory keeps entries in process (ristretto by default, or bigcache).
	EngineMemory Engine = "memory"
	// EngineRedis keeps entries in redis (single node, sentinel or cluster).
	EngineRedis Engine = "redis"
	// EngineMemcached keeps entries in one or more memcached servers.
	EngineMemcached Engine = "memcached"
)

// In-process store implementations for EngineMemory.
const (
	MemoryStoreRistretto = "ristretto"
	MemoryStoreBigcache  = "bigcache"
)

// EngineConfig selects and configures the backend. It can be written by hand
// or loaded from YAML:
//
//	name: redis
//	logging: false
//	redis:
//	  addrs: ["127.0.0.1:6379"]
//	  db: 2
type EngineConfig struct {
	Name Engine `yaml:"name"`
	// Logging toggles the cache's own log output; nil means enabled.
	Logging *bool `yaml:"logging,omitempty"`

	Memory    *MemoryConfig    `yaml:"memory,omitempty"`
	Redis     *RedisConfig     `yaml:"redis,omitempty"`
	Memcached *MemcachedConfig `yaml:"memcached,omitempty"`
}

// MemoryConfig is optional for EngineMemory; zero fields take defaults.
type MemoryConfig struct {
	Store string `yaml:"store,omitempty"` // "ristretto" (default) or "bigcache"

	// ristretto
	MaxCost     int64 `yaml:"max_cost,omitempty"` // bytes of framed entries; 0 => 64MiB
	NumCounters int64 `yaml:"num_counters,omitempty"`

	// bigcache has no per-entry TTL. LifeWindow evicts every entry after the
	// window, Forever entries included; 0 => DefaultBigcacheLifeWindow.
	LifeWindow         time.Duration `yaml:"life_window,omitempty"`
	Shards             int           `yaml:"shards,omitempty"`
	HardMaxCacheSizeMB int           `yaml:"hard_max_cache_size_mb,omitempty"`
}

// RedisConfig is required for EngineRedis. One address connects to a single
// node, several to a cluster; MasterName selects sentinel failover.
type RedisConfig struct {
	Addrs      []string `yaml:"addrs"`
	Username   string   `yaml:"username,omitempty"`
	Password   string   `yaml:"password,omitempty"`
	DB         int      `yaml:"db,omitempty"`
	MasterName string   `yaml:"master_name,omitempty"`
	PoolSize   int      `yaml:"pool_size,omitempty"`
	MaxRetries int      `yaml:"max_retries,omitempty"` // -1 disables retries

	DialTimeout  time.Duration `yaml:"dial_timeout,omitempty"`
	ReadTimeout  time.Duration `yaml:"read_timeout,omitempty"`
	WriteTimeout time.Duration `yaml:"write_timeout,omitempty"`
}

// MemcachedConfig is required for EngineMemcached.
type MemcachedConfig struct {
	Servers      []string      `yaml:"servers"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`
	MaxIdleConns int           `yaml:"max_idle_conns,omitempty"`
}

func (c EngineConfig) loggingEnabled() bool { return c.Logging == nil || *c.Logging }

func (c EngineConfig) validate() error {
	switch c.Name {
	case EngineMemory:
		if c.Memory != nil {
			switch c.Memory.Store {
			case "", MemoryStoreRistretto, MemoryStoreBigcache:
			default:
				return &ConfigError{Engine: c.Name, Field: "memory.store " + c.Memory.Store, Err: ErrInvalidEngine}
			}
		}
	case EngineRedis:
		if c.Redis == nil {
			return &ConfigError{Engine: c.Name, Field: "redis", Err: ErrMissingEngineConfig}
		}
		if len(c.Redis.Addrs) == 0 {
			return &ConfigError{Engine: c.Name, Field: "redis.addrs", Err: ErrMissingEngineConfig}
		}
	case EngineMemcached:
		if c.Memcached == nil {
			return &ConfigError{Engine: c.Name, Field: "memcached", Err: ErrMissingEngineConfig}
		}
		if len(c.Memcached.Servers) == 0 {
			return &ConfigError{Engine: c.Name, Field: "memcached.servers", Err: ErrMissingEngineConfig}
		}
	default:
		return &ConfigError{Engine: c.Name, Err: ErrInvalidEngine}
	}
	return nil
}

// ParseEngineConfig decodes a YAML engine configuration. Unknown fields are
// rejected so typos do not silently fall back to defaults.
func ParseEngineConfig(b []byte) (EngineConfig, error) {
	var cfg EngineConfig
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return EngineConfig{}, err
	}
	return cfg, nil
}

// LoadEngineConfig reads and decodes a YAML engine configuration file.
func LoadEngineConfig(filename string) (EngineConfig, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return EngineConfig{}, err
	}
	return ParseEngineConfig(b)
}
