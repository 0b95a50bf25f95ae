package respcache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseEngineConfig(t *testing.T) {
	cfg, err := ParseEngineConfig([]byte(`
name: redis
logging: false
redis:
  addrs: ["10.0.0.1:6379", "10.0.0.2:6379"]
  db: 3
  dial_timeout: 250ms
`))
	if err != nil {
		t.Fatalf("ParseEngineConfig: %v", err)
	}
	if cfg.Name != EngineRedis || cfg.loggingEnabled() {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Redis == nil || len(cfg.Redis.Addrs) != 2 || cfg.Redis.DB != 3 || cfg.Redis.DialTimeout != 250*time.Millisecond {
		t.Fatalf("redis cfg = %+v", cfg.Redis)
	}
	if err := cfg.validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestParseEngineConfigRejectsUnknownFields(t *testing.T) {
	if _, err := ParseEngineConfig([]byte("name: memory\nlogigng: false\n")); err == nil {
		t.Fatalf("typo in field name was accepted")
	}
}

func TestLoadEngineConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	data := "name: memcached\nmemcached:\n  servers: [\"127.0.0.1:11211\"]\n  timeout: 1s\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadEngineConfig(path)
	if err != nil {
		t.Fatalf("LoadEngineConfig: %v", err)
	}
	if !cfg.loggingEnabled() {
		t.Fatalf("logging should default to enabled")
	}
	if cfg.Memcached == nil || cfg.Memcached.Timeout != time.Second {
		t.Fatalf("memcached cfg = %+v", cfg.Memcached)
	}

	if _, err := LoadEngineConfig(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file err = %v", err)
	}
}

func TestEngineConfigValidate(t *testing.T) {
	cases := []struct {
		name  string
		cfg   EngineConfig
		want  error
		field string
	}{
		{"empty name", EngineConfig{}, ErrInvalidEngine, ""},
		{"unknown name", EngineConfig{Name: "mongo"}, ErrInvalidEngine, ""},
		{"redis without config", EngineConfig{Name: EngineRedis}, ErrMissingEngineConfig, "redis"},
		{"redis without addrs", EngineConfig{Name: EngineRedis, Redis: &RedisConfig{}}, ErrMissingEngineConfig, "redis.addrs"},
		{"memcached without config", EngineConfig{Name: EngineMemcached}, ErrMissingEngineConfig, "memcached"},
		{"memcached without servers", EngineConfig{Name: EngineMemcached, Memcached: &MemcachedConfig{}}, ErrMissingEngineConfig, "memcached.servers"},
		{"memory bad store", EngineConfig{Name: EngineMemory, Memory: &MemoryConfig{Store: "lru"}}, ErrInvalidEngine, "memory.store lru"},
	}
	for _, tc := range cases {
		err := tc.cfg.validate()
		var ce *ConfigError
		if !errors.As(err, &ce) || !errors.Is(err, tc.want) || ce.Field != tc.field {
			t.Fatalf("%s: err = %v", tc.name, err)
		}
	}

	for _, ok := range []EngineConfig{
		{Name: EngineMemory},
		{Name: EngineMemory, Memory: &MemoryConfig{Store: MemoryStoreBigcache}},
		{Name: EngineRedis, Redis: &RedisConfig{Addrs: []string{"localhost:6379"}}},
		{Name: EngineMemcached, Memcached: &MemcachedConfig{Servers: []string{"localhost:11211"}}},
	} {
		if err := ok.validate(); err != nil {
			t.Fatalf("%s: unexpected error %v", ok.Name, err)
		}
	}
}

func TestNewReturnsConfigError(t *testing.T) {
	c, err := New(Options{Engine: EngineConfig{Name: EngineRedis}})
	if c != nil || !errors.Is(err, ErrMissingEngineConfig) {
		t.Fatalf("New = %v, %v", c, err)
	}
}
