// Package redisx provides Redis client functionality
package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kylinpoet/song-for-guoxi/internal/config"
	"github.com/kylinpoet/song-for-guoxi/internal/logx"
)

var cacheLogger = logx.GetScope("redisx")

// Client is an alias for a Redis client
type Client = redis.Client

// Open creates a new Redis client based on configuration.
// A nil client means caching is disabled.
func Open(cfg *config.Config) (*Client, func(), error) {
	if cfg.Redis.Addr == "" {
		return nil, func() {}, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, func() {}, err
	}
	closer := func() { _ = rdb.Close() }
	return rdb, closer, nil
}

// KeyHome caches the homepage read model. Writes to collections or the
// church config must delete it.
const KeyHome = "home"

// Cache stores JSON values under a key prefix. A Cache with a nil client
// misses on every read and ignores writes.
type Cache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewCache wraps rdb. ttl <= 0 stores keys without expiry.
func NewCache(rdb *redis.Client, prefix string, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *Cache) enabled() bool { return c != nil && c.rdb != nil }

func (c *Cache) key(k string) string { return c.prefix + k }

// GetJSON decodes the cached value into dst and reports whether it was found.
// Redis and decode errors count as a miss.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) bool {
	if !c.enabled() {
		return false
	}
	raw, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			cacheLogger.Sugar().Warnf("cache get %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		cacheLogger.Sugar().Warnf("cache decode %s: %v", key, err)
		return false
	}
	return true
}

// SetJSON stores v as JSON. Failures are logged and swallowed.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) {
	if !c.enabled() {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		cacheLogger.Sugar().Warnf("cache encode %s: %v", key, err)
		return
	}
	if err := c.rdb.Set(ctx, c.key(key), raw, max(c.ttl, 0)).Err(); err != nil {
		cacheLogger.Sugar().Warnf("cache set %s: %v", key, err)
	}
}

// Del removes keys. Failures are logged and swallowed.
func (c *Cache) Del(ctx context.Context, keys ...string) {
	if !c.enabled() || len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	if err := c.rdb.Del(ctx, full...).Err(); err != nil {
		cacheLogger.Sugar().Warnf("cache del %v: %v", keys, err)
	}
}
