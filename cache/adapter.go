package cache

import (
	"context"
	"time"

	"github.com/daylogapp/server/cache/local"
	cacheredis "github.com/daylogapp/server/cache/redis"
	"github.com/daylogapp/server/config"
)

// Cache is the KV surface the server needs (sessions, one-shot guards).
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// New returns a Cache backed by Redis if RedisAddr is set,
// otherwise an in-process local cache.
func New(cfg config.CacheConfig) (Cache, error) {
	if cfg.RedisAddr != "" {
		return cacheredis.NewCache(cacheredis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}
	return local.NewCache(local.Config{
		GCInterval: cfg.LocalGCInterval,
	})
}
