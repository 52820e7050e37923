package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chirino/journal-service/internal/config"
	registrycache "github.com/chirino/journal-service/internal/registry/cache"
	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultTTL = 5 * time.Minute
	keyPrefix  = "journal:"
)

func init() {
	registrycache.Register(registrycache.Plugin{
		Name:   "redis",
		Loader: load,
	})
}

func load(ctx context.Context) (registrycache.AppCatalogCache, error) {
	cfg := config.FromContext(ctx)
	if cfg == nil || cfg.RedisURL == "" {
		return nil, fmt.Errorf("redis cache: JOURNAL_REDIS_URL is required")
	}
	return LoadFromURLWithTTL(ctx, cfg.RedisURL, cfg.AppCatalogTTL)
}

// LoadFromURLWithTTL creates a cache from a Redis URL. ttl applies when Set
// is called without one.
func LoadFromURLWithTTL(ctx context.Context, redisURL string, ttl time.Duration) (registrycache.AppCatalogCache, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis cache: invalid URL: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis cache: ping failed: %w", err)
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &redisCache{client: client, ttl: ttl}, nil
}

type redisCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func (c *redisCache) Name() string { return "redis" }

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	return c.client.Set(ctx, keyPrefix+key, data, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = keyPrefix + k
	}
	return c.client.Del(ctx, prefixed...).Err()
}

var _ registrycache.AppCatalogCache = (*redisCache)(nil)
