// Package local provides an in-process app catalog cache bounded by size.
package local

import (
	"context"
	"fmt"
	"time"

	"github.com/chirino/journal-service/internal/config"
	registrycache "github.com/chirino/journal-service/internal/registry/cache"
	"github.com/dgraph-io/ristretto/v2"
)

const defaultMaxBytes = 32 << 20

func init() {
	registrycache.Register(registrycache.Plugin{
		Name:   "local",
		Loader: load,
	})
}

func load(ctx context.Context) (registrycache.AppCatalogCache, error) {
	maxBytes := int64(defaultMaxBytes)
	if cfg := config.FromContext(ctx); cfg != nil && cfg.LocalCacheMaxBytes > 0 {
		maxBytes = cfg.LocalCacheMaxBytes
	}
	return New(maxBytes)
}

// New creates a cache holding at most maxBytes of values.
func New(maxBytes int64) (*Cache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		// One counter per KB of capacity.
		NumCounters: max(maxBytes/1024, 1000),
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("local cache: %w", err)
	}
	return &Cache{c: c}, nil
}

type Cache struct {
	c *ristretto.Cache[string, []byte]
}

func (c *Cache) Name() string { return "local" }

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.c.Get(key)
	return v, ok, nil
}

// Set stores data; the write is visible to Get once it returns.
func (c *Cache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	c.c.SetWithTTL(key, data, int64(len(data)), ttl)
	c.c.Wait()
	return nil
}

func (c *Cache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		c.c.Del(k)
	}
	return nil
}

// Close stops the cache's background goroutines.
func (c *Cache) Close() { c.c.Close() }

var _ registrycache.AppCatalogCache = (*Cache)(nil)
