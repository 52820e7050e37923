package cache

import (
	"context"
	"fmt"
	"time"
)

// AppCatalogCache holds encoded app catalog listings. Implementations must
// be safe for concurrent use. A miss is (nil, false, nil).
type AppCatalogCache interface {
	// Name identifies the cache in metrics.
	Name() string
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type cacheKey struct{}

// WithContext returns a new context carrying the given AppCatalogCache.
func WithContext(ctx context.Context, c AppCatalogCache) context.Context {
	return context.WithValue(ctx, cacheKey{}, c)
}

// FromContext retrieves the AppCatalogCache from the context.
// Returns nil if none was set.
func FromContext(ctx context.Context) AppCatalogCache {
	c, _ := ctx.Value(cacheKey{}).(AppCatalogCache)
	return c
}

// Loader creates a cache from config.
type Loader func(ctx context.Context) (AppCatalogCache, error)

// Plugin represents a cache plugin.
type Plugin struct {
	Name   string
	Loader Loader
}

var plugins []Plugin

// Register adds a cache plugin.
func Register(p Plugin) {
	plugins = append(plugins, p)
}

// Names returns all registered cache plugin names.
func Names() []string {
	names := make([]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Name
	}
	return names
}

// Select returns the loader for the named cache plugin.
func Select(name string) (Loader, error) {
	for _, p := range plugins {
		if p.Name == name {
			return p.Loader, nil
		}
	}
	return nil, fmt.Errorf("unknown cache %q; valid: %v", name, Names())
}
