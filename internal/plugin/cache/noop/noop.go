// Package noop registers the "none" cache, which never holds anything and
// sends every catalog read to the document store.
package noop

import (
	"context"
	"time"

	"github.com/chirino/journal-service/internal/registry/cache"
)

const name = "none"

func init() {
	cache.Register(cache.Plugin{
		Name: name,
		Loader: func(context.Context) (cache.AppCatalogCache, error) {
			return disabled{}, nil
		},
	})
}

type disabled struct{}

var _ cache.AppCatalogCache = disabled{}

func (disabled) Name() string                                             { return name }
func (disabled) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (disabled) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (disabled) Delete(context.Context, ...string) error                  { return nil }
