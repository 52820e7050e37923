package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/chirino/journal-service/internal/plugin/cache/redis"
	"github.com/chirino/journal-service/internal/testutil/testredis"
	"github.com/stretchr/testify/require"
)

func TestRedisCache(t *testing.T) {
	url := testredis.StartRedis(t)
	ctx := context.Background()

	c, err := redis.LoadFromURLWithTTL(ctx, url, time.Minute)
	require.NoError(t, err)
	require.Equal(t, "redis", c.Name())

	_, ok, err := c.Get(ctx, "apps:approved:")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, "apps:approved:", []byte("payload"), 0))
	data, ok, err := c.Get(ctx, "apps:approved:")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "payload", string(data))

	require.NoError(t, c.Delete(ctx, "apps:approved:"))
	_, ok, err = c.Get(ctx, "apps:approved:")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisCacheInvalidURL(t *testing.T) {
	_, err := redis.LoadFromURLWithTTL(context.Background(), "not-a-url", time.Minute)
	require.ErrorContains(t, err, "invalid URL")
}
