package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalCache(t *testing.T) {
	ctx := context.Background()
	c, err := New(1 << 20)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	_, ok, err := c.Get(ctx, "apps:approved:")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, "apps:approved:", []byte(`[{"id":"a1"}]`), time.Minute))
	data, ok, err := c.Get(ctx, "apps:approved:")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `[{"id":"a1"}]`, string(data))

	require.NoError(t, c.Delete(ctx, "apps:approved:", "apps:approved:social"))
	_, ok, _ = c.Get(ctx, "apps:approved:")
	require.False(t, ok)
}
