package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chirino/journal-service/internal/docstore/auth"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	calls atomic.Int32
	fail  atomic.Bool
}

func (s *countingSource) Name() string { return "counting" }

func (s *countingSource) Fetch(context.Context) (string, error) {
	if s.fail.Load() {
		return "", errors.New("unavailable")
	}
	s.calls.Add(1)
	return "tok", nil
}

func TestTokenWarmer(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	src := &countingSource{}
	m := auth.NewManager(src, auth.WithClock(clock))

	readyCalls := 0
	w := NewTokenWarmer(m, 5*time.Minute, func() { readyCalls++ })
	w.now = clock
	ctx := context.Background()

	t.Run("first warm fetches and marks ready", func(t *testing.T) {
		w.warm(ctx)
		require.EqualValues(t, 1, src.calls.Load())
		require.Equal(t, 1, readyCalls)
	})

	t.Run("fresh token is left alone", func(t *testing.T) {
		now = now.Add(30 * time.Minute)
		w.warm(ctx)
		require.EqualValues(t, 1, src.calls.Load())
	})

	t.Run("token expiring before next tick is refreshed", func(t *testing.T) {
		now = now.Add(20 * time.Minute)
		w.warm(ctx)
		require.EqualValues(t, 2, src.calls.Load())
		require.Equal(t, 1, readyCalls)
	})

	t.Run("failures keep the old token", func(t *testing.T) {
		src.fail.Store(true)
		now = now.Add(50 * time.Minute)
		w.warm(ctx)
		require.EqualValues(t, 2, src.calls.Load())
		tok, err := m.Token(ctx)
		require.NoError(t, err)
		require.Equal(t, "tok", tok)
	})
}

func TestTokenWarmerStopsOnCancel(t *testing.T) {
	m := auth.NewManager(auth.StaticSource("tok"))
	w := NewTokenWarmer(m, time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool { return m.Current() != nil }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("warmer did not stop")
	}
}
