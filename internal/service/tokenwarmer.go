package service

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirino/journal-service/internal/docstore/auth"
)

// TokenWarmer keeps the cached bearer token fresh so that refreshes happen
// on its ticker instead of on the request path.
type TokenWarmer struct {
	manager  *auth.Manager
	interval time.Duration
	now      func() time.Time
	onReady  func()
	ready    bool
}

// NewTokenWarmer creates a warmer. onReady, if set, runs once after the
// first successful fetch.
func NewTokenWarmer(m *auth.Manager, interval time.Duration, onReady func()) *TokenWarmer {
	return &TokenWarmer{
		manager:  m,
		interval: interval,
		now:      time.Now,
		onReady:  onReady,
	}
}

// Start warms the token immediately and then on every tick. Returns when ctx
// is cancelled.
func (w *TokenWarmer) Start(ctx context.Context) {
	w.warm(ctx)
	if w.interval <= 0 {
		return
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.warm(ctx)
		}
	}
}

// warm refreshes when the cached token would drop below MinRemaining
// before the next tick.
func (w *TokenWarmer) warm(ctx context.Context) {
	var err error
	cur := w.manager.Current()
	switch {
	case cur == nil:
		_, err = w.manager.Token(ctx)
	case !cur.Valid(w.now().Add(w.interval)):
		log.Debug("Token warmer: refreshing", "expiry", cur.Expiry)
		err = w.manager.Renew(ctx)
	}
	if err != nil {
		if ctx.Err() == nil {
			log.Warn("Token warmer: refresh failed", "source", w.manager.SourceName(), "err", err)
		}
		return
	}
	if !w.ready {
		w.ready = true
		if w.onReady != nil {
			w.onReady()
		}
	}
}
