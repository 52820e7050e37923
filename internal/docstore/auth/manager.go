// Package auth acquires and caches the bearer token used for document-store
// requests.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirino/journal-service/internal/config"
	"github.com/chirino/journal-service/internal/security"
	"golang.org/x/sync/singleflight"
)

const (
	// MinRemaining is the least validity a handed-out token may have.
	MinRemaining = 60 * time.Second
	// CacheLifetime is how long a fetched token is cached. It sits five
	// minutes below the provider's one hour lifetime.
	CacheLifetime = 3300 * time.Second

	defaultFetchTimeout = 10 * time.Second
)

// Scopes requested for document-store access.
var Scopes = []string{
	"https://www.googleapis.com/auth/datastore",
	"https://www.googleapis.com/auth/cloud-platform",
}

// Source fetches a fresh bearer token.
type Source interface {
	// Name identifies the source in logs and metrics.
	Name() string
	Fetch(ctx context.Context) (string, error)
}

// Error reports that no usable token could be obtained.
type Error struct {
	Source string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("auth: %s token: %v", e.Source, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Token is an immutable cached bearer token.
type Token struct {
	Value  string
	Expiry time.Time
}

// Valid reports whether t has more than MinRemaining left at now.
func (t *Token) Valid(now time.Time) bool {
	return t != nil && t.Expiry.Sub(now) > MinRemaining
}

// Manager caches one token and refreshes it from a Source when it gets
// close to expiry. It is safe for concurrent use.
type Manager struct {
	source       Source
	fetchTimeout time.Duration
	now          func() time.Time

	mu     sync.RWMutex
	cached *Token

	flight singleflight.Group
}

type Option func(*Manager)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithFetchTimeout bounds each token fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.fetchTimeout = d
		}
	}
}

// flightKey collapses every fetch, whether from Token or Renew.
const flightKey = "token"

func NewManager(src Source, opts ...Option) *Manager {
	m := &Manager{
		source:       src,
		fetchTimeout: defaultFetchTimeout,
		now:          time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// SourceName returns the name of the configured source.
func (m *Manager) SourceName() string { return m.source.Name() }

// Current returns the cached token, or nil. It never fetches.
func (m *Manager) Current() *Token {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cached
}

func (m *Manager) fresh() *Token {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cached.Valid(m.now()) {
		return m.cached
	}
	return nil
}

// Token returns a bearer token with at least MinRemaining validity,
// fetching a new one if needed. Concurrent fetches are collapsed into one;
// each caller still returns early if its own ctx ends.
func (m *Manager) Token(ctx context.Context) (string, error) {
	if t := m.fresh(); t != nil {
		return t.Value, nil
	}

	ch := m.flight.DoChan(flightKey, func() (any, error) {
		if t := m.fresh(); t != nil {
			return t, nil
		}
		return m.fetch(ctx)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(*Token).Value, nil
	}
}

func (m *Manager) fetch(ctx context.Context) (*Token, error) {
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.fetchTimeout)
	defer cancel()

	issued := m.now()
	bearer, err := m.source.Fetch(fctx)
	if err == nil && bearer == "" {
		err = fmt.Errorf("empty token")
	}
	if err != nil {
		security.ObserveTokenRefresh(m.source.Name(), "error")
		log.Error("Failed to obtain access token", "source", m.source.Name(), "err", err)
		return nil, &Error{Source: m.source.Name(), Err: err}
	}

	t := &Token{Value: bearer, Expiry: issued.Add(CacheLifetime)}
	m.mu.Lock()
	m.cached = t
	m.mu.Unlock()

	security.ObserveTokenRefresh(m.source.Name(), "ok")
	log.Debug("Obtained access token", "source", m.source.Name(), "expiry", t.Expiry)
	return t, nil
}

// Invalidate drops the cached token so the next Token call fetches.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.cached = nil
	m.mu.Unlock()
}

// Refresh drops the cached token and fetches a new one.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	m.Invalidate()
	return m.Token(ctx)
}

// Renew fetches a new token while keeping the cached one until the fetch
// succeeds. It shares its flight with Token, so a renewal racing an
// expired-token fetch makes one exchange.
func (m *Manager) Renew(ctx context.Context) error {
	ch := m.flight.DoChan(flightKey, func() (any, error) {
		return m.fetch(ctx)
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

type contextKey struct{}

// WithContext returns a context carrying m.
func WithContext(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, contextKey{}, m)
}

// FromContext returns the Manager stored by WithContext, or nil.
func FromContext(ctx context.Context) *Manager {
	m, _ := ctx.Value(contextKey{}).(*Manager)
	return m
}

// NewManagerFromConfig builds a Manager with the source FromConfig selects.
func NewManagerFromConfig(cfg *config.Config) (*Manager, error) {
	src, err := FromConfig(cfg, nil)
	if err != nil {
		return nil, err
	}
	return NewManager(src, WithFetchTimeout(cfg.TokenTimeout)), nil
}
