package config

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ListenerConfig holds the network/TLS settings for a single listener.
type ListenerConfig struct {
	Port              int
	EnablePlainText   bool
	EnableTLS         bool
	TLSCertFile       string
	TLSKeyFile        string
	ReadHeaderTimeout time.Duration
}

type contextKey struct{}

// WithContext returns a new context carrying the given Config.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, contextKey{}, cfg)
}

// FromContext retrieves the Config from the context.
func FromContext(ctx context.Context) *Config {
	cfg, _ := ctx.Value(contextKey{}).(*Config)
	return cfg
}

const (
	ModeProd    = "prod"
	ModeTesting = "testing"
)

const (
	DefaultEndpoint   = "https://firestore.googleapis.com/v1"
	DefaultDatabaseID = "(default)"
)

// Config holds all configuration for the journal service.
type Config struct {
	// Mode is "prod" (default) or "testing". Testing mode skips the
	// startup token check.
	Mode string

	// Document store
	ProjectID       string
	DatabaseID      string
	Endpoint        string
	CredentialsFile string
	// EmulatorHost (host:port) switches to the local emulator with a fixed token.
	EmulatorHost string

	// Per-request bound for document-store calls.
	RequestTimeout time.Duration
	// Bound for one token exchange.
	TokenTimeout time.Duration
	// Interval of the background token warmer. Zero disables it.
	TokenWarmInterval time.Duration

	// Store backend type
	DatastoreType string // "firestore"

	// Cache backend type
	CacheType string // "none", "local" or "redis"

	// Redis
	RedisURL string

	// TTL for cached app catalog listings.
	AppCatalogTTL time.Duration

	// Upper bound for the local cache, in bytes.
	LocalCacheMaxBytes int64

	// MetricsLabels is a comma-separated list of key=value pairs added as
	// constant labels to all Prometheus metrics. Values support ${VAR} expansion.
	// Defaults to "service=journal-service".
	MetricsLabels string

	// Management server
	ManagementListener ListenerConfig
	// ManagementAccessLog enables HTTP access logging for /health, /ready and /metrics.
	ManagementAccessLog bool

	// Graceful shutdown drain timeout (seconds)
	DrainTimeout int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Mode:               ModeProd,
		DatabaseID:         DefaultDatabaseID,
		Endpoint:           DefaultEndpoint,
		RequestTimeout:     30 * time.Second,
		TokenTimeout:       10 * time.Second,
		TokenWarmInterval:  5 * time.Minute,
		DatastoreType:      "firestore",
		CacheType:          "none",
		AppCatalogTTL:      5 * time.Minute,
		LocalCacheMaxBytes: 32 << 20,
		MetricsLabels:      "service=journal-service",
		ManagementListener: ListenerConfig{
			Port:              9090,
			EnablePlainText:   true,
			ReadHeaderTimeout: 5 * time.Second,
		},
		DrainTimeout: 30,
	}
}

// ResolvedEndpoint returns the REST endpoint, honoring the emulator host.
func (c *Config) ResolvedEndpoint() string {
	if c.EmulatorHost != "" {
		return "http://" + strings.TrimSuffix(c.EmulatorHost, "/") + "/v1"
	}
	if c.Endpoint == "" {
		return DefaultEndpoint
	}
	return strings.TrimSuffix(c.Endpoint, "/")
}

// ResolvedProjectID returns ProjectID, falling back to the project named in
// the service account file.
func (c *Config) ResolvedProjectID() (string, error) {
	if c.ProjectID != "" {
		return c.ProjectID, nil
	}
	sa, err := c.LoadServiceAccount()
	if err != nil {
		return "", err
	}
	if sa != nil && sa.ProjectID != "" {
		return sa.ProjectID, nil
	}
	return "", fmt.Errorf("project id is required: set FIREBASE_PROJECT_ID or use a credentials file with project_id")
}
