package serve

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirino/journal-service/internal/cmd/flags"
	"github.com/chirino/journal-service/internal/config"
	registrycache "github.com/chirino/journal-service/internal/registry/cache"
	registrystore "github.com/chirino/journal-service/internal/registry/store"
	"github.com/urfave/cli/v3"

	// Import all plugins to trigger init() registration
	_ "github.com/chirino/journal-service/internal/plugin/cache/local"
	_ "github.com/chirino/journal-service/internal/plugin/cache/noop"
	_ "github.com/chirino/journal-service/internal/plugin/cache/redis"
	_ "github.com/chirino/journal-service/internal/plugin/route/system"
	_ "github.com/chirino/journal-service/internal/plugin/store/firestore"
)

// Command returns the serve sub-command.
func Command() *cli.Command {
	cfg := config.DefaultConfig()
	return &cli.Command{
		Name:  "serve",
		Usage: "Load the journal store, keep the bearer token warm and serve health and metrics",
		Flags: append(flags.Docstore(&cfg), serveFlags(&cfg)...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(config.WithContext(ctx, &cfg), cfg)
		},
	}
}

func serveFlags(cfg *config.Config) []cli.Flag {
	return []cli.Flag{

		// ── Token ─────────────────────────────────────────────────
		&cli.DurationFlag{
			Name:        "token-warm-interval",
			Category:    "Token:",
			Sources:     cli.EnvVars("JOURNAL_TOKEN_WARM_INTERVAL"),
			Destination: &cfg.TokenWarmInterval,
			Value:       cfg.TokenWarmInterval,
			Usage:       "How often the background warmer checks the bearer token (0 = warm once)",
		},

		// ── Store ─────────────────────────────────────────────────
		&cli.StringFlag{
			Name:        "store-kind",
			Category:    "Store:",
			Sources:     cli.EnvVars("JOURNAL_STORE_KIND"),
			Destination: &cfg.DatastoreType,
			Value:       cfg.DatastoreType,
			Usage:       "Journal store (" + strings.Join(registrystore.Names(), "|") + ")",
		},

		// ── Cache ─────────────────────────────────────────────────
		&cli.StringFlag{
			Name:        "cache-kind",
			Category:    "Cache:",
			Sources:     cli.EnvVars("JOURNAL_CACHE_KIND"),
			Destination: &cfg.CacheType,
			Value:       cfg.CacheType,
			Usage:       "App catalog cache (" + strings.Join(registrycache.Names(), "|") + ")",
		},
		&cli.StringFlag{
			Name:        "redis-url",
			Category:    "Cache:",
			Sources:     cli.EnvVars("JOURNAL_REDIS_URL"),
			Destination: &cfg.RedisURL,
			Usage:       "Redis URL for --cache-kind=redis",
		},
		&cli.DurationFlag{
			Name:        "app-catalog-ttl",
			Category:    "Cache:",
			Sources:     cli.EnvVars("JOURNAL_APP_CATALOG_TTL"),
			Destination: &cfg.AppCatalogTTL,
			Value:       cfg.AppCatalogTTL,
			Usage:       "How long approved app listings stay cached",
		},
		&cli.Int64Flag{
			Name:        "local-cache-max-bytes",
			Category:    "Cache:",
			Sources:     cli.EnvVars("JOURNAL_LOCAL_CACHE_MAX_BYTES"),
			Destination: &cfg.LocalCacheMaxBytes,
			Value:       cfg.LocalCacheMaxBytes,
			Usage:       "Size bound for --cache-kind=local",
		},

		// ── Management Network Listener ───────────────────────────
		&cli.IntFlag{
			Name:        "management-port",
			Category:    "Management Network Listener:",
			Sources:     cli.EnvVars("JOURNAL_MANAGEMENT_PORT"),
			Destination: &cfg.ManagementListener.Port,
			Value:       cfg.ManagementListener.Port,
			Usage:       "Port for /health, /ready and /metrics (0 = OS-assigned random port)",
		},
		&cli.BoolFlag{
			Name:        "management-plain-text",
			Category:    "Management Network Listener:",
			Sources:     cli.EnvVars("JOURNAL_MANAGEMENT_PLAIN_TEXT"),
			Destination: &cfg.ManagementListener.EnablePlainText,
			Value:       cfg.ManagementListener.EnablePlainText,
			Usage:       "Enable plaintext HTTP/1.1 + h2c",
		},
		&cli.BoolFlag{
			Name:        "management-tls",
			Category:    "Management Network Listener:",
			Sources:     cli.EnvVars("JOURNAL_MANAGEMENT_TLS"),
			Destination: &cfg.ManagementListener.EnableTLS,
			Value:       cfg.ManagementListener.EnableTLS,
			Usage:       "Enable TLS; uses a self-signed certificate unless cert and key files are set",
		},
		&cli.StringFlag{
			Name:        "management-tls-cert-file",
			Category:    "Management Network Listener:",
			Sources:     cli.EnvVars("JOURNAL_MANAGEMENT_TLS_CERT_FILE"),
			Destination: &cfg.ManagementListener.TLSCertFile,
			Usage:       "TLS certificate file",
		},
		&cli.StringFlag{
			Name:        "management-tls-key-file",
			Category:    "Management Network Listener:",
			Sources:     cli.EnvVars("JOURNAL_MANAGEMENT_TLS_KEY_FILE"),
			Destination: &cfg.ManagementListener.TLSKeyFile,
			Usage:       "TLS private key file",
		},
		&cli.BoolFlag{
			Name:        "management-access-log",
			Category:    "Management Network Listener:",
			Sources:     cli.EnvVars("JOURNAL_MANAGEMENT_ACCESS_LOG"),
			Destination: &cfg.ManagementAccessLog,
			Usage:       "Also log requests to /health, /ready and /metrics",
		},
		&cli.IntFlag{
			Name:        "drain-timeout-seconds",
			Category:    "Management Network Listener:",
			Sources:     cli.EnvVars("JOURNAL_DRAIN_TIMEOUT"),
			Destination: &cfg.DrainTimeout,
			Value:       cfg.DrainTimeout,
			Usage:       "Graceful shutdown bound in seconds",
		},

		// ── Monitoring ────────────────────────────────────────────
		&cli.StringFlag{
			Name:        "metrics-labels",
			Category:    "Monitoring:",
			Sources:     cli.EnvVars("JOURNAL_METRICS_LABELS"),
			Destination: &cfg.MetricsLabels,
			Value:       cfg.MetricsLabels,
			Usage:       "Comma-separated key=value pairs added as constant labels to all Prometheus metrics. Supports ${VAR} expansion.",
		},
	}
}

func run(ctx context.Context, cfg config.Config) error {
	srv, err := StartServer(ctx, &cfg)
	if err != nil {
		return err
	}
	<-ctx.Done()
	log.Info("Shutting down...")
	drainCtx, drainCancel := context.WithTimeout(context.Background(), time.Duration(cfg.DrainTimeout)*time.Second)
	defer drainCancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		log.Error("Shutdown error", "err", err)
	}
	log.Info("Server stopped")
	return nil
}
