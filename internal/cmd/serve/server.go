package serve

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/chirino/journal-service/internal/config"
	"github.com/chirino/journal-service/internal/docstore/auth"
	routesystem "github.com/chirino/journal-service/internal/plugin/route/system"
	storemetrics "github.com/chirino/journal-service/internal/plugin/store/metrics"
	registrycache "github.com/chirino/journal-service/internal/registry/cache"
	registryroute "github.com/chirino/journal-service/internal/registry/route"
	registrystore "github.com/chirino/journal-service/internal/registry/store"
	"github.com/chirino/journal-service/internal/security"
	"github.com/chirino/journal-service/internal/service"
	"github.com/gin-gonic/gin"
)

// Server holds the running management server and the loaded journal store.
type Server struct {
	Config  *config.Config
	Store   registrystore.JournalStore
	Tokens  *auth.Manager
	Router  *gin.Engine
	Running *RunningListener
	stop    context.CancelFunc
}

// Shutdown stops the token warmer and drains the management listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stop()
	return s.Running.Close(ctx)
}

// StartServer loads the cache and store plugins, obtains the first bearer
// token and starts the management listener. Use ManagementListener.Port=0
// for a random port; the bound port is Server.Running.Port.
func StartServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	log.Info("Starting journal service",
		"mode", cfg.Mode,
		"managementPort", cfg.ManagementListener.Port,
		"store", cfg.DatastoreType,
		"cache", cfg.CacheType,
	)

	metricsLabels, err := security.ParseMetricsLabels(cfg.MetricsLabels)
	if err != nil {
		return nil, fmt.Errorf("invalid --metrics-labels: %w", err)
	}
	security.InitMetrics(metricsLabels)

	tokens := auth.FromContext(ctx)
	if tokens == nil {
		tokens, err = auth.NewManagerFromConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to configure credentials: %w", err)
		}
		ctx = auth.WithContext(ctx, tokens)
	}
	log.Info("Using token source", "source", tokens.SourceName())

	// A missing cache degrades to direct reads.
	if cacheLoader, err := registrycache.Select(cfg.CacheType); err != nil {
		log.Warn("Cache not available", "cache", cfg.CacheType, "err", err)
	} else if catalogCache, err := cacheLoader(ctx); err != nil {
		log.Warn("Failed to initialize cache", "cache", cfg.CacheType, "err", err)
	} else {
		ctx = registrycache.WithContext(ctx, catalogCache)
	}

	storeLoader, err := registrystore.Select(cfg.DatastoreType)
	if err != nil {
		return nil, err
	}
	store, err := storeLoader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	store = storemetrics.Wrap(store)

	if cfg.Mode != config.ModeTesting {
		if _, err := tokens.Token(ctx); err != nil {
			return nil, fmt.Errorf("startup token check failed: %w", err)
		}
	}

	router := newRouter(cfg)
	if err := registryroute.Mount(router); err != nil {
		return nil, fmt.Errorf("failed to load management routes: %w", err)
	}

	running, err := startListener(cfg.ManagementListener, router)
	if err != nil {
		return nil, err
	}
	log.Info("Management server listening",
		"port", running.Port,
		"plaintext", cfg.ManagementListener.EnablePlainText,
		"tls", cfg.ManagementListener.EnableTLS,
		"routes", registryroute.Names(),
	)

	bg, stop := context.WithCancel(context.WithoutCancel(ctx))
	if cfg.Mode == config.ModeTesting {
		routesystem.MarkReady()
	}
	warmer := service.NewTokenWarmer(tokens, cfg.TokenWarmInterval, routesystem.MarkReady)
	go warmer.Start(bg)

	return &Server{
		Config:  cfg,
		Store:   store,
		Tokens:  tokens,
		Router:  router,
		Running: running,
		stop:    stop,
	}, nil
}

func newRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.ManagementAccessLog {
		router.Use(security.AccessLogMiddleware())
	} else {
		router.Use(security.AccessLogMiddleware("/health", "/ready", "/metrics"))
	}
	router.Use(security.MetricsMiddleware())
	return router
}
