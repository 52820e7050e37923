// Package system mounts the management probes and the Prometheus endpoint.
package system

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	registryroute "github.com/chirino/journal-service/internal/registry/route"
)

var (
	started = time.Now()
	// readyAt holds the unix nano time of the first MarkReady, or 0.
	readyAt atomic.Int64
)

// MarkReady flips /ready to 200. Later calls keep the first timestamp.
func MarkReady() {
	readyAt.CompareAndSwap(0, time.Now().UnixNano())
}

func Ready() bool {
	return readyAt.Load() != 0
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(started) / time.Second),
	})
}

func readiness(c *gin.Context) {
	at := readyAt.Load()
	if at == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "waiting for token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"since":  time.Unix(0, at).UTC().Format(time.RFC3339),
	})
}

func init() {
	registryroute.Register(registryroute.Plugin{
		Name:  "system",
		Order: 0,
		Loader: func(r *gin.Engine) error {
			r.GET("/health", health)
			r.GET("/ready", readiness)
			r.GET("/metrics", gin.WrapH(promhttp.Handler()))
			return nil
		},
	})
}
