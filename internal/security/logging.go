package security

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// AccessLogMiddleware logs each management request. Requests for skipPaths
// are only logged when they fail.
func AccessLogMiddleware(skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		if skip[c.Request.URL.Path] && status < 500 {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		kv := []any{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"bytes", c.Writer.Size(),
			"duration", time.Since(start),
			"remote", c.ClientIP(),
		}
		if status >= 500 {
			log.Warn("Management request failed", kv...)
			return
		}
		log.Info("Management request", kv...)
	}
}
