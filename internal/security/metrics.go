package security

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// StoreLatency can be used by store implementations to record operation latency.
	StoreLatency *prometheus.HistogramVec

	// DocstoreRequestDuration records document-store HTTP calls by method and outcome.
	DocstoreRequestDuration *prometheus.HistogramVec

	// TokenRefreshesTotal counts bearer token fetches by source and outcome.
	TokenRefreshesTotal *prometheus.CounterVec

	// CacheRequestsTotal counts app catalog cache lookups by cache kind and result.
	CacheRequestsTotal *prometheus.CounterVec
)

var validLabelKey = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ParseMetricsLabels parses a comma-separated list of key=value pairs into
// Prometheus labels. Values support ${VAR} / $VAR environment variable expansion.
// Label values may not contain commas. Returns nil for an empty string.
func ParseMetricsLabels(s string) (prometheus.Labels, error) {
	s = os.Expand(s, os.Getenv)
	if s == "" {
		return nil, nil
	}
	labels := prometheus.Labels{}
	for _, pair := range strings.Split(s, ",") {
		idx := strings.IndexByte(pair, '=')
		if idx < 0 {
			return nil, fmt.Errorf("invalid label %q: expected key=value", pair)
		}
		k, v := pair[:idx], pair[idx+1:]
		if !validLabelKey.MatchString(k) {
			return nil, fmt.Errorf("invalid label key %q: must match [a-zA-Z_][a-zA-Z0-9_]*", k)
		}
		labels[k] = v
	}
	return labels, nil
}

var initMetricsOnce sync.Once

// InitMetrics registers all Prometheus metrics with the given constant labels.
// Safe to call multiple times; only the first call registers. Until it runs,
// the Observe helpers are no-ops.
func InitMetrics(constLabels prometheus.Labels) {
	initMetricsOnce.Do(func() {
		initMetricsInner(constLabels)
	})
}

func initMetricsInner(constLabels prometheus.Labels) {
	reg := prometheus.WrapRegistererWith(constLabels, prometheus.DefaultRegisterer)
	f := promauto.With(reg)

	httpRequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journal_management_requests_total",
			Help: "Total number of management HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "journal_management_request_duration_seconds",
			Help:    "Management HTTP request duration in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5},
		},
		[]string{"route"},
	)

	StoreLatency = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "journal_store_latency_seconds",
			Help:    "Journal store operation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DocstoreRequestDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "journal_docstore_request_duration_seconds",
			Help:    "Document store HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "outcome"},
	)

	TokenRefreshesTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journal_token_refresh_total",
			Help: "Total bearer token fetches",
		},
		[]string{"source", "outcome"},
	)

	CacheRequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journal_cache_requests_total",
			Help: "Total app catalog cache lookups",
		},
		[]string{"cache", "result"},
	)
}

// ObserveDocstoreRequest records one document-store call.
func ObserveDocstoreRequest(method, outcome string, start time.Time) {
	if DocstoreRequestDuration == nil {
		return
	}
	DocstoreRequestDuration.WithLabelValues(method, outcome).Observe(time.Since(start).Seconds())
}

// ObserveTokenRefresh records one token fetch attempt.
func ObserveTokenRefresh(source, outcome string) {
	if TokenRefreshesTotal == nil {
		return
	}
	TokenRefreshesTotal.WithLabelValues(source, outcome).Inc()
}

// ObserveCache records a cache lookup result: "hit", "miss" or "error".
func ObserveCache(cache, result string) {
	if CacheRequestsTotal == nil {
		return
	}
	CacheRequestsTotal.WithLabelValues(cache, result).Inc()
}

// ObserveStore records a store operation's latency.
func ObserveStore(op string, start time.Time) {
	if StoreLatency == nil {
		return
	}
	StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// MetricsMiddleware counts management requests by matched route, so
// unknown paths share the "unmatched" series.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if httpRequestsTotal == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
