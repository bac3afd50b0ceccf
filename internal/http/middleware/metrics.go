// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file holds the Prometheus collectors of the HTTP layer:
//
//   - http_requests_total{method,path,status}
//   - http_request_duration_seconds{method,path}
//   - http_requests_inflight
//   - http_response_size_bytes{method,path}
//   - api_errors_total{kind}          incremented by ErrorHandler
//   - auth_failures_total{reason}     incremented by the auth gates
//
// "path" is the registered route (c.FullPath()) so cardinality stays bounded;
// unmatched requests are folded into a single "unmatched" value.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const unmatchedPath = "unmatched"

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// Buckets sized for JSON envelopes up to the upload limit.
	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Size of HTTP responses in bytes.",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8), // 256B..4MiB
		},
		[]string{"method", "path"},
	)

	apiErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Failure bodies written by the error handler, by error kind.",
		},
		[]string{"kind"},
	)

	authFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_failures_total",
			Help: "Requests rejected by an authentication gate, by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpRespSize, apiErrors, authFailures)
}

// Metrics instruments requests with the HTTP collectors above. Expose them
// with promhttp on /metrics.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = unmatchedPath
		}
		method := c.Request.Method

		httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		// Size is -1 when nothing was written (e.g. hijacked connections).
		if size := c.Writer.Size(); size >= 0 {
			httpRespSize.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}
