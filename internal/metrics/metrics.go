// Package metrics provides Prometheus collectors for the planner.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration tracks HTTP request duration by method, path, and status code.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status_code"},
	)

	// HTTPRequestTotal tracks total HTTP requests by method, path, and status code.
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	// PlanRunsTotal counts pipeline runs by resulting plan status.
	PlanRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_runs_total",
			Help: "Total number of planning runs",
		},
		[]string{"status"},
	)

	// PlanRunDuration tracks end-to-end plan computation time, source loads included.
	PlanRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "planner_run_duration_seconds",
			Help:    "Planning run duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// ShortageEvents is the number of shortage events in the latest run.
	ShortageEvents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "planner_shortage_events",
			Help: "Shortage events produced by the latest run",
		},
	)

	// DataIssuesTotal counts report issues by stage and kind.
	DataIssuesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_data_issues_total",
			Help: "Total number of data issues reported by planning runs",
		},
		[]string{"stage", "kind"},
	)

	// SourceLoadDuration tracks source fetch latency by source and result.
	SourceLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "planner_source_load_duration_seconds",
			Help:    "Source load duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source", "result"},
	)

	// CacheOperationsTotal tracks source cache lookups.
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Total number of cache operations",
		},
		[]string{"operation", "result"},
	)
)

// PrometheusMiddleware returns a Gin middleware that collects HTTP metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		duration := time.Since(start).Seconds()
		statusCode := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method

		HTTPRequestDuration.WithLabelValues(method, path, statusCode).Observe(duration)
		HTTPRequestTotal.WithLabelValues(method, path, statusCode).Inc()
	}
}

// RecordPlanRun records metrics for one planning run.
func RecordPlanRun(duration time.Duration, status string, events int) {
	PlanRunDuration.Observe(duration.Seconds())
	PlanRunsTotal.WithLabelValues(status).Inc()
	ShortageEvents.Set(float64(events))
}

// RecordDataIssue counts one report issue.
func RecordDataIssue(stage, kind string) {
	DataIssuesTotal.WithLabelValues(stage, kind).Inc()
}

// RecordSourceLoad records a source fetch; result is "ok" or "error".
func RecordSourceLoad(source string, duration time.Duration, result string) {
	SourceLoadDuration.WithLabelValues(source, result).Observe(duration.Seconds())
}

// RecordCacheOperation records metrics for a cache operation.
func RecordCacheOperation(operation, result string) {
	CacheOperationsTotal.WithLabelValues(operation, result).Inc()
}
