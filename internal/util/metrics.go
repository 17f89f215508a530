package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DashboardRendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_renders_total",
		Help: "Total number of dashboard render cycles",
	}, []string{"view"})

	DashboardRenderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dashboard_render_latency_seconds",
		Help:    "Latency of a full render cycle",
		Buckets: prometheus.DefBuckets,
	}, []string{"view"})

	DashboardLoadLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dashboard_load_latency_seconds",
		Help:    "Latency of loading and building the dashboard tables",
		Buckets: prometheus.DefBuckets,
	})

	FetchFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_fetch_failures_total",
		Help: "Total number of failed entity fetches",
	}, []string{"entity"})

	JoinErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_join_errors_total",
		Help: "Total number of rows skipped for a missing nested relation",
	}, []string{"entity"})

	ParseErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_parse_errors_total",
		Help: "Total number of rows with unusable dates or values",
	}, []string{"table", "field"})

	SnapshotCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_snapshot_cache_total",
		Help: "Snapshot cache lookups by result",
	}, []string{"result"})

	CustomerExportsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_customer_exports_total",
		Help: "Total number of customer CSV exports",
	})

	CacheInvalidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_cache_invalidations_total",
		Help: "Total number of snapshot invalidations by trigger",
	}, []string{"trigger"})

	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dashboard_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"name"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
