package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AuditQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audit_queue_depth",
			Help: "Current number of audit jobs waiting for a worker.",
		},
	)

	AuditJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_jobs_total",
			Help: "Total number of audit jobs by terminal status.",
		},
		[]string{"status"}, // completed, failed
	)

	PageAnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "page_analyses_total",
			Help: "Total number of page analyses.",
		},
		[]string{"status", "error_type"},
	)

	PageAnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "page_analysis_duration_seconds",
			Help:    "Duration of single page analyses.",
			Buckets: []float64{1, 5, 10, 15, 30, 60, 120},
		},
	)

	BrowserPoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "browser_pool_size",
			Help: "Current number of live browser processes in the pool.",
		},
	)

	LighthouseRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lighthouse_runs_total",
			Help: "Total number of Lighthouse runs.",
		},
		[]string{"strategy", "status"},
	)
)
