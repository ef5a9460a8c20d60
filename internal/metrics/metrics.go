// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scratchdrop_submissions_total",
			Help: "Total number of saved submissions by persistence mode",
		},
		[]string{"mode"},
	)

	LocalWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scratchdrop_local_write_failures_total",
			Help: "Local list writes that failed and were swallowed",
		},
	)

	LoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scratchdrop_loads_total",
			Help: "Submission list loads by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	DeletesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scratchdrop_deletes_total",
			Help: "Submission deletes by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scratchdrop_exports_total",
			Help: "CSV exports by trigger",
		},
		[]string{"trigger"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
