package utils

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ReqCount counts HTTP requests by method, path, and status.
	ReqCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wisesober_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ReqDuration observes request latency by method and path.
	ReqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "wisesober_request_duration_seconds",
			Help: "Request duration seconds",
		},
		[]string{"method", "path"},
	)

	// SummaryGenerations counts summary-generation outcomes.
	SummaryGenerations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wisesober_summary_generations_total",
			Help: "Summary generation attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// InitMetrics registers all collectors with the default registry.
func InitMetrics() {
	prometheus.MustRegister(ReqCount, ReqDuration, SummaryGenerations)
}
