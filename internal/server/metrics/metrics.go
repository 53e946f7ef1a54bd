// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	IngestRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvewatch_ingest_runs_total",
			Help: "Ingestion runs by outcome",
		},
		[]string{"outcome"},
	)

	IngestRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvewatch_ingest_records_total",
			Help: "Ingested records by result (inserted, skipped, failed)",
		},
		[]string{"result"},
	)

	FieldFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvewatch_field_fallbacks_total",
			Help: "Columns that fell back to N/A during normalization",
		},
		[]string{"field"},
	)

	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cvewatch_fetch_duration_seconds",
			Help:    "Duration of upstream feed fetches",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvewatch_http_requests_total",
			Help: "HTTP requests by route template and status code",
		},
		[]string{"route", "code"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
