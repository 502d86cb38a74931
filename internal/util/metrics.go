package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ImportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imports_total",
		Help: "Total number of spreadsheet imports by mode",
	}, []string{"mode"})

	ImportsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imports_failed_total",
		Help: "Total number of failed imports",
	}, []string{"reason"})

	ImportRowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "import_rows_total",
		Help: "Total number of consolidated product rows written by imports",
	})

	ImportDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "import_duration_seconds",
		Help:    "End-to-end duration of an import (parse, consolidate, write)",
		Buckets: prometheus.DefBuckets,
	})

	BulkBatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bulk_upsert_batches_total",
		Help: "Total number of upsert batches written",
	})

	BulkBatchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bulk_upsert_batch_failures_total",
		Help: "Total number of upsert batches that failed",
	})

	CatalogFetchPages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_fetch_pages_total",
		Help: "Total number of catalog pages fetched",
	})

	CatalogFetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_fetch_errors_total",
		Help: "Total number of catalog page fetches that failed",
	})

	CartMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Total number of cart mutations by operation",
	}, []string{"op"})

	QuotesGeneratedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quotes_generated_total",
		Help: "Total number of exported quotes by format",
	}, []string{"format"})

	AdminUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admin_product_updates_total",
		Help: "Total number of direct admin product updates",
	})

	AdminUpdatesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admin_product_updates_rejected_total",
		Help: "Total number of admin updates rejected for a bad secret",
	})

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
