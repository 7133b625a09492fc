// Package metrics provides Prometheus metrics for the object bridge.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cos_bridge_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cos_bridge_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	storeOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cos_bridge_store_operation_duration_seconds",
			Help:    "Object store operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	storeOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cos_bridge_store_operations_total",
			Help: "Total object store operations",
		},
		[]string{"backend", "operation", "status"},
	)

	uploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cos_bridge_upload_bytes_total",
			Help: "Total bytes written to the object store",
		},
	)

	folderDeleteRounds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cos_bridge_folder_delete_rounds",
			Help:    "List and batch-delete rounds needed per folder deletion",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
		},
	)
)

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordStoreOperation records a single object store call.
func RecordStoreOperation(backend, operation string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	storeOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	storeOperationsTotal.WithLabelValues(backend, operation, status).Inc()
}

// RecordUploadBytes adds n to the uploaded byte counter.
func RecordUploadBytes(n int64) {
	if n > 0 {
		uploadBytesTotal.Add(float64(n))
	}
}

// RecordFolderDeleteRounds observes how many listing pages a folder deletion consumed.
func RecordFolderDeleteRounds(rounds int) {
	folderDeleteRounds.Observe(float64(rounds))
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
