package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storeplane_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storeplane_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	provisionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storeplane_provision_duration_seconds",
		Help:    "Duration of store provisioning runs",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"result"})

	provisionAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storeplane_provision_attempts_total",
		Help: "Count of individual provisioning attempts by result",
	}, []string{"result"})

	teardownOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storeplane_teardown_operations_total",
		Help: "Count of store teardown operations by source and result",
	}, []string{"source", "result"})

	storesByStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "storeplane_stores",
		Help: "Number of store records by lifecycle status",
	}, []string{"status"})

	auditEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storeplane_audit_events_total",
		Help: "Count of audit events appended by action",
	}, []string{"action"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveProvision records the duration of a whole provisioning run with a result label.
func ObserveProvision(result string, duration time.Duration) {
	provisionDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// ObserveProvisionAttempt counts a single attempt inside a provisioning run.
func ObserveProvisionAttempt(result string) {
	provisionAttempts.WithLabelValues(result).Inc()
}

// ObserveTeardown increments the teardown counter for the given source and result.
func ObserveTeardown(source, result string) {
	teardownOperations.WithLabelValues(source, result).Inc()
}

// SetStoreCount sets the gauge for a lifecycle status.
func SetStoreCount(status string, count int) {
	if count < 0 {
		count = 0
	}
	storesByStatus.WithLabelValues(status).Set(float64(count))
}

// ObserveAuditEvent counts an appended audit event.
func ObserveAuditEvent(action string) {
	auditEventsTotal.WithLabelValues(action).Inc()
}
