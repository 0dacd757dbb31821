package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the Prometheus collectors used across the service.
type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrorsTotal     *prometheus.CounterVec
	lifecycleOpsTotal   *prometheus.CounterVec
	overdueSweepTotal   prometheus.Counter
}

// NewMetrics registers collectors on the default registry.
func NewMetrics(prefix string) *Metrics {
	if prefix == "" {
		prefix = "resource_hub"
	}
	return &Metrics{
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		httpErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_errors_total",
				Help: "Total number of HTTP error responses",
			},
			[]string{"method", "path", "code"},
		),
		lifecycleOpsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_request_lifecycle_operations_total",
				Help: "Total number of request lifecycle transitions",
			},
			[]string{"operation"},
		),
		overdueSweepTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_allocations_marked_overdue_total",
				Help: "Total number of allocations flipped to overdue by the sweeper",
			},
		),
	}
}

// RecordRequest tracks one served HTTP request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordError tracks one translated error response.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.httpErrorsTotal.WithLabelValues(method, path, code).Inc()
}

// RecordLifecycleOperation tracks a request state transition.
func (m *Metrics) RecordLifecycleOperation(operation string) {
	if m == nil {
		return
	}
	m.lifecycleOpsTotal.WithLabelValues(operation).Inc()
}

// RecordOverdue tracks allocations swept into the overdue state.
func (m *Metrics) RecordOverdue(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.overdueSweepTotal.Add(float64(count))
}
