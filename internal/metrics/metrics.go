package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RequestMetrics holds the Prometheus instruments for the contact request
// lifecycle. Register once at startup and pass to the lifecycle service.
type RequestMetrics struct {
	RequestsCreatedTotal   prometheus.CounterVec
	TransitionsTotal       prometheus.CounterVec
	RequestsExpiredTotal   prometheus.Counter
	DisputesResolvedTotal  prometheus.CounterVec
	RequestErrorsTotal     prometheus.CounterVec
	ConfirmationLagSeconds prometheus.Histogram
}

// NewRequestMetrics creates and registers the lifecycle metrics.
func NewRequestMetrics() *RequestMetrics {
	return &RequestMetrics{
		RequestsCreatedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contact_requests_created_total",
				Help: "Total contact requests created, by requester role",
			},
			[]string{"requester_role"},
		),

		TransitionsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contact_request_transitions_total",
				Help: "Total lifecycle transitions, by resulting status",
			},
			[]string{"status"},
		),

		RequestsExpiredTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "contact_requests_expired_total",
				Help: "Total requests expired by the sweep",
			},
		),

		DisputesResolvedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contact_request_disputes_resolved_total",
				Help: "Total admin dispute resolutions, by final status",
			},
			[]string{"final_status"},
		),

		RequestErrorsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contact_request_errors_total",
				Help: "Total rejected lifecycle operations, by error kind",
			},
			[]string{"error_type"},
		),

		ConfirmationLagSeconds: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "contact_request_confirmation_lag_seconds",
				Help:    "Time between acceptance and a party's confirmation",
				Buckets: prometheus.ExponentialBuckets(60, 4, 10), // 1m, 4m, 16m...
			},
		),
	}
}

// RecordCreated counts a successful request creation.
func (m *RequestMetrics) RecordCreated(requesterRole string) {
	m.RequestsCreatedTotal.WithLabelValues(requesterRole).Inc()
	m.TransitionsTotal.WithLabelValues("pending").Inc()
}

// RecordTransition counts a lifecycle transition by its resulting status.
func (m *RequestMetrics) RecordTransition(status string) {
	m.TransitionsTotal.WithLabelValues(status).Inc()
}

// RecordExpired counts requests expired by one sweep run.
func (m *RequestMetrics) RecordExpired(count int64) {
	m.RequestsExpiredTotal.Add(float64(count))
	m.TransitionsTotal.WithLabelValues("expired").Add(float64(count))
}

// RecordDisputeResolved counts an admin override by its final status.
func (m *RequestMetrics) RecordDisputeResolved(finalStatus string) {
	m.DisputesResolvedTotal.WithLabelValues(finalStatus).Inc()
}

// RecordError counts a rejected lifecycle operation.
func (m *RequestMetrics) RecordError(errorType string) {
	m.RequestErrorsTotal.WithLabelValues(errorType).Inc()
}

// RecordConfirmationLag records how long a party took to confirm after
// acceptance.
func (m *RequestMetrics) RecordConfirmationLag(seconds float64) {
	m.ConfirmationLagSeconds.Observe(seconds)
}
