// Package metrics exposes Prometheus counters for the funding workflow.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "funding_workflow_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "funding_workflow_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "funding_workflow_submissions_total",
			Help: "Total number of funding request submissions by outcome",
		},
		[]string{"outcome"},
	)

	decisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "funding_workflow_decisions_total",
			Help: "Total number of decision attempts by decision and outcome",
		},
		[]string{"decision", "outcome"},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "funding_workflow_notifications_total",
			Help: "Total number of notification sends by audience and result",
		},
		[]string{"audience", "result"},
	)
)

// RecordHTTPRequest records one served request; status is collapsed to its class
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	statusClass := "unknown"
	switch {
	case status >= 200 && status < 300:
		statusClass = "2xx"
	case status >= 300 && status < 400:
		statusClass = "3xx"
	case status >= 400 && status < 500:
		statusClass = "4xx"
	case status >= 500:
		statusClass = "5xx"
	}
	httpRequestsTotal.WithLabelValues(method, route, statusClass).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordSubmission(outcome string) {
	submissionsTotal.WithLabelValues(outcome).Inc()
}

// RecordDecision counts a decide call; outcome is "success" or the error class
func RecordDecision(decision, outcome string) {
	if decision == "" {
		decision = "invalid"
	}
	decisionsTotal.WithLabelValues(decision, outcome).Inc()
}

func RecordNotification(audience, result string) {
	notificationsTotal.WithLabelValues(audience, result).Inc()
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
