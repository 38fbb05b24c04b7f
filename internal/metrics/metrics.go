// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// guardDecisions counts route guard outcomes by page class and action.
	guardDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_guard_decisions_total",
		Help: "Route guard decisions by page class and action",
	}, []string{"class", "action"})

	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_upstream_requests_total",
		Help: "Upstream API calls by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portal_upstream_request_duration_seconds",
		Help:    "Latency of upstream API calls in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	// sessionEvents counts session lifecycle transitions (issued, expired, revoked, rejected).
	sessionEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_session_events_total",
		Help: "Session lifecycle events",
	}, []string{"event"})
)

// Upstream outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeRejected    = "rejected"
	OutcomeUnavailable = "unavailable"
)

// RecordGuardDecision records one route guard decision.
func RecordGuardDecision(class, action string) {
	guardDecisions.WithLabelValues(class, action).Inc()
}

// RecordUpstream records one upstream call.
func RecordUpstream(endpoint, outcome string, d time.Duration) {
	upstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	upstreamDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// RecordSessionEvent records a session lifecycle event.
func RecordSessionEvent(event string) {
	sessionEvents.WithLabelValues(event).Inc()
}
