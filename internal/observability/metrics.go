package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	turnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidsense_turns_total",
			Help: "Total number of conversation turns processed",
		},
		[]string{"kind", "status"},
	)

	capabilityCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidsense_capability_calls_total",
			Help: "Total number of capability invocations",
		},
		[]string{"capability", "status"},
	)

	capabilityCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidsense_capability_call_duration_seconds",
			Help:    "Capability invocation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"capability"},
	)

	routingDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidsense_routing_decisions_total",
			Help: "Total number of router decisions",
		},
		[]string{"graph", "choice"},
	)

	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidsense_active_sessions",
			Help: "Number of sessions currently in the store",
		},
	)

	registerOnce sync.Once
)

// InitMetrics registers all metrics with the default registry.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			turnsTotal,
			capabilityCallsTotal,
			capabilityCallDuration,
			routingDecisionsTotal,
			activeSessions,
		)
	})
}

// MetricsHandler returns the Prometheus scrape handler.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordTurn records one completed turn.
func RecordTurn(kind, status string) {
	turnsTotal.WithLabelValues(kind, status).Inc()
}

// RecordCapabilityCall records one capability invocation with its duration.
func RecordCapabilityCall(capability, status string, duration time.Duration) {
	capabilityCallsTotal.WithLabelValues(capability, status).Inc()
	capabilityCallDuration.WithLabelValues(capability).Observe(duration.Seconds())
}

// RecordRoutingDecision records one router choice.
func RecordRoutingDecision(graph, choice string) {
	routingDecisionsTotal.WithLabelValues(graph, choice).Inc()
}

// SetActiveSessions updates the active session gauge.
func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}
