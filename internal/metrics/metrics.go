// Package metrics holds the bot's Prometheus collectors and the ops HTTP server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hotelsbot"

var (
	// DirectoryRequests counts hotels API calls by endpoint and status.
	DirectoryRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "directory_requests_total", Help: "Hotels API calls."},
		[]string{"endpoint", "status"},
	)
	// DirectoryLatency records hotels API call durations by endpoint.
	DirectoryLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "directory_request_duration_seconds",
			Help:    "Hotels API call duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
	// Conversations counts finished search conversations by command and outcome.
	Conversations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "conversations_total", Help: "Finished search conversations."},
		[]string{"command", "outcome"},
	)
	// HistoryWrites counts history store writes by status (ok or fail).
	HistoryWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "history_writes_total", Help: "History store writes."},
		[]string{"status"},
	)
)

// InitRegistry returns a registry holding the bot collectors plus Go runtime metrics.
func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(DirectoryRequests, DirectoryLatency, Conversations, HistoryWrites)
	reg.MustRegister(prometheus.NewGoCollector())
	return reg
}

// MetricsHandler exposes reg in the Prometheus text format.
func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// ObserveDirectory records one hotels API call. status is the HTTP code or
// "error" when no response arrived.
func ObserveDirectory(endpoint, status string, dur time.Duration) {
	DirectoryRequests.WithLabelValues(endpoint, status).Inc()
	DirectoryLatency.WithLabelValues(endpoint).Observe(dur.Seconds())
}

// ObserveConversation records how a search conversation ended.
func ObserveConversation(command, outcome string) {
	Conversations.WithLabelValues(command, outcome).Inc()
}

// ObserveHistoryWrite records a history write result.
func ObserveHistoryWrite(err error) {
	status := "ok"
	if err != nil {
		status = "fail"
	}
	HistoryWrites.WithLabelValues(status).Inc()
}
