// Package metrics holds the Prometheus collectors of the service.
//
// Collectors live on a private registry (not the global default) so tests
// can read them without interference from other packages.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "circle",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "circle",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	emailsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "circle",
			Subsystem: "email",
			Name:      "sent_total",
			Help:      "Transactional emails by template and result.",
		},
		[]string{"template", "result"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "circle",
			Subsystem: "notifications",
			Name:      "fanout_total",
			Help:      "Notification recipients by delivery mode (instant, digest, skipped).",
		},
		[]string{"kind", "mode"},
	)

	digestRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "circle",
			Subsystem: "notifications",
			Name:      "digest_runs_total",
			Help:      "Digest flush runs by result.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		emailsSent,
		notifications,
		digestRuns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one finished HTTP request.
func ObserveHTTP(method, route, status string, seconds float64) {
	httpRequests.WithLabelValues(method, route, status).Inc()
	httpDuration.WithLabelValues(method, route).Observe(seconds)
}

// EmailSent records a send attempt for a template key.
func EmailSent(template string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	emailsSent.WithLabelValues(template, result).Inc()
}

// NotificationRouted records one recipient routed to mode for kind.
func NotificationRouted(kind, mode string) {
	notifications.WithLabelValues(kind, mode).Inc()
}

// DigestRun records a digest flush outcome.
func DigestRun(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	digestRuns.WithLabelValues(result).Inc()
}
