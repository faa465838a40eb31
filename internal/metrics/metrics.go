// Package metrics exposes Prometheus counters for the RSVP server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Submission outcomes
const (
	OutcomeCreated   = "created"
	OutcomeDuplicate = "duplicate"
	OutcomeInvalid   = "invalid"
	OutcomeFailed    = "failed"
)

// Metrics owns a private registry so tests and multiple servers do not collide
type Metrics struct {
	Registry *prometheus.Registry

	Submissions   *prometheus.CounterVec
	Exports       *prometheus.CounterVec
	Notifications *prometheus.CounterVec
	Requests      *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wedding",
			Name:      "rsvp_submissions_total",
			Help:      "RSVP submissions by outcome and attendance.",
		}, []string{"outcome", "attending"}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wedding",
			Name:      "rsvp_exports_total",
			Help:      "Export requests by HTTP status.",
		}, []string{"status"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wedding",
			Name:      "notifications_total",
			Help:      "Host notifications by channel and result.",
		}, []string{"channel", "result"}),
		Requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wedding",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route, method and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Submissions,
		m.Exports,
		m.Notifications,
		m.Requests,
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveSubmission(outcome, attending string) {
	if attending == "" {
		attending = "unknown"
	}
	m.Submissions.WithLabelValues(outcome, attending).Inc()
}

func (m *Metrics) ObserveExport(status int) {
	m.Exports.WithLabelValues(strconv.Itoa(status)).Inc()
}

func (m *Metrics) ObserveNotification(channel string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Notifications.WithLabelValues(channel, result).Inc()
}

func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	m.Requests.WithLabelValues(route, method, strconv.Itoa(status)).Observe(d.Seconds())
}
