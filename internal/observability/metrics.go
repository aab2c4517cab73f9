package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors exported on /metrics.
type Metrics struct {
	registry      *prometheus.Registry
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	errors        *prometheus.CounterVec
	bookings      *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

// NewMetrics registers collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tourism",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled.",
			},
			[]string{"method", "path", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tourism",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
			},
			[]string{"method", "path"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tourism",
				Subsystem: "http",
				Name:      "errors_total",
				Help:      "Requests that ended in a domain error, by code.",
			},
			[]string{"method", "path", "code"},
		),
		bookings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tourism",
				Subsystem: "bookings",
				Name:      "created_total",
				Help:      "Bookings created, by source channel.",
			},
			[]string{"source"},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tourism",
				Subsystem: "notifications",
				Name:      "emails_total",
				Help:      "Email delivery attempts, by template and result.",
			},
			[]string{"template", "result"},
		),
	}
	m.registry.MustRegister(
		m.requests,
		m.duration,
		m.errors,
		m.bookings,
		m.notifications,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRequest observes a finished request.
func (m *Metrics) RecordRequest(path, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// RecordError counts a request that failed with a domain error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(method, path, code).Inc()
}

// RecordBooking counts a created booking.
func (m *Metrics) RecordBooking(source string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(source).Inc()
}

// RecordNotification counts an email attempt. result is sent, retried or dead.
func (m *Metrics) RecordNotification(template, result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(template, result).Inc()
}
