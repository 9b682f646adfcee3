// Package metrics provides Prometheus metrics for the chat backend.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the dispatcher and HTTP metrics. A nil *Metrics records nothing.
type Metrics struct {
	SendsTotal    *prometheus.CounterVec
	SendDuration  *prometheus.HistogramVec
	SendsInFlight prometheus.Gauge

	HTTPRequestsTotal *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{}

	m.SendsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fioschat_sends_total",
			Help: "Messages sent, by category and outcome",
		},
		[]string{"category", "outcome"},
	)

	m.SendDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fioschat_send_duration_seconds",
			Help:    "Time from user message to reply or failure",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"category", "mode"},
	)

	m.SendsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "fioschat_sends_in_flight",
			Help: "Sends waiting for a reply",
		},
	)

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fioschat_http_requests_total",
			Help: "HTTP API requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	return m
}

// RecordSend records the outcome of one send.
func (m *Metrics) RecordSend(category, mode, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.SendsTotal.WithLabelValues(category, outcome).Inc()
	m.SendDuration.WithLabelValues(category, mode).Observe(d.Seconds())
}

// SendStarted marks a send as waiting for its reply.
func (m *Metrics) SendStarted() {
	if m == nil {
		return
	}
	m.SendsInFlight.Inc()
}

// SendFinished undoes SendStarted.
func (m *Metrics) SendFinished() {
	if m == nil {
		return
	}
	m.SendsInFlight.Dec()
}

// RecordHTTPRequest counts a request by route template and status class.
func (m *Metrics) RecordHTTPRequest(method, route string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, statusClass(status)).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
