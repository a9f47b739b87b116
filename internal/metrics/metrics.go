package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the bot's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Messages           *prometheus.CounterVec
	Denials            *prometheus.CounterVec
	Registrations      *prometheus.CounterVec
	BroadcastDelivered *prometheus.CounterVec
	PersistenceErrors  *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		Messages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_messages_total",
				Help: "Incoming messages by kind.",
			},
			[]string{"kind"},
		),
		Denials: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_access_denials_total",
				Help: "Denied commands by reason.",
			},
			[]string{"reason"},
		),
		Registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_registrations_total",
				Help: "Registration attempts by outcome.",
			},
			[]string{"outcome"},
		),
		BroadcastDelivered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_broadcast_deliveries_total",
				Help: "Broadcast deliveries by result.",
			},
			[]string{"result"},
		),
		PersistenceErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_persistence_errors_total",
				Help: "Failed store writes by store.",
			},
			[]string{"store"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	registry.MustRegister(
		m.Messages, m.Denials, m.Registrations, m.BroadcastDelivered,
		m.PersistenceErrors, m.HTTPRequests, m.HTTPDuration,
	)
	return m
}

// NewRegistry returns a registry with the Go runtime and process collectors attached.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Message(kind string) {
	if m == nil {
		return
	}
	m.Messages.WithLabelValues(kind).Inc()
}

func (m *Metrics) Denied(reason string) {
	if m == nil {
		return
	}
	m.Denials.WithLabelValues(reason).Inc()
}

func (m *Metrics) Registration(outcome string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Delivery(ok bool) {
	if m == nil {
		return
	}
	result := "sent"
	if !ok {
		result = "failed"
	}
	m.BroadcastDelivered.WithLabelValues(result).Inc()
}

func (m *Metrics) PersistenceError(store string) {
	if m == nil {
		return
	}
	m.PersistenceErrors.WithLabelValues(store).Inc()
}
