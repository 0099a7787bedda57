package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for form sessions
type Metrics struct {
	registry       *prometheus.Registry
	recomputes     *prometheus.CounterVec // Recomputes by variant and result (ok/invalid)
	events         *prometheus.CounterVec // Client events by type
	sessionsActive prometheus.Gauge       // Open WebSocket sessions
}

// NewMetrics creates the collectors on a private registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		recomputes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "modcalc_recomputes_total",
			Help: "Data rate recomputations by variant and result",
		}, []string{"variant", "result"}),
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "modcalc_events_total",
			Help: "Form events received by type",
		}, []string{"type"}),
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "modcalc_sessions_active",
			Help: "Open form sessions",
		}),
	}
}

// Recomputed implements host.Observer
func (m *Metrics) Recomputed(variant string, ok bool) {
	result := "ok"
	if !ok {
		result = "invalid"
	}
	m.recomputes.WithLabelValues(variant, result).Inc()
}

func (m *Metrics) event(kind string) {
	m.events.WithLabelValues(kind).Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
