// Package metrics exposes process counters over Prometheus's text
// exposition format. There is no in-pack source example of
// prometheus/client_golang to ground this on (see DESIGN.md), so the
// shape here follows the library's own documented idiom: register
// collectors at construction, mount promhttp.Handler() on a mux.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors.
type Metrics struct {
	reg *prometheus.Registry

	RoomsActive       prometheus.Gauge
	ConnectionsActive prometheus.Gauge
	PacketsIn         *prometheus.CounterVec
	PacketsOut        *prometheus.CounterVec
	MatchesFinished   *prometheus.CounterVec
}

// New builds a fresh registry and registers every collector against it.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		reg: reg,
		RoomsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "pigwar",
			Name:      "rooms_active",
			Help:      "Number of rooms currently held by the registry.",
		}),
		ConnectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "pigwar",
			Name:      "connections_active",
			Help:      "Number of currently open TCP connections.",
		}),
		PacketsIn: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pigwar",
			Name:      "packets_in_total",
			Help:      "Frames received from clients, by message id.",
		}, []string{"msg_id"}),
		PacketsOut: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pigwar",
			Name:      "packets_out_total",
			Help:      "Frames sent to clients, by message id.",
		}, []string{"msg_id"}),
		MatchesFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pigwar",
			Name:      "matches_finished_total",
			Help:      "Completed matches, by win reason.",
		}, []string{"win_type"}),
	}
}

// Handler returns the HTTP handler to mount at /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
