// Package metrics holds the Prometheus collectors of the chat engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gobychat"

// Metrics is the set of collectors registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	MessagesRouted  *prometheus.CounterVec
	RouteFailures   *prometheus.CounterVec
	OnlineUsers     prometheus.Gauge
	Sessions        prometheus.Gauge
	FramesDropped   prometheus.Counter
	DeliveryFailure *prometheus.CounterVec
}

// New creates the collectors and registers them, with process and Go runtime
// collectors, on a fresh registry.
func New(labels prometheus.Labels) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		MessagesRouted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "messages_routed_total",
			Help:        "Messages persisted and handed to delivery, by destination kind.",
			ConstLabels: labels,
		}, []string{"kind"}),
		RouteFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "route_failures_total",
			Help:        "Messages rejected or not persisted, by destination kind and reason.",
			ConstLabels: labels,
		}, []string{"kind", "reason"}),
		OnlineUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "online_users",
			Help:        "Identities currently online.",
			ConstLabels: labels,
		}),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "websocket_sessions",
			Help:        "Open WebSocket sessions, anonymous ones included.",
			ConstLabels: labels,
		}),
		FramesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "websocket_frames_dropped_total",
			Help:        "Outbound frames dropped because a session send buffer was full.",
			ConstLabels: labels,
		}),
		DeliveryFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "delivery_failures_total",
			Help:        "Live deliveries that could not be published, by destination kind.",
			ConstLabels: labels,
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.MessagesRouted,
		m.RouteFailures,
		m.OnlineUsers,
		m.Sessions,
		m.FramesDropped,
		m.DeliveryFailure,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		Registry:          m.registry,
		EnableOpenMetrics: true,
	})
}
