package metrics

import (
	"net/http"

	"github.com/dkeye/fastcall/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fastcall"

// Metrics implements app.Recorder on a private Prometheus registry.
type Metrics struct {
	registry *prometheus.Registry

	connections    prometheus.Counter
	disconnections prometheus.Counter
	routed         *prometheus.CounterVec
	dropped        *prometheus.CounterVec
	sendFailures   *prometheus.CounterVec
}

// New registers the collectors. rooms and sessions are sampled on scrape.
func New(rooms, sessions func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		connections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Accepted signaling connections.",
		}),
		disconnections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "disconnections_total",
			Help:      "Signaling connections torn down.",
		}),
		routed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_routed_total",
			Help:      "Messages relayed to a room, by type.",
		}, []string{"type"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_dropped_total",
			Help:      "Inbound messages not relayed, by reason.",
		}, []string{"reason"}),
		sendFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_failures_total",
			Help:      "Per-recipient send failures, by reason.",
		}, []string{"reason"}),
	}

	m.registry.MustRegister(
		m.connections,
		m.disconnections,
		m.routed,
		m.dropped,
		m.sendFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if rooms != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms",
			Help:      "Rooms with at least one member.",
		}, func() float64 { return float64(rooms()) }))
	}
	if sessions != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Live signaling sessions.",
		}, func() float64 { return float64(sessions()) }))
	}
	return m
}

func (m *Metrics) SessionOpened() { m.connections.Inc() }
func (m *Metrics) SessionClosed() { m.disconnections.Inc() }

func (m *Metrics) MessageRouted(t domain.MessageType) {
	m.routed.WithLabelValues(t.String()).Inc()
}

func (m *Metrics) MessageDropped(reason string) {
	m.dropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) SendFailed(reason string) {
	m.sendFailures.WithLabelValues(reason).Inc()
}

// Handler exposes the registry at /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
