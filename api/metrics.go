package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warp/circle-engine/generic"
)

// Metrics are the server's Prometheus collectors. Each instance owns its
// registry so tests can build as many routers as they like.
type Metrics struct {
	Registry *prometheus.Registry

	Events       *prometheus.CounterVec
	Clicks       prometheus.Counter
	Purchases    *prometheus.CounterVec
	Reincarnates prometheus.Counter
	OfflineRuns  *prometheus.CounterVec
	DroppedPush  prometheus.Counter
	Production   prometheus.Gauge
	TickDuration prometheus.Histogram
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "circles",
			Name:      "session_events_total",
			Help:      "Session events by kind.",
		}, []string{"kind"}),
		Clicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "circles",
			Name:      "clicks_total",
			Help:      "Applied clicks.",
		}),
		Purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "circles",
			Name:      "purchase_units_total",
			Help:      "Units bought, sold or removed.",
		}, []string{"kind", "purchase"}),
		Reincarnates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "circles",
			Name:      "reincarnations_total",
			Help:      "Applied reincarnations.",
		}),
		OfflineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "circles",
			Name:      "offline_runs_total",
			Help:      "Offline catch-up runs by outcome.",
		}, []string{"outcome"}),
		DroppedPush: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "circles",
			Name:      "push_dropped_total",
			Help:      "WebSocket events dropped because the queue was full.",
		}),
		Production: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "circles",
			Name:      "production_per_second",
			Help:      "Primary currency production of the attached save.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "circles",
			Name:      "tick_duration_seconds",
			Help:      "Time spent in one session tick.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
	}
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Events, m.Clicks, m.Purchases, m.Reincarnates,
		m.OfflineRuns, m.DroppedPush, m.Production, m.TickDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Observe counts an event and tracks production from its view.
func (m *Metrics) Observe(ev generic.Event) {
	m.Events.WithLabelValues(string(ev.Kind)).Inc()
	if ev.View != nil {
		m.Production.Set(ev.View.Production)
	}
}

// ObserveReceipt counts the units of an applied trade.
func (m *Metrics) ObserveReceipt(kind generic.TransactionKind, id generic.PurchaseID, r generic.Receipt) {
	if !r.Applied {
		return
	}
	n := r.Count
	if n < 0 {
		n = -n
	}
	m.Purchases.WithLabelValues(string(kind), string(id)).Add(float64(n))
}
