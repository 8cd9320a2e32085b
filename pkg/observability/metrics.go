package observability

import (
	"github.com/aretw0/lathe/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "lathe"

// Metrics counts node calls and records their durations.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "node_calls_total",
			Help:      "Total number of node calls, by node and status",
		}, []string{"node_id", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "node_duration_seconds",
			Help:      "Duration of node calls",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120, 600},
		}, []string{"node_id"}),
		inflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "node_calls_in_flight",
			Help:      "Number of node calls currently running",
		}, []string{"node_id"}),
	}
	if reg != nil {
		reg.MustRegister(m.calls, m.duration, m.inflight)
	}
	return m
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeStart: func(e domain.NodeEvent) {
			m.inflight.WithLabelValues(e.NodeID).Inc()
		},
		OnNodeFinish: func(e domain.NodeEvent) {
			status := "ok"
			if e.Err != nil {
				status = "error"
			}
			m.inflight.WithLabelValues(e.NodeID).Dec()
			m.calls.WithLabelValues(e.NodeID, status).Inc()
			m.duration.WithLabelValues(e.NodeID).Observe(e.Duration.Seconds())
		},
	}
}
