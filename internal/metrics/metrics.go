package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "community"

// Metrics groups the engine's collectors. A nil *Metrics records nothing.
type Metrics struct {
	moderationVerdicts *prometheus.CounterVec   // modality, outcome: approved/rejected/transport
	moderationDuration *prometheus.HistogramVec // modality
	graphDuration      *prometheus.HistogramVec // op
	likeToggles        *prometheus.CounterVec   // target, action
	partialFailures    *prometheus.CounterVec   // op
	reconcileTasks     *prometheus.CounterVec   // kind, outcome: done/retry/failed
	counterRepairs     *prometheus.CounterVec   // target
}

func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		moderationVerdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "moderation",
			Name:      "verdicts_total",
			Help:      "Moderation outcomes by modality",
		}, []string{"modality", "outcome"}),
		moderationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "moderation",
			Name:      "call_duration_seconds",
			Help:      "Classifier call latency",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"modality"}),
		graphDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "statement_duration_seconds",
			Help:      "Graph transaction latency by operation",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"op"}),
		likeToggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "likes",
			Name:      "toggles_total",
			Help:      "Like toggles by target and resulting action",
		}, []string{"target", "action"}),
		partialFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "saga",
			Name:      "partial_failures_total",
			Help:      "Multi-store operations that left one leg applied",
		}, []string{"op"}),
		reconcileTasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "tasks_total",
			Help:      "Reconcile task executions by kind and outcome",
		}, []string{"kind", "outcome"}),
		counterRepairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "counter_repairs_total",
			Help:      "Drifted like/comment counters rewritten from edge cardinality",
		}, []string{"target"}),
	}
	for _, c := range []prometheus.Collector{
		m.moderationVerdicts, m.moderationDuration, m.graphDuration,
		m.likeToggles, m.partialFailures, m.reconcileTasks, m.counterRepairs,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) ObserveModeration(modality, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.moderationVerdicts.WithLabelValues(modality, outcome).Inc()
	m.moderationDuration.WithLabelValues(modality).Observe(d.Seconds())
}

func (m *Metrics) ObserveGraph(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.graphDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) LikeToggled(target, action string) {
	if m == nil {
		return
	}
	m.likeToggles.WithLabelValues(target, action).Inc()
}

func (m *Metrics) PartialFailure(op string) {
	if m == nil {
		return
	}
	m.partialFailures.WithLabelValues(op).Inc()
}

func (m *Metrics) ReconcileTask(kind, outcome string) {
	if m == nil {
		return
	}
	m.reconcileTasks.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) CounterRepaired(target string) {
	if m == nil {
		return
	}
	m.counterRepairs.WithLabelValues(target).Inc()
}
