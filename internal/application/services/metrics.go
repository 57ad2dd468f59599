package services

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/taskmaster/tasknote/internal/domain/entities"
)

// SyncMetrics counts reconciler activity
type SyncMetrics struct {
	runs    *prometheus.CounterVec
	actions *prometheus.CounterVec
	pending prometheus.Gauge
}

// NewSyncMetrics registers the reconciler collectors on reg
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	m := &SyncMetrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasknote_sync_runs_total",
				Help: "Total number of sync runs by result",
			},
			[]string{"result"},
		),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasknote_sync_actions_total",
				Help: "Replayed pending actions by operation and result",
			},
			[]string{"operation", "result"},
		),
		pending: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tasknote_pending_actions",
				Help: "Pending actions left in the log after the last sync run",
			},
		),
	}

	reg.MustRegister(m.runs, m.actions, m.pending)
	return m
}

func (m *SyncMetrics) observeRun(result string) {
	if m != nil {
		m.runs.WithLabelValues(result).Inc()
	}
}

func (m *SyncMetrics) observeAction(op entities.ActionOperation, result string) {
	if m != nil {
		m.actions.WithLabelValues(string(op), result).Inc()
	}
}

func (m *SyncMetrics) setPending(n int) {
	if m != nil {
		m.pending.Set(float64(n))
	}
}
