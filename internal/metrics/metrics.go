// Package metrics defines Prometheus metrics for the task ledger.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	MutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskledger_mutations_total",
			Help: "Total task mutations by operation",
		},
		[]string{"operation"},
	)

	UndoTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskledger_undo_total",
			Help: "Total undo attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// Undo outcome label values.
const (
	UndoOutcomeReversed = "reversed"
	UndoOutcomeNothing  = "nothing"
	UndoOutcomeFailed   = "failed"
)

func init() {
	prometheus.MustRegister(MutationsTotal, UndoTotal)
}
