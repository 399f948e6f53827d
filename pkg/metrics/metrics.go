// Package metrics exposes the coordinator's operational Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/agentmesh/coordinator/pkg/network"
)

var (
	// AgentsByState reports the current agent count per lifecycle state.
	AgentsByState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "coordinator",
		Subsystem: "agents",
		Name:      "by_state",
		Help:      "Number of agents currently in each lifecycle state.",
	}, []string{"state"})

	// QueueDepth reports the number of claimable items in the work queue.
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "coordinator",
		Subsystem: "queue",
		Name:      "depth",
		Help:      "Number of claimable items in the durable work queue.",
	})

	// ValidationErrorsTotal counts validation errors found, by error code.
	ValidationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coordinator",
		Subsystem: "validation",
		Name:      "errors_total",
		Help:      "Total validation errors detected, by error code.",
	}, []string{"code"})

	// SelfHealActionsTotal counts self-healing actions executed, by action
	// kind.
	SelfHealActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coordinator",
		Subsystem: "self_heal",
		Name:      "actions_total",
		Help:      "Total self-healing actions executed, by action kind.",
	}, []string{"kind"})
)

// RecordStats pushes a NetworkStats snapshot into AgentsByState, removing
// the series of states not present in the snapshot.
func RecordStats(stats network.NetworkStats) {
	AgentsByState.Reset()
	for state, count := range stats.AgentsByState {
		AgentsByState.WithLabelValues(string(state)).Set(float64(count))
	}
}

// RecordValidation increments ValidationErrorsTotal for each error in
// result.
func RecordValidation(result network.ValidationResult) {
	for _, e := range result.Errors {
		ValidationErrorsTotal.WithLabelValues(string(e.Code)).Inc()
	}
}

// RecordSelfHeal increments SelfHealActionsTotal for each executed action.
func RecordSelfHeal(actions []network.RecoveryAction) {
	for _, a := range actions {
		SelfHealActionsTotal.WithLabelValues(string(a.Kind)).Inc()
	}
}
