package statemachine

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/zeebo/xxh3"
)

// Metric definitions with appropriate labels.
var (
	// moveAttemptsTotal counts MoveTo calls by outcome (transitioned or rejected).
	moveAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statemachine_move_attempts_total",
		Help: "Total number of move attempts by machine, outcome and workflow",
	}, []string{"machine", "outcome", "workflow_id_hash"})

	// transitionsTotal counts completed transitions.
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statemachine_transitions_total",
		Help: "Total number of completed transitions by machine, from_state and to_state",
	}, []string{"machine", "from_state", "to_state"})

	// rejectionsTotal counts refused moves by kind and, for guards, phase.
	rejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statemachine_rejections_total",
		Help: "Total number of rejected moves by machine, rejection kind and guard phase",
	}, []string{"machine", "kind", "phase"})

	// moveDuration tracks time spent in MoveTo, guards and events included.
	moveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "statemachine_move_duration_seconds",
		Help:    "Duration of move attempts by machine and outcome",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"machine", "outcome"})
)

func recordTransition(machine MachineLabels, from, to string, elapsed time.Duration) {
	name := sanitizeName(machine.Name)

	moveAttemptsTotal.WithLabelValues(name, outcomeTransitioned, sanitizeWorkflowID(machine.WorkflowID)).Inc()
	transitionsTotal.WithLabelValues(name, from, to).Inc()
	moveDuration.WithLabelValues(name, outcomeTransitioned).Observe(elapsed.Seconds())
}

func recordRejection(machine MachineLabels, rejection Rejection, elapsed time.Duration) {
	name := sanitizeName(machine.Name)

	phase := "none"
	if rejection.Kind == RejectionGuard {
		phase = rejection.Phase.String()
	}

	moveAttemptsTotal.WithLabelValues(name, outcomeRejected, sanitizeWorkflowID(machine.WorkflowID)).Inc()
	rejectionsTotal.WithLabelValues(name, rejection.Kind.String(), phase).Inc()
	moveDuration.WithLabelValues(name, outcomeRejected).Observe(elapsed.Seconds())
}

// Helper functions for label sanitization.
func sanitizeName(name string) string {
	if name == "" {
		return "unknown"
	}

	return name
}

func sanitizeWorkflowID(workflowID string) string {
	if workflowID == "" {
		return "none"
	}

	return hashID(workflowID)
}

// hashID shortens an id to 8 hex chars so it can be exported without leaking it.
func hashID(id string) string {
	if id == "" {
		return ""
	}

	return fmt.Sprintf("%016x", xxh3.HashString(id))[:8]
}
