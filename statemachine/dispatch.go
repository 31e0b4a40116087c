package statemachine

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Metric outcome constants.
const (
	outcomeTransitioned = "transitioned"
	outcomeRejected     = "rejected"
)

// MoveTo attempts to move to target. It returns false, leaving the current state
// untouched, when the target is unknown, unreachable from the current state, or
// refused by a guard. Once the guards pass the move always completes.
func (m *Machine[L]) MoveTo(target string) bool {
	return m.MoveToContext(context.Background(), target)
}

// MoveToContext is MoveTo with a context used for tracing and log correlation.
// The context is never checked for cancellation.
func (m *Machine[L]) MoveToContext(ctx context.Context, target string) bool {
	from := m.currentState
	start := time.Now()

	ctx, span := startMoveSpan(ctx, m.labels(), from, target)
	defer span.End()

	m.stats.attempts.Inc()

	if !m.IsTransitionAllowed(target) {
		rejection := m.rejection

		m.stats.rejections.Inc()
		recordRejection(m.labels(), rejection, time.Since(start))

		span.SetAttributes(
			attribute.String("outcome", outcomeRejected),
			attribute.String("rejection_kind", rejection.Kind.String()),
			attribute.String("rejection_reason", rejection.Reason()),
		)
		span.SetStatus(codes.Error, rejection.Reason())

		if m.logger != nil {
			m.logger.TransitionRejected(ctx, m.labels(), rejection)
		}

		return false
	}

	m.execute(ctx, from, target)

	elapsed := time.Since(start)

	m.stats.transitions.Inc()
	recordTransition(m.labels(), from, target, elapsed)

	span.SetAttributes(attribute.String("outcome", outcomeTransitioned))
	span.SetStatus(codes.Ok, "transitioned")

	if m.logger != nil {
		m.logger.TransitionExecuted(ctx, m.labels(), from, target, elapsed)
	}

	return true
}

// TryMoveTo is MoveToContext reporting a refusal as a *TransitionError wrapping
// ErrInvalidTargetState, ErrNoSuchTransition or ErrGuardRejected.
func (m *Machine[L]) TryMoveTo(ctx context.Context, target string) error {
	if m.MoveToContext(ctx, target) {
		return nil
	}

	return m.rejection.Err()
}

// execute runs the events of an already allowed move. The current state changes
// after the transition's own events and before the target's enter events, so
// ON_ENTER sees the target as "from" while ON_AFTER_TRANSITION still receives
// the original state.
func (m *Machine[L]) execute(ctx context.Context, from, target string) {
	sourceDef, _ := m.states.Get(from)
	targetDef, _ := m.states.Get(target)
	edge, _ := sourceDef.Transition(target)

	m.runEvents(ctx, PhaseOnBeforeTransition, m.beforeTransition, from, target)
	m.runEvents(ctx, PhaseOnLeave, sourceDef.OnLeave, from, target)
	m.runEvents(ctx, PhaseTransitionTo, edge.OnTransition, from, target)

	m.currentState = target

	m.runEvents(ctx, PhaseOnEnter, targetDef.OnEnter, m.currentState, target)
	m.runEvents(ctx, PhaseOnAfterTransition, m.afterTransition, from, target)
}

// runEvents invokes every event in order, ignoring results.
func (m *Machine[L]) runEvents(ctx context.Context, phase Phase, events []Callback[L], from, to string) {
	if len(events) == 0 {
		return
	}

	addPhaseEvent(ctx, phase, len(events))

	for _, event := range events {
		event.Invoke(from, to, m.luggage, phase, m)
	}
}
