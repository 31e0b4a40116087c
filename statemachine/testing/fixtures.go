package testing

import (
	"fmt"

	"github.com/amp-labs/amp-fsm/statemachine"
)

// NoRejection makes FullyWired allow every guard.
const NoRejection = statemachine.Phase(-1)

// Fixture state ids.
const (
	FixtureSource = "S1"
	FixtureTarget = "S2"
)

// FullyWired builds a machine with a single S1 -> S2 edge and exactly one
// recording callback in every phase. The guard of phase reject returns false;
// pass NoRejection to allow the move.
func FullyWired[L any](
	rec *Recorder[L], reject statemachine.Phase, opts ...statemachine.Option[L],
) (*statemachine.Machine[L], error) {
	guard := func(key string, phase statemachine.Phase) statemachine.Callback[L] {
		return rec.Guard(key, phase != reject)
	}

	builder := statemachine.NewBuilder[L]().
		MoveGuard(guard("move", statemachine.PhaseMoveToGuard)).
		BeforeTransition(rec.Event("before")).
		AfterTransition(rec.Event("after"))

	builder.State(FixtureSource).
		Label("Source").
		GuardLeave(guard("leave", statemachine.PhaseGuardLeave)).
		OnLeave(rec.Event("on_leave")).
		To(FixtureTarget).
		Label("Advance").
		Guard(guard("transition", statemachine.PhaseGuardTransition)).
		On(rec.Event("on_transition"))

	builder.State(FixtureTarget).
		Label("Target").
		GuardEnter(guard("enter", statemachine.PhaseGuardEnter)).
		OnEnter(rec.Event("on_enter"))

	return builder.Build(FixtureSource, opts...)
}

// Linear builds a table s1 -> s2 -> ... -> sn with no callbacks.
func Linear[L any](n int) (*statemachine.StateTable[L], error) {
	builder := statemachine.NewBuilder[L]()

	for i := 1; i <= n; i++ {
		state := builder.State(fmt.Sprintf("s%d", i))
		if i < n {
			state.To(fmt.Sprintf("s%d", i+1))
		}
	}

	return builder.Table()
}
