// Package testing provides helpers for asserting on the callbacks a machine runs.
package testing

import (
	"fmt"
	"slices"
	"testing"

	"github.com/amp-labs/amp-fsm/statemachine"
	"github.com/stretchr/testify/require"
)

// Call records a single callback invocation.
type Call struct {
	Key          string
	Phase        statemachine.Phase
	From         string
	To           string
	CurrentState string // machine's current state at invocation time
}

func (c Call) String() string {
	return fmt.Sprintf("%s(%s) %s -> %s", c.Phase, c.Key, c.From, c.To)
}

// Recorder mints guards and events that append to a shared call log.
type Recorder[L any] struct {
	calls []Call
}

// NewRecorder creates an empty recorder.
func NewRecorder[L any]() *Recorder[L] {
	return &Recorder[L]{}
}

// Guard returns a guard declared under key that records its invocation and returns allow.
func (r *Recorder[L]) Guard(key string, allow bool) statemachine.Callback[L] { //nolint:ireturn
	return statemachine.NewGuard[L](key, func(from, to string, _ L, phase statemachine.Phase,
		m *statemachine.Machine[L],
	) bool {
		r.record(key, from, to, phase, m)

		return allow
	})
}

// Event returns an event declared under key that records its invocation.
func (r *Recorder[L]) Event(key string) statemachine.Callback[L] { //nolint:ireturn
	return statemachine.NewEvent[L](key, func(from, to string, _ L, phase statemachine.Phase,
		m *statemachine.Machine[L],
	) {
		r.record(key, from, to, phase, m)
	})
}

func (r *Recorder[L]) record(key, from, to string, phase statemachine.Phase, m *statemachine.Machine[L]) {
	call := Call{Key: key, Phase: phase, From: from, To: to}
	if m != nil {
		call.CurrentState = m.CurrentState()
	}

	r.calls = append(r.calls, call)
}

// Calls returns a copy of the recorded calls.
func (r *Recorder[L]) Calls() []Call {
	return slices.Clone(r.calls)
}

// Phases returns the phase of every recorded call, in order.
func (r *Recorder[L]) Phases() []statemachine.Phase {
	phases := make([]statemachine.Phase, len(r.calls))
	for i, call := range r.calls {
		phases[i] = call.Phase
	}

	return phases
}

// Keys returns the key of every recorded call, in order.
func (r *Recorder[L]) Keys() []string {
	keys := make([]string, len(r.calls))
	for i, call := range r.calls {
		keys[i] = call.Key
	}

	return keys
}

// Count returns how many calls were recorded in phase.
func (r *Recorder[L]) Count(phase statemachine.Phase) int {
	count := 0

	for _, call := range r.calls {
		if call.Phase == phase {
			count++
		}
	}

	return count
}

// Find returns the first call recorded in phase.
func (r *Recorder[L]) Find(phase statemachine.Phase) (Call, bool) {
	for _, call := range r.calls {
		if call.Phase == phase {
			return call, true
		}
	}

	return Call{}, false
}

// Reset clears the call log.
func (r *Recorder[L]) Reset() {
	r.calls = nil
}

// RequirePhases fails the test unless the recorded phases equal want.
func (r *Recorder[L]) RequirePhases(t *testing.T, want ...statemachine.Phase) {
	t.Helper()

	require.Equal(t, phaseNames(want), phaseNames(r.Phases()), "recorded calls: %v", r.calls)
}

func phaseNames(phases []statemachine.Phase) []string {
	names := make([]string, len(phases))
	for i, phase := range phases {
		names[i] = phase.String()
	}

	return names
}
