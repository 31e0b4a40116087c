package statemachine_test

import (
	"testing"

	"github.com/amp-labs/amp-fsm/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateTable(t *testing.T) {
	t.Parallel()

	table := statemachine.NewStateTable[*order]().
		Add("draft", &statemachine.StateDefinition[*order]{Label: "Draft"}).
		Add("submitted", nil).
		Add("draft", &statemachine.StateDefinition[*order]{Label: "Draft v2"})

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"draft", "submitted"}, table.IDs(), "re-declaring keeps position")

	def, ok := table.Get("draft")
	require.True(t, ok)
	assert.Equal(t, "Draft v2", def.Label)

	def, ok = table.Get("submitted")
	require.True(t, ok)
	assert.NotNil(t, def, "nil definitions are stored as empty ones")

	first, ok := table.First()
	require.True(t, ok)
	assert.Equal(t, "draft", first)

	assert.False(t, table.Has("archived"))

	ids := table.IDs()
	ids[0] = "mutated"
	assert.Equal(t, "draft", table.IDs()[0])
}

func TestNilStateTable(t *testing.T) {
	t.Parallel()

	var table *statemachine.StateTable[*order]

	assert.Zero(t, table.Len())
	assert.False(t, table.Has("a"))
	assert.Equal(t, []string{}, table.IDs())

	_, ok := table.First()
	assert.False(t, ok)
}

func TestStateDefinitionTransitions(t *testing.T) {
	t.Parallel()

	def := &statemachine.StateDefinition[*order]{
		TransitionsTo: []*statemachine.TransitionDefinition[*order]{
			{To: "b", Label: "first"},
			nil,
			{To: "c"},
			{To: "b", Label: "second"},
		},
	}

	edge, ok := def.Transition("b")
	require.True(t, ok)
	assert.Equal(t, "first", edge.Label, "first declaration wins")

	_, ok = def.Transition("d")
	assert.False(t, ok)

	assert.Equal(t, []string{"b", "c"}, def.Targets())

	var missing *statemachine.StateDefinition[*order]

	_, ok = missing.Transition("b")
	assert.False(t, ok)
	assert.Equal(t, []string{}, missing.Targets())
}

func TestPhases(t *testing.T) {
	t.Parallel()

	names := make([]string, 0, len(statemachine.Phases()))
	guards := 0

	for _, phase := range statemachine.Phases() {
		names = append(names, phase.String())

		if phase.IsGuard() {
			guards++
		}
	}

	assert.Equal(t, []string{
		"moveToGuard", "GUARD_LEAVE", "GUARD_TRANSITION", "GUARD_ENTER",
		"ON_BEFORE_TRANSITION", "ON_LEAVE", "TRANSITION_TO", "ON_ENTER", "ON_AFTER_TRANSITION",
	}, names)
	assert.Equal(t, 4, guards)
	assert.Equal(t, "UNKNOWN_PHASE", statemachine.Phase(42).String())
}

func TestCallbackKeys(t *testing.T) {
	t.Parallel()

	fn := statemachine.GuardFunc[*order](func(string, string, *order, statemachine.Phase,
		*statemachine.Machine[*order],
	) bool {
		return true
	})

	assert.Empty(t, fn.Key())
	assert.Contains(t, fn.DisplayName(), "TestCallbackKeys")

	guard := statemachine.NewGuard[*order]("approved", fn)
	assert.Equal(t, "approved", guard.Key())
	assert.Equal(t, fn.DisplayName(), guard.DisplayName())

	renamed := statemachine.WithKey("second_check", guard)
	assert.Equal(t, "second_check", renamed.Key())
	assert.Equal(t, fn.DisplayName(), renamed.DisplayName())
	assert.True(t, renamed.Invoke("a", "b", nil, statemachine.PhaseGuardEnter, nil))

	event := statemachine.EventFunc[*order](func(string, string, *order, statemachine.Phase,
		*statemachine.Machine[*order],
	) {
	})
	assert.True(t, event.Invoke("a", "b", nil, statemachine.PhaseOnEnter, nil), "events always report true")
}
