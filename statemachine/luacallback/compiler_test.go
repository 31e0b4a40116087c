package luacallback_test

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/amp-labs/amp-fsm/statemachine"
	"github.com/amp-labs/amp-fsm/statemachine/luacallback"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type luggage = map[string]any

func compile(t *testing.T, source string) statemachine.Callback[luggage] {
	t.Helper()

	cb, err := luacallback.NewCompiler[luggage](luacallback.MapBridge{}).Compile("script", source)
	require.NoError(t, err)

	return cb
}

func TestCompileRejectsSyntaxErrors(t *testing.T) {
	t.Parallel()

	_, err := luacallback.NewCompiler[luggage](luacallback.MapBridge{}).Compile("broken", "if then end")
	require.ErrorIs(t, err, luacallback.ErrSyntax)
	assert.Contains(t, err.Error(), "broken")
}

func TestGuardTruthiness(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		want   bool
	}{
		{"bare expression", "luggage.items > 0", true},
		{"explicit return", "return luggage.items > 5", false},
		{"nil result", "local x = 1", false},
		{"zero is truthy", "return 0", true},
		{"empty string is truthy", `return ""`, true},
		{"false", "return false", false},
		{"missing field", "luggage.missing", false},
		{"statement block", "if luggage.vip then return true end\nreturn luggage.items >= 2", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cb := compile(t, tt.source)
			got := cb.Invoke("a", "b", luggage{"items": 2}, statemachine.PhaseGuardEnter, nil)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGuardChangesAreDiscarded(t *testing.T) {
	t.Parallel()

	cb := compile(t, "luggage.items = 99\nreturn true")
	bag := luggage{"items": 1}

	assert.True(t, cb.Invoke("a", "b", bag, statemachine.PhaseGuardLeave, nil))
	assert.Equal(t, luggage{"items": 1}, bag)
}

func TestEventWritesLuggageBack(t *testing.T) {
	t.Parallel()

	cb := compile(t, `
luggage.visits = (luggage.visits or 0) + 1
luggage.last = from .. "->" .. to
luggage.tags = {"a", "b"}
luggage.meta = {phase = phase}
luggage.stale = nil
return false
`)
	bag := luggage{"stale": true, "ratio": 0.5}

	assert.True(t, cb.Invoke("draft", "submitted", bag, statemachine.PhaseOnEnter, nil),
		"events always report true")

	assert.Equal(t, luggage{
		"visits": 1,
		"last":   "draft->submitted",
		"tags":   []any{"a", "b"},
		"meta":   map[string]any{"phase": "ON_ENTER"},
		"ratio":  0.5,
	}, bag)
}

func TestEventLeavesUntouchedLuggageAlone(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bag := luggage{
		"created":  created,
		"order_id": 9007199254740993,
		"amount":   3000000000,
		"ids":      []int{1, 2},
		"flags":    uint8(7),
		"owner":    ticket{Priority: 2},
	}

	compile(t, `log("hi")`).Invoke("a", "b", bag, statemachine.PhaseTransitionTo, nil)

	assert.Equal(t, luggage{
		"created":  created,
		"order_id": 9007199254740993,
		"amount":   3000000000,
		"ids":      []int{1, 2},
		"flags":    uint8(7),
		"owner":    ticket{Priority: 2},
	}, bag)
}

func TestEventWritesOnlyChangedEntries(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bag := luggage{"created": created, "order_id": 9007199254740993, "count": 1}

	compile(t, "luggage.count = luggage.count + 1\nluggage.amount = 3000000000").
		Invoke("a", "b", bag, statemachine.PhaseOnLeave, nil)

	assert.Equal(t, luggage{
		"created":  created,
		"order_id": 9007199254740993,
		"count":    2,
		"amount":   3000000000,
	}, bag)
}

func TestEventReplacingLuggageWithNonTable(t *testing.T) {
	t.Parallel()

	bag := luggage{"count": 1}

	compile(t, "luggage = nil").Invoke("a", "b", bag, statemachine.PhaseOnEnter, nil)

	assert.Equal(t, luggage{"count": 1}, bag)
}

func TestRuntimeErrorPanics(t *testing.T) {
	t.Parallel()

	cb := compile(t, `error("nope")`)

	defer func() {
		recovered := recover()
		require.NotNil(t, recovered)

		scriptErr, ok := recovered.(*luacallback.ScriptError)
		require.True(t, ok)
		assert.Equal(t, "script", scriptErr.Key)
		assert.Equal(t, statemachine.PhaseTransitionTo, scriptErr.Phase)
		assert.Contains(t, scriptErr.Error(), "nope")
	}()

	cb.Invoke("a", "b", luggage{}, statemachine.PhaseTransitionTo, nil)
}

func TestScriptLog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, nil))

	cb, err := luacallback.NewCompiler[luggage](luacallback.MapBridge{}, luacallback.WithLogger(logger)).
		Compile("noisy", `log("moving to " .. to)`)
	require.NoError(t, err)

	cb.Invoke("a", "b", luggage{}, statemachine.PhaseOnAfterTransition, nil)

	assert.Contains(t, buf.String(), "moving to b")
	assert.Contains(t, buf.String(), "script=noisy")
}

type ticket struct {
	Priority int
	Escalate bool
}

func TestCustomBridge(t *testing.T) {
	t.Parallel()

	bridge := luacallback.NewBridge(
		func(tk *ticket) map[string]any {
			return map[string]any{"priority": tk.Priority}
		},
		func(values map[string]any, tk *ticket) {
			escalate, _ := values["escalate"].(bool)
			tk.Escalate = escalate
		},
	)

	compiler := luacallback.NewCompiler[*ticket](bridge)

	guard, err := compiler.Compile("urgent", "luggage.priority >= 3")
	require.NoError(t, err)

	event, err := compiler.Compile("escalate", "luggage.escalate = luggage.priority >= 3")
	require.NoError(t, err)

	tk := &ticket{Priority: 4}

	assert.True(t, guard.Invoke("open", "escalated", tk, statemachine.PhaseGuardTransition, nil))
	assert.Equal(t, "urgent", guard.Key())
	assert.Equal(t, "lua", guard.DisplayName())

	event.Invoke("open", "escalated", tk, statemachine.PhaseTransitionTo, nil)
	assert.True(t, tk.Escalate)
}

func TestNilBridge(t *testing.T) {
	t.Parallel()

	cb, err := luacallback.NewCompiler[int](nil).Compile("nil_luggage", "luggage == nil")
	require.NoError(t, err)

	assert.True(t, cb.Invoke("a", "b", 7, statemachine.PhaseMoveToGuard, nil))
}

const ticketMachine = `
name: tickets
initialState: open
luggage:
  priority: 1
states:
  - name: open
    onLeave:
      - lua: luggage.history = (luggage.history or "") .. "left " .. from .. ";"
    transitionsTo:
      - to: escalated
        guardTransition:
          - lua: luggage.priority >= 3
            key: high_priority
  - name: escalated
    onEnter:
      - lua: luggage.entered_as = current_state
`

func TestMachineFromConfig(t *testing.T) {
	t.Parallel()

	config, err := statemachine.LoadConfigFromBytes([]byte(ticketMachine))
	require.NoError(t, err)

	registry := statemachine.NewRegistry[luggage]().
		WithScriptCompiler(luacallback.NewCompiler[luggage](luacallback.MapBridge{}))

	bag := luggage{"priority": 1}

	machine, err := statemachine.NewFromConfig(config, registry, statemachine.WithLuggage(bag))
	require.NoError(t, err)

	assert.False(t, machine.MoveTo("escalated"))
	assert.Equal(t, "GUARD_TRANSITION: (high_priority) lua", machine.LastRejectionReason())

	bag["priority"] = 3

	require.True(t, machine.MoveTo("escalated"))
	assert.Equal(t, "left open;", bag["history"])
	assert.Equal(t, "escalated", bag["entered_as"])
}
