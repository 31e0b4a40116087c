package main

import (
	"log/slog"

	"github.com/amp-labs/amp-fsm/logger"
	"github.com/amp-labs/amp-fsm/statemachine"
	"github.com/amp-labs/amp-fsm/statemachine/luacallback"
)

// Luggage is the free-form data fsmctl machines carry. It starts as a copy
// of the config's luggage block.
type Luggage = map[string]any

type fsm = statemachine.Machine[Luggage]

// visitsKey is the luggage entry count_visits maintains, a map from state to
// the number of times it was entered.
const visitsKey = "visits"

// newRegistry returns the callbacks configs may reference by name, plus a
// Lua compiler for inline scripts.
func newRegistry(log *slog.Logger) *statemachine.Registry[Luggage] {
	return statemachine.NewRegistry[Luggage]().
		RegisterGuard("allow", allowGuard).
		RegisterGuard("deny", denyGuard).
		RegisterEvent("log", func(from, to string, _ Luggage, phase statemachine.Phase, m *fsm) {
			log.Info("Callback invoked",
				slog.String("machine", m.Name()),
				slog.String("phase", phase.String()),
				slog.String("from", from),
				slog.String("to", to))
		}).
		RegisterEvent("count_visits", countVisitsEvent).
		WithScriptCompiler(luacallback.NewCompiler[Luggage](luacallback.MapBridge{},
			luacallback.WithLogger(log)))
}

func allowGuard(string, string, Luggage, statemachine.Phase, *fsm) bool { return true }

func denyGuard(string, string, Luggage, statemachine.Phase, *fsm) bool { return false }

func countVisitsEvent(_, to string, luggage Luggage, _ statemachine.Phase, _ *fsm) {
	countVisit(luggage, to)
}

// countVisit increments luggage[visits][state]. Counts that went through a
// Lua script come back as float64 or int64 and are normalized to int.
func countVisit(luggage Luggage, state string) {
	if luggage == nil {
		return
	}

	visits, ok := luggage[visitsKey].(map[string]any)
	if !ok {
		visits = make(map[string]any)
		luggage[visitsKey] = visits
	}

	visits[state] = toInt(visits[state]) + 1
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// builtinLogger is the logger builtins and scripts write through.
func builtinLogger() *slog.Logger {
	return logger.Get().With("component", "callbacks")
}
