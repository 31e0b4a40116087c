package visualizer

import (
	"strings"

	"github.com/amp-labs/amp-fsm/statemachine"
)

// graph holds what both renderers derive from a snapshot.
type graph struct {
	snap       statemachine.Snapshot
	opts       Options
	start      string
	declared   map[string]bool
	undeclared []string
	highlight  map[string]bool
}

func newGraph(snap statemachine.Snapshot, opts Options) (*graph, error) {
	if len(snap.States) == 0 {
		return nil, ErrNoStates
	}

	g := &graph{
		snap:      snap,
		opts:      opts,
		declared:  make(map[string]bool, len(snap.States)),
		highlight: make(map[string]bool, len(opts.HighlightPath)),
	}

	for _, state := range snap.States {
		g.declared[state.ID] = true
	}

	seen := make(map[string]bool)

	for _, state := range snap.States {
		for _, transition := range state.TransitionsTo {
			if g.declared[transition.To] || seen[transition.To] {
				continue
			}

			seen[transition.To] = true
			g.undeclared = append(g.undeclared, transition.To)
		}
	}

	for _, id := range opts.HighlightPath {
		g.highlight[id] = true
	}

	g.start = snap.States[0].ID
	if g.declared[snap.CurrentState] {
		g.start = snap.CurrentState
	}

	return g, nil
}

func (g *graph) direction() string {
	if g.opts.Direction == "" {
		return "TD"
	}

	return g.opts.Direction
}

// class picks the style of a declared state, highlighting first.
func (g *graph) class(id string) string {
	switch {
	case g.highlight[id]:
		return "highlighted"
	case g.opts.HighlightCurrent && id == g.snap.CurrentState:
		return "current"
	case g.isTerminal(id):
		return "terminal"
	default:
		return ""
	}
}

func (g *graph) isTerminal(id string) bool {
	state, ok := g.snap.State(id)

	return ok && len(state.TransitionsTo) == 0
}

func (g *graph) transitionLabel(transition statemachine.TransitionSnapshot) string {
	var parts []string

	if transition.Label != "" {
		parts = append(parts, transition.Label)
	}

	if g.opts.ShowGuards && len(transition.GuardTransition) > 0 {
		parts = append(parts, "["+callbackNames(transition.GuardTransition)+"]")
	}

	if g.opts.ShowCallbacks && len(transition.OnTransition) > 0 {
		parts = append(parts, "/ "+callbackNames(transition.OnTransition))
	}

	return strings.Join(parts, " ")
}

// stateDetails lists the guards and events attached to a state, one per line.
func (g *graph) stateDetails(state statemachine.StateSnapshot) []string {
	var lines []string

	add := func(show bool, prefix string, infos []statemachine.CallbackInfo) {
		if show && len(infos) > 0 {
			lines = append(lines, prefix+": "+callbackNames(infos))
		}
	}

	add(g.opts.ShowGuards, "guard enter", state.GuardEnter)
	add(g.opts.ShowGuards, "guard leave", state.GuardLeave)
	add(g.opts.ShowCallbacks, "on enter", state.OnEnter)
	add(g.opts.ShowCallbacks, "on leave", state.OnLeave)

	return lines
}

// callbackNames joins callback keys, falling back to display names for unkeyed callbacks.
func callbackNames(infos []statemachine.CallbackInfo) string {
	names := make([]string, len(infos))

	for i, info := range infos {
		names[i] = info.Key
		if names[i] == "" {
			names[i] = info.Name
		}
	}

	return strings.Join(names, ", ")
}
