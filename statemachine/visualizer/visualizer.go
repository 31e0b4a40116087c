// Package visualizer renders state machine snapshots as Mermaid or Graphviz diagrams.
//
//nolint:varnamelen // short names idiomatic
package visualizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/amp-labs/amp-fsm/sanitize"
	"github.com/amp-labs/amp-fsm/statemachine"
)

// ErrNoStates is returned for a snapshot without states.
var ErrNoStates = errors.New("snapshot has no states")

// GenerateMermaid converts a Snapshot to a Mermaid state diagram.
func GenerateMermaid(snap statemachine.Snapshot) (string, error) {
	return GenerateMermaidWithOptions(snap, DefaultOptions())
}

// GenerateMermaidFromFile loads a config from a file and generates a Mermaid diagram.
func GenerateMermaidFromFile(path string) (string, error) {
	config, err := statemachine.LoadConfig(path)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}

	return GenerateMermaid(config.Snapshot())
}

// GenerateMermaidWithOptions generates a Mermaid diagram with custom options.
// The start marker points at the snapshot's current state, or at the first
// state when none is set.
func GenerateMermaidWithOptions(snap statemachine.Snapshot, opts Options) (string, error) {
	g, err := newGraph(snap, opts)
	if err != nil {
		return "", err
	}

	var sb strings.Builder

	// Header
	sb.WriteString("```mermaid\n")
	sb.WriteString("stateDiagram-v2\n")
	fmt.Fprintf(&sb, "    direction %s\n", g.direction())
	fmt.Fprintf(&sb, "    [*] --> %s\n", mermaidID(g.start))

	for _, state := range snap.States {
		id := mermaidID(state.ID)

		if state.Label != "" {
			fmt.Fprintf(&sb, "    state %q as %s\n", state.Label, id)
		}

		for _, line := range g.stateDetails(state) {
			fmt.Fprintf(&sb, "    %s: %s\n", id, line)
		}

		if class := g.class(state.ID); class != "" {
			fmt.Fprintf(&sb, "    class %s %s\n", id, class)
		}

		for _, transition := range state.TransitionsTo {
			label := g.transitionLabel(transition)
			if label != "" {
				label = ": " + label
			}

			fmt.Fprintf(&sb, "    %s --> %s%s\n", id, mermaidID(transition.To), label)
		}

		// States without outgoing transitions are terminal.
		if len(state.TransitionsTo) == 0 {
			fmt.Fprintf(&sb, "    %s --> [*]\n", id)
		}
	}

	for _, target := range g.undeclared {
		fmt.Fprintf(&sb, "    class %s undeclared\n", mermaidID(target))
	}

	sb.WriteString("\n")
	sb.WriteString("    classDef current fill:#e1f5ff,stroke:#01579b,stroke-width:2px\n")
	sb.WriteString("    classDef terminal fill:#c8e6c9,stroke:#2e7d32,stroke-width:2px\n")
	sb.WriteString("    classDef highlighted fill:#fff9c4,stroke:#f57f17,stroke-width:3px\n")
	sb.WriteString("    classDef undeclared fill:#ffcdd2,stroke:#c62828,stroke-dasharray:5 5\n")

	sb.WriteString("```\n")

	return sb.String(), nil
}

// mermaidID maps a state id to a Mermaid-safe identifier.
func mermaidID(id string) string {
	return sanitize.Identifier(id)
}
