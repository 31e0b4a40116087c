package visualizer

import (
	"fmt"
	"strings"

	"github.com/amp-labs/amp-fsm/statemachine"
)

// GenerateDOT converts a Snapshot to a Graphviz digraph.
func GenerateDOT(snap statemachine.Snapshot) (string, error) {
	return GenerateDOTWithOptions(snap, DefaultOptions())
}

// GenerateDOTFromFile loads a config from a file and generates a Graphviz digraph.
func GenerateDOTFromFile(path string) (string, error) {
	config, err := statemachine.LoadConfig(path)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}

	return GenerateDOT(config.Snapshot())
}

// GenerateDOTWithOptions generates a Graphviz digraph with custom options.
func GenerateDOTWithOptions(snap statemachine.Snapshot, opts Options) (string, error) {
	g, err := newGraph(snap, opts)
	if err != nil {
		return "", err
	}

	rankdir := "TB"
	if g.direction() == "LR" {
		rankdir = "LR"
	}

	name := snap.Name
	if name == "" {
		name = "statemachine"
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "digraph %s {\n", dotQuote(name))
	fmt.Fprintf(&sb, "    rankdir=%s;\n", rankdir)
	sb.WriteString("    node [shape=box, style=rounded];\n")
	sb.WriteString("    __start [shape=point];\n")
	fmt.Fprintf(&sb, "    __start -> %s;\n", dotQuote(g.start))

	for _, state := range snap.States {
		label := state.ID
		if state.Label != "" {
			label = state.Label
		}

		for _, line := range g.stateDetails(state) {
			label += "\n" + line
		}

		fmt.Fprintf(&sb, "    %s [label=%s%s];\n", dotQuote(state.ID), dotQuote(label), dotStyle(g.class(state.ID)))
	}

	for _, target := range g.undeclared {
		fmt.Fprintf(&sb, "    %s [label=%s%s];\n", dotQuote(target), dotQuote(target), dotStyle("undeclared"))
	}

	for _, state := range snap.States {
		for _, transition := range state.TransitionsTo {
			attrs := ""
			if label := g.transitionLabel(transition); label != "" {
				attrs = fmt.Sprintf(" [label=%s]", dotQuote(label))
			}

			fmt.Fprintf(&sb, "    %s -> %s%s;\n", dotQuote(state.ID), dotQuote(transition.To), attrs)
		}
	}

	sb.WriteString("}\n")

	return sb.String(), nil
}

func dotStyle(class string) string {
	switch class {
	case "highlighted":
		return `, style="rounded,filled,bold", fillcolor="#fff9c4", color="#f57f17"`
	case "current":
		return `, style="rounded,filled", fillcolor="#e1f5ff", color="#01579b"`
	case "terminal":
		return `, peripheries=2`
	case "undeclared":
		return `, style="dashed", color="#c62828"`
	default:
		return ""
	}
}

func dotQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)

	return `"` + s + `"`
}
