package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/amp-labs/amp-fsm/cli"
	"github.com/amp-labs/amp-fsm/logger"
	"github.com/amp-labs/amp-fsm/sanitize"
	"github.com/amp-labs/amp-fsm/statemachine/visualizer"
	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

const (
	formatMermaid = "mermaid"
	formatDOT     = "dot"
)

var (
	errUnknownFormat = errors.New("unknown format")
	errRenderDOT     = errors.New("--render only supports the mermaid format")
)

type graphFlags struct {
	format      string
	direction   string
	highlight   []string
	noGuards    bool
	noCallbacks bool
	render      bool
	outDir      string
}

func newGraphCmd() *cobra.Command {
	var flags graphFlags

	cmd := &cobra.Command{
		Use:   "graph FILE",
		Short: "Render a machine as a Mermaid or Graphviz diagram",
		Long: `Loads a machine config and prints it as a Mermaid state diagram or a
Graphviz digraph. Transitions to undeclared states are drawn distinctly since
every move along them is rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", formatMermaid, "output format: mermaid or dot")
	cmd.Flags().StringVar(&flags.direction, "direction", "TD", "diagram direction: TD or LR")
	cmd.Flags().StringSliceVar(&flags.highlight, "highlight", nil, "states to highlight, comma separated")
	cmd.Flags().BoolVar(&flags.noGuards, "no-guards", false, "omit guard names from transition labels")
	cmd.Flags().BoolVar(&flags.noCallbacks, "no-callbacks", false, "omit enter/leave callbacks from states")
	cmd.Flags().BoolVar(&flags.render, "render", false, "render the Mermaid markdown for the terminal")
	cmd.Flags().StringVarP(&flags.outDir, "out", "o", "", "write the diagram into this directory instead of stdout")

	return cmd
}

func runGraph(cmd *cobra.Command, path string, flags graphFlags) error {
	config, err := loadConfig(path)
	if err != nil {
		return err
	}

	ctx := logger.WithMachine(cmd.Context(), config.Name, path)

	opts := visualizer.DefaultOptions().
		WithDirection(flags.direction).
		WithShowGuards(!flags.noGuards).
		WithShowCallbacks(!flags.noCallbacks).
		WithHighlightPath(flags.highlight)

	snap := config.Snapshot()

	var (
		diagram string
		ext     string
	)

	switch flags.format {
	case formatMermaid:
		diagram, err = visualizer.GenerateMermaidWithOptions(snap, opts)
		ext = ".md"
	case formatDOT:
		diagram, err = visualizer.GenerateDOTWithOptions(snap, opts)
		ext = ".dot"
	default:
		return fmt.Errorf("%w: %q", errUnknownFormat, flags.format)
	}

	if err != nil {
		return err
	}

	if flags.render {
		if flags.format != formatMermaid {
			return errRenderDOT
		}

		if diagram, err = renderMarkdown(diagram); err != nil {
			return err
		}
	}

	if flags.outDir == "" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), diagram)

		return err
	}

	name := sanitize.FileName(config.Name)
	if name == "" {
		name = sanitize.FileName(filepath.Base(path))
	}

	target := filepath.Join(flags.outDir, name+ext)
	if err := os.WriteFile(target, []byte(diagram), 0o600); err != nil {
		return fmt.Errorf("write diagram: %w", err)
	}

	logger.Get(ctx).Info("Diagram written", "path", target, "format", flags.format)

	return nil
}

func renderMarkdown(markdown string) (string, error) {
	_, cols, err := cli.TerminalDimensions()
	if err != nil || cols == 0 {
		cols = cli.DefaultTerminalWidth
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(int(cols)), //nolint:gosec // Terminal width is bounded by screen size
	)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}

	return renderer.Render(markdown)
}
