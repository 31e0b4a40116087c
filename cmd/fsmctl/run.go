package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"time"

	"github.com/amp-labs/amp-fsm/cli"
	"github.com/amp-labs/amp-fsm/logger"
	"github.com/amp-labs/amp-fsm/statemachine"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const metricsShutdownTimeout = 5 * time.Second

var errStepsRejected = errors.New("some steps were rejected")

type runFlags struct {
	steps       []string
	metricsAddr string
	workflowID  string
}

func newRunCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Drive a machine through its transitions",
		Long: `Builds the machine declared in FILE with the config's luggage and the
built-in callbacks (allow, deny, log, count_visits) plus any inline Lua.
With --steps each listed state is attempted in order and rejections are
reported; without it the next state is picked interactively.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMachine(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringSliceVar(&flags.steps, "steps", nil, "states to move to, in order, comma separated")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	cmd.Flags().StringVar(&flags.workflowID, "workflow-id", "", "workflow id attached to metrics and spans (default random)")

	return cmd
}

func runMachine(cmd *cobra.Command, path string, flags runFlags) error {
	config, err := loadConfig(path)
	if err != nil {
		return err
	}

	ctx := logger.WithMachine(cmd.Context(), config.Name, path)
	out := cmd.OutOrStdout()

	if flags.metricsAddr != "" {
		stop := serveMetrics(ctx, flags.metricsAddr)
		defer stop()
	}

	workflowID := flags.workflowID
	if workflowID == "" {
		workflowID = uuid.NewString()
	}

	luggage := make(Luggage, len(config.Luggage))
	maps.Copy(luggage, config.Luggage)

	machine, err := statemachine.NewFromConfig(config, newRegistry(builtinLogger()),
		statemachine.WithLuggage(luggage),
		statemachine.WithWorkflowID[Luggage](workflowID),
		statemachine.WithLogger[Luggage](statemachine.NewSlogLogger(logger.Get(ctx))),
	)
	if err != nil {
		return logger.AnnotateError(err, "path", path, "machine", config.Name)
	}

	if len(flags.steps) > 0 {
		err = runSteps(ctx, out, machine, flags.steps)
	} else {
		err = runInteractive(ctx, out, machine)
	}

	printSummary(out, machine)

	return err
}

func runSteps(ctx context.Context, out io.Writer, machine *fsm, steps []string) error {
	rejected := 0

	for _, step := range steps {
		from := machine.CurrentState()

		if err := machine.TryMoveTo(ctx, step); err != nil {
			reason := machine.LastRejectionReason()

			logger.Get(ctx).Warn("Step rejected",
				"error", logger.AnnotateError(err, "from", from, "to", step, "reason", reason))
			fmt.Fprintf(out, "✗ %s -> %s: %s\n", from, step, reason)

			rejected++

			continue
		}

		fmt.Fprintf(out, "✓ %s -> %s\n", from, step)
	}

	if rejected > 0 {
		return logger.AnnotateError(fmt.Errorf("%w: %d of %d", errStepsRejected, rejected, len(steps)),
			"machine", machine.Name(), "final_state", machine.CurrentState())
	}

	return nil
}

func runInteractive(ctx context.Context, out io.Writer, machine *fsm) error {
	for {
		fmt.Fprint(out, cli.BannerAutoWidth(fmt.Sprintf("%s: %s", machine.Name(), machine.CurrentState()), cli.AlignCenter))

		next := machine.NextStates()
		if len(next) == 0 {
			fmt.Fprintln(out, "No transitions out of this state.")

			return nil
		}

		target, err := cli.SelectState("Move to", next)
		if errors.Is(err, cli.ErrQuit) {
			return nil
		}

		if err != nil {
			return err
		}

		if !machine.IsTransitionAllowed(target) {
			proceed, err := cli.PromptConfirm(fmt.Sprintf("Guards reject %s (%s). Attempt anyway",
				target, machine.LastRejectionReason()))
			if err != nil {
				return err
			}

			if !proceed {
				continue
			}
		}

		if err := machine.TryMoveTo(ctx, target); err != nil {
			reason := machine.LastRejectionReason()

			logger.Get(ctx).Warn("Move rejected",
				"error", logger.AnnotateError(err, "to", target, "reason", reason))
			fmt.Fprintf(out, "✗ %s\n", reason)
		}
	}
}

func printSummary(out io.Writer, machine *fsm) {
	stats := machine.Stats()

	fmt.Fprintf(out, "\nFinal state: %s\n", machine.CurrentState())
	fmt.Fprintf(out, "Attempts: %d, transitions: %d, rejections: %d\n",
		stats.Attempts, stats.Transitions, stats.Rejections)

	if len(machine.Luggage()) == 0 {
		return
	}

	data, err := yaml.Marshal(map[string]any{"luggage": machine.Luggage()})
	if err != nil {
		return
	}

	fmt.Fprintf(out, "%s", data)
}

// serveMetrics exposes the default Prometheus registry, where machine
// metrics are registered, until the returned function is called.
func serveMetrics(ctx context.Context, addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: metricsShutdownTimeout,
	}

	log := logger.Get(ctx)

	go func() {
		log.Info("Serving metrics", "addr", addr)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed", "error", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricsShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("Metrics server shutdown", "error", err)
		}
	}
}
