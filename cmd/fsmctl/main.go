// Command fsmctl renders, lints and drives state machines declared in YAML.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/amp-labs/amp-fsm/logger"
	"github.com/amp-labs/amp-fsm/stage"
	"github.com/amp-labs/amp-fsm/telemetry"
	"github.com/spf13/cobra"
)

const appName = "fsmctl"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	if err != nil {
		logger.Get(ctx).Error("Command failed", "error", err)
	}

	// Flush exported spans and logs even when the command failed.
	if shutdownErr := telemetry.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
		fmt.Fprintln(os.Stderr, "telemetry shutdown:", shutdownErr)
	}

	stop()

	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Render, validate and run YAML-declared state machines",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := logger.ConfigureLogging(appName, logger.WithOutput(cmd.ErrOrStderr())); err != nil {
				return err
			}

			config, err := telemetry.LoadConfigFromEnv(cmd.Context(), string(stage.Current()))
			if err != nil {
				return err
			}

			return telemetry.Initialize(cmd.Context(), config)
		},
	}

	root.AddCommand(
		newGraphCmd(),
		newValidateCmd(),
		newRunCmd(),
		newSnapshotCmd(),
	)

	return root
}
