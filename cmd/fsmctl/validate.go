package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/amp-labs/amp-fsm/bgworker"
	"github.com/amp-labs/amp-fsm/logger"
	"github.com/amp-labs/amp-fsm/statemachine/validator"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var errValidationFailed = errors.New("validation failed")

type validateFlags struct {
	strict  bool
	workers int
	fix     bool
}

type fileReport struct {
	path    string
	result  validator.ValidationResult
	applied int
	err     error
}

func newValidateCmd() *cobra.Command {
	var flags validateFlags

	cmd := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Lint machine configs for undeclared targets, unreachable states and duplicate edges",
		Long: `Validates every FILE concurrently and prints a report per file, in argument
order. With --fix the suggested fixes are applied and the config is written
back before the report is produced.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), cmd.OutOrStdout(), args, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.strict, "strict", false, "treat warnings as errors")
	cmd.Flags().IntVarP(&flags.workers, "workers", "w", 0,
		"files validated in parallel (default BACKGROUND_WORKER_COUNT or 10)")
	cmd.Flags().BoolVar(&flags.fix, "fix", false, "apply suggested fixes and rewrite the files")

	return cmd
}

func runValidate(ctx context.Context, out io.Writer, paths []string, flags validateFlags) error {
	reports, err := bgworker.Map(ctx, flags.workers, paths, func(ctx context.Context, path string) fileReport {
		return validatePath(ctx, path, flags)
	})
	if err != nil {
		return err
	}

	failed := 0

	for _, report := range reports {
		fmt.Fprintf(out, "== %s ==\n", report.path)

		if report.applied > 0 {
			fmt.Fprintf(out, "Applied %d fix(es)\n", report.applied)
		}

		if report.err != nil {
			logger.Get(ctx).Error("Validation failed", "error", report.err)
			fmt.Fprintf(out, "✗ %v\n", report.err)

			failed++

			continue
		}

		fmt.Fprint(out, report.result.String())

		if !report.result.Valid {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d file(s)", errValidationFailed, failed, len(paths))
	}

	return nil
}

func validatePath(ctx context.Context, path string, flags validateFlags) fileReport {
	report := fileReport{path: path}

	if flags.fix {
		applied, err := fixFile(path, flags.strict)
		report.applied = applied

		if err != nil {
			report.err = err

			return report
		}

		if applied > 0 {
			logger.Get(logger.WithMachine(ctx, "", path)).Info("Fixes applied", "count", applied)
		}
	}

	result, err := validator.ValidateFileWithOptions(path, flags.strict)
	report.result = result
	report.err = logger.AnnotateError(err, "path", path)

	return report
}

// fixFile applies every suggested fix to the config at path and writes it
// back, keeping the file's permissions. Nothing is written when there is
// nothing to fix.
func fixFile(path string, strict bool) (int, error) {
	config, err := loadConfig(path)
	if err != nil {
		return 0, err
	}

	var result validator.ValidationResult
	if strict {
		result = validator.ValidateWithRulesStrict(config.Snapshot(), validator.DefaultRules())
	} else {
		result = validator.ValidateConfig(config)
	}

	applied, err := validator.ApplyFixes(config, result)
	if err != nil {
		return applied, logger.AnnotateError(err, "path", path, "applied", applied)
	}

	if applied == 0 {
		return 0, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return applied, err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return applied, fmt.Errorf("encode fixed config: %w", err)
	}

	if err := os.WriteFile(path, data, info.Mode().Perm()); err != nil {
		return applied, logger.AnnotateError(fmt.Errorf("write fixed config: %w", err), "path", path)
	}

	return applied, nil
}
