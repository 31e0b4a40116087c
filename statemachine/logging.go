package statemachine

import (
	"context"
	"log/slog"
	"time"
)

// MachineLabels identifies a machine instance in logs, spans and metrics.
type MachineLabels struct {
	ID         string
	Name       string
	WorkflowID string
}

// Logger provides logging hooks for machine activity.
type Logger interface {
	TransitionExecuted(ctx context.Context, machine MachineLabels, from, to string, duration time.Duration)
	TransitionRejected(ctx context.Context, machine MachineLabels, rejection Rejection)
	StateForced(ctx context.Context, machine MachineLabels, from, to string)
	InitialStateSubstituted(ctx context.Context, machine MachineLabels, requested, actual string)
}

// DefaultLogger implements Logger using slog.
type DefaultLogger struct {
	logger *slog.Logger
}

// NewDefaultLogger creates a logger writing to slog.Default().
func NewDefaultLogger() *DefaultLogger {
	return NewSlogLogger(slog.Default())
}

// NewSlogLogger creates a logger writing to the given slog logger.
func NewSlogLogger(logger *slog.Logger) *DefaultLogger {
	if logger == nil {
		logger = slog.Default()
	}

	return &DefaultLogger{
		logger: logger,
	}
}

func (l *DefaultLogger) TransitionExecuted(
	ctx context.Context, machine MachineLabels, from, to string, duration time.Duration,
) {
	fields := machineFields(ctx, machine)
	fields = append(fields,
		"from", from,
		"to", to,
		"duration_ms", duration.Milliseconds(),
	)

	l.logger.InfoContext(ctx, "Transition executed", fields...)
}

func (l *DefaultLogger) TransitionRejected(ctx context.Context, machine MachineLabels, rejection Rejection) {
	fields := machineFields(ctx, machine)
	fields = append(fields,
		"from", rejection.From,
		"to", rejection.To,
		"kind", rejection.Kind.String(),
		"reason", rejection.Reason(),
	)

	if rejection.Kind == RejectionGuard {
		fields = append(fields,
			"phase", rejection.Phase.String(),
			"guard_key", rejection.Key,
			"guard", rejection.Name,
		)
	}

	l.logger.InfoContext(ctx, "Transition rejected", fields...)
}

func (l *DefaultLogger) StateForced(ctx context.Context, machine MachineLabels, from, to string) {
	fields := machineFields(ctx, machine)
	fields = append(fields,
		"from", from,
		"to", to,
	)

	l.logger.WarnContext(ctx, "Current state overwritten without guards", fields...)
}

func (l *DefaultLogger) InitialStateSubstituted(
	ctx context.Context, machine MachineLabels, requested, actual string,
) {
	fields := machineFields(ctx, machine)
	fields = append(fields,
		"requested", requested,
		"actual", actual,
	)

	l.logger.WarnContext(ctx, "Initial state not declared, using first state", fields...)
}

func machineFields(ctx context.Context, machine MachineLabels) []any {
	fields := []any{
		"machine", machine.Name,
		"machine_id", machine.ID,
	}

	if machine.WorkflowID != "" {
		fields = append(fields, "workflow_id", machine.WorkflowID)
	}

	if traceID, spanID := extractTraceContext(ctx); traceID != "" {
		fields = append(fields, "trace_id", traceID, "span_id", spanID)
	}

	return fields
}
