package statemachine

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "statemachine"

// startMoveSpan creates the span covering one MoveTo call.
// The caller is responsible for calling span.End().
//
//nolint:spancheck // Span lifecycle managed by caller (factory pattern)
func startMoveSpan(ctx context.Context, machine MachineLabels, from, to string) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "statemachine.move_to")
	span.SetAttributes(
		attribute.String("machine", machine.Name),
		attribute.String("machine_id", machine.ID),
		attribute.String("workflow_id_hash", hashID(machine.WorkflowID)),
		attribute.String("from", from),
		attribute.String("to", to),
	)
	logSpanDebug(ctx, "started", "statemachine.move_to", span)

	return ctx, span
}

// addPhaseEvent marks the start of an event phase on the current span.
func addPhaseEvent(ctx context.Context, phase Phase, callbacks int) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.AddEvent(phase.String(), trace.WithAttributes(attribute.Int("callbacks", callbacks)))
}

// logSpanDebug logs span creation when STATEMACHINE_DEBUG is enabled.
func logSpanDebug(ctx context.Context, phase string, spanName string, span trace.Span) {
	if !isDebugMode() {
		return
	}

	spanCtx := span.SpanContext()
	slog.InfoContext(ctx, "OTEL Span "+phase,
		"span_name", spanName,
		"trace_id", spanCtx.TraceID().String(),
		"span_id", spanCtx.SpanID().String(),
	)
}

// extractTraceContext extracts trace ID and span ID from context for logging.
func extractTraceContext(ctx context.Context) (traceID, spanID string) {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		spanCtx := span.SpanContext()

		return spanCtx.TraceID().String(), spanCtx.SpanID().String()
	}

	return "", ""
}

// isDebugMode checks if STATEMACHINE_DEBUG mode is enabled.
func isDebugMode() bool {
	return strings.EqualFold(os.Getenv("STATEMACHINE_DEBUG"), "1") ||
		strings.EqualFold(os.Getenv("STATEMACHINE_DEBUG"), "true")
}
