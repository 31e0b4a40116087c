package logger

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// AnnotateError attaches slog key-value pairs to err. When the error is later
// logged under any key, the handler installed by ConfigureLogging adds the
// pairs to the record. Annotations survive wrapping, and when several layers
// of a chain are annotated every layer contributes, outermost first.
//
//	if err := machine.TryMoveTo(ctx, step); err != nil {
//	    return logger.AnnotateError(err, "to", step, "reason", machine.LastRejectionReason())
//	}
//
// Returns nil if err is nil.
func AnnotateError(err error, args ...any) error {
	if err == nil {
		return nil
	}

	record := slog.NewRecord(time.Time{}, slog.LevelDebug, "", 0)
	record.Add(args...)

	attrs := make([]slog.Attr, 0, record.NumAttrs())

	record.Attrs(func(attr slog.Attr) bool {
		attrs = append(attrs, attr)

		return true
	})

	return &annotatedError{err: err, attrs: attrs}
}

// ErrorAttrs returns the attributes attached anywhere in err's chain.
func ErrorAttrs(err error) []slog.Attr {
	var attrs []slog.Attr

	for err != nil {
		var annotated *annotatedError
		if !errors.As(err, &annotated) {
			break
		}

		attrs = append(attrs, annotated.attrs...)
		err = annotated.err
	}

	return attrs
}

type annotatedError struct {
	err   error
	attrs []slog.Attr
}

func (e *annotatedError) Error() string {
	return e.err.Error()
}

func (e *annotatedError) Unwrap() error {
	return e.err
}

// errorAttrsHandler expands annotated errors found in a record's attributes.
type errorAttrsHandler struct {
	inner slog.Handler
}

var _ slog.Handler = (*errorAttrsHandler)(nil)

func (h *errorAttrsHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *errorAttrsHandler) Handle(ctx context.Context, record slog.Record) error {
	var extra []slog.Attr

	record.Attrs(func(attr slog.Attr) bool {
		if err, ok := attr.Value.Any().(error); ok {
			extra = append(extra, ErrorAttrs(err)...)
		}

		return true
	})

	if len(extra) == 0 {
		return h.inner.Handle(ctx, record)
	}

	expanded := record.Clone()
	expanded.AddAttrs(extra...)

	return h.inner.Handle(ctx, expanded)
}

func (h *errorAttrsHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &errorAttrsHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *errorAttrsHandler) WithGroup(name string) slog.Handler {
	return &errorAttrsHandler{inner: h.inner.WithGroup(name)}
}
