package statemachine

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger() (*DefaultLogger, *bytes.Buffer) {
	var buf bytes.Buffer

	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})

	return NewSlogLogger(slog.New(handler)), &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var records []map[string]any

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}

		var record map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &record))

		records = append(records, record)
	}

	return records
}

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	labels := MachineLabels{ID: "id-1", Name: "orders", WorkflowID: "wf-9"}

	t.Run("transition executed", func(t *testing.T) {
		t.Parallel()

		logger, buf := newBufferLogger()
		logger.TransitionExecuted(ctx, labels, "draft", "submitted", 3*time.Millisecond)

		records := decodeLines(t, buf)
		require.Len(t, records, 1)
		assert.Equal(t, "Transition executed", records[0]["msg"])
		assert.Equal(t, "INFO", records[0]["level"])
		assert.Equal(t, "orders", records[0]["machine"])
		assert.Equal(t, "id-1", records[0]["machine_id"])
		assert.Equal(t, "wf-9", records[0]["workflow_id"])
		assert.Equal(t, "draft", records[0]["from"])
		assert.Equal(t, "submitted", records[0]["to"])
		assert.InDelta(t, 3, records[0]["duration_ms"], 0)
	})

	t.Run("guard rejection", func(t *testing.T) {
		t.Parallel()

		logger, buf := newBufferLogger()
		logger.TransitionRejected(ctx, labels, Rejection{
			Kind:  RejectionGuard,
			From:  "draft",
			To:    "submitted",
			Phase: PhaseGuardEnter,
			Key:   "has_items",
			Name:  "orders.hasItems",
		})

		records := decodeLines(t, buf)
		require.Len(t, records, 1)
		assert.Equal(t, "Transition rejected", records[0]["msg"])
		assert.Equal(t, "guard", records[0]["kind"])
		assert.Equal(t, "GUARD_ENTER: (has_items) orders.hasItems", records[0]["reason"])
		assert.Equal(t, "GUARD_ENTER", records[0]["phase"])
		assert.Equal(t, "has_items", records[0]["guard_key"])
	})

	t.Run("structural rejection has no guard fields", func(t *testing.T) {
		t.Parallel()

		logger, buf := newBufferLogger()
		logger.TransitionRejected(ctx, MachineLabels{Name: "orders"}, Rejection{
			Kind: RejectionInvalidTarget,
			From: "draft",
			To:   "nowhere",
		})

		records := decodeLines(t, buf)
		require.Len(t, records, 1)
		assert.Equal(t, "invalid target state: nowhere", records[0]["reason"])
		assert.NotContains(t, records[0], "phase")
		assert.NotContains(t, records[0], "workflow_id")
	})

	t.Run("forced and substituted states warn", func(t *testing.T) {
		t.Parallel()

		logger, buf := newBufferLogger()
		logger.StateForced(ctx, labels, "a", "b")
		logger.InitialStateSubstituted(ctx, labels, "missing", "a")

		records := decodeLines(t, buf)
		require.Len(t, records, 2)
		assert.Equal(t, "WARN", records[0]["level"])
		assert.Equal(t, "WARN", records[1]["level"])
		assert.Equal(t, "missing", records[1]["requested"])
		assert.Equal(t, "a", records[1]["actual"])
	})
}

func TestMachineLogsThroughLogger(t *testing.T) {
	t.Parallel()

	logger, buf := newBufferLogger()

	builder := NewBuilder[*int]()
	builder.State("a").To("b")
	builder.State("b")

	machine, err := builder.Build("zzz", WithLogger[*int](logger), WithName[*int]("logged"))
	require.NoError(t, err)

	machine.MoveTo("b")
	machine.MoveTo("c")
	machine.SetCurrentState("a")

	messages := make([]string, 0, 4)
	for _, record := range decodeLines(t, buf) {
		messages = append(messages, record["msg"].(string)) //nolint:forcetypeassert
	}

	assert.Equal(t, []string{
		"Initial state not declared, using first state",
		"Transition executed",
		"Transition rejected",
		"Current state overwritten without guards",
	}, messages)
}

func TestMachineWithTestLogger(t *testing.T) {
	t.Parallel()

	builder := NewBuilder[*int]()
	builder.State("a").To("b")
	builder.State("b").To("a")

	machine, err := builder.Build("a", WithLogger[*int](NewSlogLogger(slogt.New(t))))
	require.NoError(t, err)

	assert.True(t, machine.MoveTo("b"))
	assert.True(t, machine.MoveTo("a"))
	assert.False(t, machine.MoveTo("a"))
}

func TestNilSlogLoggerFallsBackToDefault(t *testing.T) {
	t.Parallel()

	assert.NotNil(t, NewSlogLogger(nil).logger)
	assert.NotNil(t, NewDefaultLogger().logger)
}
