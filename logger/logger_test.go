package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

func decode(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var lines []map[string]any

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}

		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))

		lines = append(lines, entry)
	}

	return lines
}

func configureBuffer(t *testing.T, subsystem string) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer

	ConfigureLoggingWithOptions(Options{
		Subsystem: subsystem,
		JSON:      true,
		MinLevel:  slog.LevelDebug,
		Output:    &buf,
	})

	return &buf
}

func TestGet(t *testing.T) { //nolint:paralleltest
	buf := configureBuffer(t, "test")

	Get().Info("default subsystem")
	Get(WithSubsystem(t.Context(), "overridden")).Info("overridden subsystem")
	Get(WithMachine(t.Context(), "orders", "orders.yaml")).Info("machine")
	Get(WithMachine(t.Context(), "orders", "")).Info("machine without file")
	Get(WithMuted(t.Context(), true)).Info("muted")
	Get(nil).Info("nil context") //nolint:staticcheck

	lines := decode(t, buf)
	require.Len(t, lines, 5)

	assert.Equal(t, "default subsystem", lines[0]["msg"])
	assert.Equal(t, "test", lines[0]["subsystem"])

	assert.Equal(t, "overridden", lines[1]["subsystem"])

	assert.Equal(t, "orders", lines[2]["machine"])
	assert.Equal(t, "orders.yaml", lines[2]["file"])

	assert.Equal(t, "orders", lines[3]["machine"])
	assert.NotContains(t, lines[3], "file")

	assert.Equal(t, "nil context", lines[4]["msg"])
}

func TestWithAccumulatesValues(t *testing.T) { //nolint:paralleltest
	buf := configureBuffer(t, "test")

	base := With(t.Context(), "machine", "orders")
	left := With(base, "state", "draft")
	right := With(base, "state", "shipped")

	Get(left).Info("left")
	Get(right).Info("right")

	assert.Same(t, base, With(base))

	lines := decode(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "draft", lines[0]["state"])
	assert.Equal(t, "shipped", lines[1]["state"])
	assert.Equal(t, "orders", lines[1]["machine"])
}

func TestLegacyLoggerIsRouted(t *testing.T) { //nolint:paralleltest
	buf := configureBuffer(t, "test")

	log.Println("legacy line")

	lines := decode(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "legacy line", lines[0]["msg"])
	assert.Equal(t, "INFO", lines[0]["level"])
}

func TestMinLevel(t *testing.T) { //nolint:paralleltest
	var buf bytes.Buffer

	ConfigureLoggingWithOptions(Options{
		JSON:     true,
		MinLevel: slog.LevelWarn,
		Output:   &buf,
	})

	Get().Info("dropped")
	Get().Warn("kept")

	lines := decode(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "kept", lines[0]["msg"])
	assert.NotContains(t, lines[0], "subsystem")
}

func TestConfigureFromEnv(t *testing.T) { //nolint:paralleltest
	var buf bytes.Buffer

	logger, err := configureFromEnv(EnvConfig{
		JSON:   true,
		Level:  slog.LevelDebug,
		Output: "stderr",
	}, "fsmctl", WithOutput(&buf))
	require.NoError(t, err)

	logger.Debug("debug line")

	lines := decode(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "DEBUG", lines[0]["level"])
	assert.Equal(t, "fsmctl", GetSubsystem(t.Context()))

	_, err = configureFromEnv(EnvConfig{Output: "syslog"}, "fsmctl")
	require.ErrorIs(t, err, ErrInvalidLogOutput)
}

func TestConfigureLoggingReadsEnvironment(t *testing.T) {
	t.Setenv("LOG_JSON", "true")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_OUTPUT", "stdout")

	var buf bytes.Buffer

	_, err := ConfigureLogging("fsmctl", WithOutput(&buf))
	require.NoError(t, err)

	Get().Info("dropped")
	Get().Error("kept")

	lines := decode(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "ERROR", lines[0]["level"])

	t.Setenv("LOG_LEVEL", "loud")

	_, err = ConfigureLogging("fsmctl")
	require.Error(t, err)
}

type recordingProcessor struct {
	mu     sync.Mutex
	bodies []string
}

func (p *recordingProcessor) OnEmit(_ context.Context, record *sdklog.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.bodies = append(p.bodies, record.Body().AsString())

	return nil
}

func (p *recordingProcessor) Enabled(context.Context, sdklog.EnabledParameters) bool {
	return true
}

func (p *recordingProcessor) Shutdown(context.Context) error   { return nil }
func (p *recordingProcessor) ForceFlush(context.Context) error { return nil }

func TestLoggerProviderReceivesRecords(t *testing.T) { //nolint:paralleltest
	var buf bytes.Buffer

	processor := &recordingProcessor{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(processor))

	ConfigureLoggingWithOptions(Options{
		Subsystem:      "test",
		JSON:           true,
		Output:         &buf,
		LoggerProvider: provider,
	})

	t.Cleanup(func() {
		ConfigureLoggingWithOptions(Options{Subsystem: "test"})
	})

	Get().Info("Transition executed", "from", "draft", "to", "submitted")

	lines := decode(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "Transition executed", lines[0]["msg"])

	processor.mu.Lock()
	defer processor.mu.Unlock()

	assert.Equal(t, []string{"Transition executed"}, processor.bodies)
}
