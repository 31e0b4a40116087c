package telemetry

import (
	"testing"
	"time"

	"github.com/amp-labs/amp-fsm/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"KUBERNETES_SERVICE_HOST",
		"OTEL_ENABLED",
		"OTEL_SERVICE_NAME",
		"OTEL_SERVICE_VERSION",
		"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT",
		"OTEL_EXPORTER_OTLP_LOGS_ENDPOINT",
		"OTEL_EXPORTER_OTLP_TRACES_TIMEOUT",
		"ENVIRONMENT",
	} {
		// Setenv registers the restore, the empty value is then treated as unset by env.
		t.Setenv(key, "")
	}
}

func TestLoadConfigFromEnvGKEDetection(t *testing.T) {
	tests := []struct {
		name             string
		kubernetesHost   string
		customEndpoint   string
		expectedEndpoint string
	}{
		{
			name:             "GKE environment detected",
			kubernetesHost:   "10.0.0.1",
			expectedEndpoint: kubernetesCollectorEndpoint,
		},
		{
			name:             "Non-GKE environment",
			expectedEndpoint: "",
		},
		{
			name:             "Custom endpoint overrides GKE default",
			kubernetesHost:   "10.0.0.1",
			customEndpoint:   "http://custom-collector:4318",
			expectedEndpoint: "http://custom-collector:4318",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("KUBERNETES_SERVICE_HOST", test.kubernetesHost)
			t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", test.customEndpoint)

			config, err := LoadConfigFromEnv(t.Context(), "dev")
			require.NoError(t, err)
			assert.Equal(t, test.expectedEndpoint, config.Endpoint)
		})
	}
}

func TestLoadConfigFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	config, err := LoadConfigFromEnv(t.Context(), "test")
	require.NoError(t, err)

	assert.False(t, config.Enabled)
	assert.Equal(t, defaultServiceVersion, config.ServiceVersion)
	assert.Equal(t, "test", config.Environment)
	assert.Equal(t, 5*time.Second, config.Timeout)
}

func TestLoadConfigFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SERVICE_NAME", "fsmctl")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_TIMEOUT", "250ms")
	t.Setenv("ENVIRONMENT", "staging")

	config, err := LoadConfigFromEnv(t.Context(), "test")
	require.NoError(t, err)

	assert.True(t, config.Enabled)
	assert.Equal(t, "fsmctl", config.ServiceName)
	assert.Equal(t, 250*time.Millisecond, config.Timeout)
	assert.Equal(t, "staging", config.Environment)

	t.Setenv("OTEL_ENABLED", "maybe")

	_, err = LoadConfigFromEnv(t.Context(), "test")
	require.Error(t, err)
}

func TestInitializeIsNoopWhenDisabled(t *testing.T) {
	require.NoError(t, Initialize(t.Context(), &Config{Enabled: false}))
	require.NoError(t, Initialize(t.Context(), &Config{Enabled: true}))
	require.NoError(t, Shutdown(t.Context()))
}

func TestInstalledProviderReceivesMachineSpans(t *testing.T) {
	previous := otel.GetTracerProvider()

	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
	})

	exporter := tracetest.NewInMemoryExporter()
	install(sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter)))

	builder := statemachine.NewBuilder[struct{}]()
	builder.State("open").To("closed")
	builder.State("closed")

	machine, err := builder.Build("open", statemachine.WithName[struct{}]("telemetry-test"))
	require.NoError(t, err)
	require.True(t, machine.MoveToContext(t.Context(), "closed"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "statemachine.move_to", spans[0].Name)

	require.NoError(t, Shutdown(t.Context()))
	require.NoError(t, Shutdown(t.Context()), "second shutdown is a no-op")
}

func TestShutdownStopsLoggerProvider(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	installLogs(provider)

	require.NoError(t, Shutdown(t.Context()))

	providerMu.Lock()
	defer providerMu.Unlock()

	assert.Nil(t, loggerProvider)
}
