package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hackbox-events/server/internal/config"
)

func TestInitTracingDisabledIsNoop(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), config.TracingConfig{Exporter: "bogus"}, "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestInitTracingValidatesConfig(t *testing.T) {
	ctx := context.Background()

	_, err := InitTracing(ctx, config.TracingConfig{Enabled: true, Exporter: "none", SampleRate: 1.5}, "test")
	require.ErrorContains(t, err, "sample rate")

	_, err = InitTracing(ctx, config.TracingConfig{Enabled: true, Exporter: "zipkin", SampleRate: 1}, "test")
	require.ErrorContains(t, err, "unsupported exporter")

	_, err = InitTracing(ctx, config.TracingConfig{Enabled: true, Exporter: "otlp", SampleRate: 1}, "test")
	require.ErrorContains(t, err, "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func TestInitTracingWithNoopExporter(t *testing.T) {
	ctx := context.Background()
	shutdown, err := InitTracing(ctx, config.TracingConfig{Enabled: true, Exporter: "none", ServiceName: "hackbox", SampleRate: 0.5}, "test")
	require.NoError(t, err)

	_, span := Tracer("test").Start(ctx, "op")
	span.End()
	require.NoError(t, shutdown(ctx))
}
