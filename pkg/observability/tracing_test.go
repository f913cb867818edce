package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewTracerProviderExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultTracingConfig()
	cfg.Writer = &buf
	cfg.PrettyPrint = false

	tp, err := NewTracerProvider(cfg)
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(context.Background(), "query.run")
	span.End()

	require.NoError(t, Shutdown(context.Background(), tp))
	assert.Contains(t, buf.String(), `"Name":"query.run"`)
	assert.Contains(t, buf.String(), "pgscope")
}

func TestNeverSampleExportsNothing(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultTracingConfig()
	cfg.Writer = &buf
	cfg.SamplingRate = 0

	tp, err := NewTracerProvider(cfg)
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(context.Background(), "query.run")
	span.End()

	require.NoError(t, Shutdown(context.Background(), tp))
	assert.Empty(t, buf.String())
}

func TestInitTracingSetsGlobalProvider(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	cfg := DefaultTracingConfig()
	cfg.Writer = &bytes.Buffer{}

	tp, err := InitTracing(cfg)
	require.NoError(t, err)
	defer Shutdown(context.Background(), tp)

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok)
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Equal(t, sdktrace.TraceIDRatioBased(0.25).Description(), sampler(0.25).Description())
	assert.Nil(t, Shutdown(context.Background(), nil))
}
