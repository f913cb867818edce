package query

import (
	"bytes"
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ajitpratap0/pgscope/pkg/metrics"
	"github.com/ajitpratap0/pgscope/pkg/testutil"
)

func newTestExecutor(t *testing.T) (*Executor, *tracetest.SpanRecorder, *prometheus.Registry) {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	reg := prometheus.NewRegistry()
	e := NewExecutor(
		WithLogger(testutil.TestLogger(t)),
		WithMetrics(metrics.NewCollector(reg, "test")),
		WithTracerProvider(tp),
	)
	return e, sr, reg
}

func attrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestExecutorRecordsSpanAndMetrics(t *testing.T) {
	e, sr, reg := newTestExecutor(t)
	conn := testutil.NewFakeConn(1).On("SELECT datname FROM pg_database;", testutil.Result{
		Columns: []string{"datname"},
		Rows:    [][]any{{"postgres"}, {"app"}},
	})

	rows, err := e.Run(context.Background(), conn, "list_databases", NewSpec("SELECT datname FROM pg_database;"))
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "query.run", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)

	a := attrs(spans[0])
	assert.Equal(t, "postgresql", a["db.system"].AsString())
	assert.Equal(t, "list_databases", a["db.operation"].AsString())
	assert.Equal(t, int64(2), a["db.rows"].AsInt64())

	var buf bytes.Buffer
	require.NoError(t, metrics.WriteText(&buf, reg))
	assert.Contains(t, buf.String(), `test_query_rows_total{operation="list_databases"} 2`)
}

func TestExecutorRecordsFailure(t *testing.T) {
	e, sr, reg := newTestExecutor(t)
	conn := testutil.NewFakeConn(1).On("SELECT broken", testutil.Result{
		Err: &pgconn.PgError{Code: "42601", Message: "syntax error"},
	})

	_, err := e.Run(context.Background(), conn, "preview", NewSpec("SELECT broken"))
	require.Error(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	a := attrs(spans[0])
	assert.Equal(t, "query", a["error.type"].AsString())
	assert.Equal(t, "42601", a["db.sqlstate"].AsString())

	var buf bytes.Buffer
	require.NoError(t, metrics.WriteText(&buf, reg))
	assert.Contains(t, buf.String(), `test_query_errors_total{kind="query",operation="preview"} 1`)
}

func TestNewExecutorDefaults(t *testing.T) {
	e := NewExecutor()
	conn := testutil.NewFakeConn(1).On("SELECT 1", testutil.Result{Rows: [][]any{{int64(1)}}})

	rows, err := e.Run(context.Background(), conn, "ping", NewSpec("SELECT 1"))
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestExecutorRecordsDurationHistogram(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	e := NewExecutor(WithMeterProvider(mp))
	conn := testutil.NewFakeConn(1).On("SELECT 1", testutil.Result{Rows: [][]any{{int64(1)}}})

	for i := 0; i < 3; i++ {
		_, err := e.Run(context.Background(), conn, "ping", NewSpec("SELECT 1"))
		require.NoError(t, err)
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)

	m := rm.ScopeMetrics[0].Metrics[0]
	assert.Equal(t, "db.client.operation.duration", m.Name)
	assert.Equal(t, "s", m.Unit)

	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(3), hist.DataPoints[0].Count)
	op, ok := hist.DataPoints[0].Attributes.Value("db.operation")
	require.True(t, ok)
	assert.Equal(t, "ping", op.AsString())
}
