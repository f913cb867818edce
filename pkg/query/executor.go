package query

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ajitpratap0/pgscope/pkg/dberrors"
	"github.com/ajitpratap0/pgscope/pkg/metrics"
	"github.com/ajitpratap0/pgscope/pkg/rowmap"
)

const instrumentationName = "github.com/ajitpratap0/pgscope/pkg/query"

// Executor runs statements like Run and Stream, recording a span, metrics
// and a debug log line per execution under an operation name.
type Executor struct {
	logger   *zap.Logger
	metrics  *metrics.Collector
	tracer   trace.Tracer
	meter    metric.Meter
	duration metric.Float64Histogram
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithLogger sets the executor logger.
func WithLogger(logger *zap.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics records execution metrics to c.
func WithMetrics(c *metrics.Collector) ExecutorOption {
	return func(e *Executor) {
		e.metrics = c
	}
}

// WithTracerProvider uses tp instead of the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) ExecutorOption {
	return func(e *Executor) {
		if tp != nil {
			e.tracer = tp.Tracer(instrumentationName)
		}
	}
}

// WithMeterProvider records the operation duration histogram through mp
// instead of the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) ExecutorOption {
	return func(e *Executor) {
		if mp != nil {
			e.meter = mp.Meter(instrumentationName)
		}
	}
}

// NewExecutor creates an Executor. Without options it logs nowhere, records
// no Prometheus metrics and uses the global otel providers.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		logger: zap.NewNop(),
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(zap.String("component", "query_executor"))

	hist, err := e.meter.Float64Histogram("db.client.operation.duration",
		metric.WithDescription("Duration of database client operations"),
		metric.WithUnit("s"))
	if err != nil {
		e.logger.Warn("failed to create duration histogram", zap.Error(err))
	} else {
		e.duration = hist
	}
	return e
}

// Run is the instrumented form of the package-level Run.
func (e *Executor) Run(ctx context.Context, q Queryer, operation string, spec Spec) ([]rowmap.Row, error) {
	out := []rowmap.Row{}
	err := e.Stream(ctx, q, operation, spec, func(row rowmap.Row) error {
		out = append(out, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Collect is the instrumented form of the package-level Collect.
func (e *Executor) Collect(ctx context.Context, q Queryer, operation string, spec Spec) (*Result, error) {
	res := &Result{Rows: []rowmap.Row{}}
	err := e.observe(ctx, operation, spec, func(ctx context.Context, count *int) error {
		return stream(ctx, q, spec, func(cols []string) { res.Columns = cols }, func(row rowmap.Row) error {
			*count++
			res.Rows = append(res.Rows, row)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Stream is the instrumented form of the package-level Stream.
func (e *Executor) Stream(ctx context.Context, q Queryer, operation string, spec Spec, fn func(rowmap.Row) error) error {
	return e.observe(ctx, operation, spec, func(ctx context.Context, count *int) error {
		return stream(ctx, q, spec, nil, func(row rowmap.Row) error {
			*count++
			return fn(row)
		})
	})
}

func (e *Executor) observe(ctx context.Context, operation string, spec Spec, exec func(ctx context.Context, count *int) error) error {
	ctx, span := e.tracer.Start(ctx, "query.run",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemPostgreSQL,
			semconv.DBOperationKey.String(operation),
			semconv.DBStatementKey.String(spec.SQL),
			attribute.Int("db.args", len(spec.Args)),
		),
	)
	defer span.End()

	start := time.Now()
	count := 0
	err := exec(ctx, &count)
	elapsed := time.Since(start)

	e.metrics.ObserveQuery(operation, elapsed, count, err)
	if e.duration != nil {
		kv := []attribute.KeyValue{semconv.DBSystemPostgreSQL, semconv.DBOperationKey.String(operation)}
		if err != nil {
			kv = append(kv, attribute.String("error.type", string(dberrors.TypeOf(err))))
		}
		e.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(kv...))
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("error.type", string(dberrors.TypeOf(err))))
		if state := SQLState(err); state != "" {
			span.SetAttributes(attribute.String("db.sqlstate", state))
		}

		e.logger.Debug("query failed",
			zap.String("operation", operation),
			zap.Duration("duration", elapsed),
			zap.Error(err))
		return err
	}

	span.SetAttributes(attribute.Int("db.rows", count))
	span.SetStatus(codes.Ok, "")

	e.logger.Debug("query executed",
		zap.String("operation", operation),
		zap.Int("rows", count),
		zap.Duration("duration", elapsed))
	return nil
}
