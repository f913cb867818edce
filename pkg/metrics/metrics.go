// Package metrics provides Prometheus collectors for the connection pool and
// the query executor.
//
// # Overview
//
// A Collector is registered against a caller-supplied prometheus.Registerer,
// so tests and embedders can use private registries. All Collector methods
// are safe on a nil receiver; components hold a nil *Collector when metrics
// are disabled.
//
// # Basic Usage
//
//	reg := prometheus.NewRegistry()
//	collector := metrics.NewCollector(reg, "pgscope")
//
//	p, err := pool.New(cfg, dialer, pool.WithMetrics(collector))
//
//	// later, dump everything in the text exposition format
//	_ = metrics.WriteText(os.Stderr, reg)
//
// # Metric Names
//
//	<ns>_pool_acquire_total{outcome}        acquire attempts by outcome
//	<ns>_pool_acquire_wait_seconds          time spent waiting in Acquire
//	<ns>_pool_connections{state}            idle / leased connections
//	<ns>_pool_dials_total                   connections established
//	<ns>_pool_discards_total                broken connections dropped
//	<ns>_query_duration_seconds{operation}  execution latency
//	<ns>_query_errors_total{operation,kind} failures by error type
//	<ns>_query_rows_total{operation}        rows returned
package metrics

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"github.com/ajitpratap0/pgscope/pkg/dberrors"
)

// Acquire outcomes used as the "outcome" label.
const (
	OutcomeOK        = "ok"
	OutcomeExhausted = "exhausted"
	OutcomeError     = "error"
)

// Collector groups the pool and query metrics of one process.
type Collector struct {
	acquires      *prometheus.CounterVec
	acquireWait   prometheus.Histogram
	connections   *prometheus.GaugeVec
	dials         prometheus.Counter
	discards      prometheus.Counter
	queryDuration *prometheus.HistogramVec
	queryErrors   *prometheus.CounterVec
	queryRows     *prometheus.CounterVec
}

// NewCollector creates and registers the collectors under namespace.
// It panics if the names are already registered on reg, like promauto.
func NewCollector(reg prometheus.Registerer, namespace string) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		acquires: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pool_acquire_total",
				Help:      "Connection acquire attempts by outcome",
			},
			[]string{"outcome"},
		),
		acquireWait: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pool_acquire_wait_seconds",
				Help:      "Time spent waiting for a pooled connection",
				Buckets: []float64{
					0.0001, // 100μs - idle connection available
					0.001,  // 1ms
					0.01,   // 10ms - fresh dial on a LAN
					0.1,    // 100ms
					1,      // 1s - contended pool
					10,     // 10s
				},
			},
		),
		connections: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pool_connections",
				Help:      "Pooled connections by state",
			},
			[]string{"state"},
		),
		dials: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pool_dials_total",
				Help:      "Connections established by the pool",
			},
		),
		discards: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pool_discards_total",
				Help:      "Broken connections discarded by the pool",
			},
		),
		queryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Query execution latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		queryErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_errors_total",
				Help:      "Failed queries by error type",
			},
			[]string{"operation", "kind"},
		),
		queryRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_rows_total",
				Help:      "Rows returned by queries",
			},
			[]string{"operation"},
		),
	}
}

// ObserveAcquire records one acquire attempt.
func (c *Collector) ObserveAcquire(wait time.Duration, outcome string) {
	if c == nil {
		return
	}
	c.acquires.WithLabelValues(outcome).Inc()
	c.acquireWait.Observe(wait.Seconds())
}

// SetPoolState publishes the current idle and leased counts.
func (c *Collector) SetPoolState(idle, leased int) {
	if c == nil {
		return
	}
	c.connections.WithLabelValues("idle").Set(float64(idle))
	c.connections.WithLabelValues("leased").Set(float64(leased))
}

// IncDial counts an established connection.
func (c *Collector) IncDial() {
	if c == nil {
		return
	}
	c.dials.Inc()
}

// IncDiscard counts a discarded connection.
func (c *Collector) IncDiscard() {
	if c == nil {
		return
	}
	c.discards.Inc()
}

// ObserveQuery records one query execution. A non-nil err is counted under
// its dberrors type.
func (c *Collector) ObserveQuery(operation string, d time.Duration, rows int, err error) {
	if c == nil {
		return
	}
	c.queryDuration.WithLabelValues(operation).Observe(d.Seconds())
	if err != nil {
		c.queryErrors.WithLabelValues(operation, string(dberrors.TypeOf(err))).Inc()
		return
	}
	c.queryRows.WithLabelValues(operation).Add(float64(rows))
}

// WriteText gathers g and writes every metric family to w in the Prometheus
// text exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// Timer measures the duration of an operation.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed duration since creation. It may be called more than once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
