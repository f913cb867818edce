package pool

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/ajitpratap0/pgscope/pkg/dberrors"
	"github.com/ajitpratap0/pgscope/pkg/metrics"
)

// ErrPoolClosed is the cause of the ConnectionError returned by Acquire after
// Close.
var ErrPoolClosed = errors.New("pool is closed")

// closeTimeout bounds the graceful Terminate sent when a connection is closed
// outside of a caller's context.
const closeTimeout = 5 * time.Second

// Conn is one live backend session. *pgx.Conn satisfies it.
type Conn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	IsClosed() bool
	Close(ctx context.Context) error
}

// Config holds the pool limits.
type Config struct {
	// Capacity is the maximum number of live connections. Must be positive.
	Capacity int
	// AcquireTimeout bounds how long Acquire waits for a free slot. Zero
	// means wait until ctx is done.
	AcquireTimeout time.Duration
}

// Stats is a point-in-time snapshot of pool state.
type Stats struct {
	Capacity       int   `json:"capacity" yaml:"capacity"`
	Idle           int   `json:"idle" yaml:"idle"`
	Leased         int   `json:"leased" yaml:"leased"`
	TotalDialed    int64 `json:"total_dialed" yaml:"total_dialed"`
	TotalDiscarded int64 `json:"total_discarded" yaml:"total_discarded"`
	AcquireCount   int64 `json:"acquire_count" yaml:"acquire_count"`
	ExhaustedCount int64 `json:"exhausted_count" yaml:"exhausted_count"`
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the pool logger. The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics publishes pool activity to c.
func WithMetrics(c *metrics.Collector) Option {
	return func(p *Pool) {
		p.metrics = c
	}
}

// Pool is a fixed-capacity set of reusable connections. It is safe for
// concurrent use.
type Pool struct {
	cfg     Config
	dialer  Dialer
	logger  *zap.Logger
	metrics *metrics.Collector

	// one permit per leased connection
	sem *semaphore.Weighted

	mu        sync.Mutex
	idle      []Conn
	leased    int
	closed    bool
	dialed    int64
	discarded int64
	acquires  int64
	exhausted int64
}

// New creates a pool. No connection is dialed until the first Acquire.
func New(cfg Config, dialer Dialer, opts ...Option) (*Pool, error) {
	if cfg.Capacity <= 0 {
		return nil, dberrors.New(dberrors.ErrorTypeConfig, "pool capacity must be positive").
			WithDetail("capacity", cfg.Capacity)
	}
	if cfg.AcquireTimeout < 0 {
		return nil, dberrors.New(dberrors.ErrorTypeConfig, "acquire timeout must not be negative")
	}
	if dialer == nil {
		return nil, dberrors.New(dberrors.ErrorTypeConfig, "pool requires a dialer")
	}

	p := &Pool{
		cfg:    cfg,
		dialer: dialer,
		logger: zap.NewNop(),
		sem:    semaphore.NewWeighted(int64(cfg.Capacity)),
		idle:   make([]Conn, 0, cfg.Capacity),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(zap.String("component", "connection_pool"))
	p.metrics.SetPoolState(0, 0)

	return p, nil
}

// Capacity returns the configured capacity.
func (p *Pool) Capacity() int {
	return p.cfg.Capacity
}

// Acquire leases a connection, waiting for a free slot if the pool is at
// capacity. The returned Lease must be released.
func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	start := time.Now()

	if p.isClosed() {
		return nil, p.closedError()
	}

	waitCtx := ctx
	if p.cfg.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, p.cfg.AcquireTimeout)
		defer cancel()
	}

	if err := p.sem.Acquire(waitCtx, 1); err != nil {
		waited := time.Since(start)
		p.mu.Lock()
		p.exhausted++
		p.mu.Unlock()
		p.metrics.ObserveAcquire(waited, metrics.OutcomeExhausted)

		p.logger.Warn("no connection available",
			zap.Int("capacity", p.cfg.Capacity),
			zap.Duration("waited", waited),
			zap.Error(err))

		return nil, dberrors.Wrap(err, dberrors.ErrorTypePoolExhausted, "no connection became available").
			WithDetail("capacity", p.cfg.Capacity).
			WithDetail("waited", waited.String())
	}

	lease, err := p.checkout(ctx)
	if err != nil {
		p.sem.Release(1)
		p.metrics.ObserveAcquire(time.Since(start), metrics.OutcomeError)
		return nil, err
	}
	p.metrics.ObserveAcquire(time.Since(start), metrics.OutcomeOK)
	return lease, nil
}

// TryAcquire leases a connection only if a slot is free right now. It
// reports false with a nil error when the pool is at capacity.
func (p *Pool) TryAcquire(ctx context.Context) (*Lease, bool, error) {
	if p.isClosed() {
		return nil, false, p.closedError()
	}
	if !p.sem.TryAcquire(1) {
		return nil, false, nil
	}
	lease, err := p.checkout(ctx)
	if err != nil {
		p.sem.Release(1)
		return nil, false, err
	}
	return lease, true, nil
}

// With runs fn with a leased connection and releases it when fn returns or
// panics. The error from fn is returned unchanged.
func (p *Pool) With(ctx context.Context, fn func(ctx context.Context, conn Conn) error) error {
	lease, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer lease.Release()

	return fn(ctx, lease.Conn())
}

// checkout is called with a permit held. It pops an idle connection or dials
// a new one.
func (p *Pool) checkout(ctx context.Context) (*Lease, error) {
	var stale []Conn

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, p.closedError()
	}
	for len(p.idle) > 0 {
		conn := p.idle[len(p.idle)-1]
		p.idle = p.idle[:len(p.idle)-1]
		if conn.IsClosed() {
			p.discarded++
			stale = append(stale, conn)
			continue
		}
		p.leased++
		p.acquires++
		idle, leased := len(p.idle), p.leased
		p.mu.Unlock()

		p.closeAll(stale, "stale")
		p.metrics.SetPoolState(idle, leased)
		p.logger.Debug("reusing connection", zap.Int("idle", idle), zap.Int("leased", leased))
		return newLease(p, conn), nil
	}
	// reserve the slot before dialing outside the lock
	p.leased++
	p.mu.Unlock()

	p.closeAll(stale, "stale")

	conn, err := p.dialer.Dial(ctx)
	if err != nil {
		p.mu.Lock()
		p.leased--
		p.mu.Unlock()

		p.logger.Error("failed to dial connection", zap.Error(err))
		if dberrors.IsType(err, dberrors.ErrorTypeConnection) {
			return nil, err
		}
		return nil, dberrors.Wrap(err, dberrors.ErrorTypeConnection, "failed to establish connection")
	}

	p.mu.Lock()
	p.dialed++
	p.acquires++
	idle, leased := len(p.idle), p.leased
	p.mu.Unlock()

	p.metrics.IncDial()
	p.metrics.SetPoolState(idle, leased)
	p.logger.Debug("created new connection", zap.Int("idle", idle), zap.Int("leased", leased))

	return newLease(p, conn), nil
}

// put ends a lease. Only a healthy connection on an open pool goes back to
// the idle list.
func (p *Pool) put(conn Conn, discard bool) {
	p.mu.Lock()
	p.leased--
	keep := !discard && !p.closed && !conn.IsClosed()
	if keep {
		p.idle = append(p.idle, conn)
	} else if !p.closed {
		p.discarded++
	}
	idle, leased, closed := len(p.idle), p.leased, p.closed
	p.mu.Unlock()

	if !keep {
		reason := "discarded"
		if closed {
			reason = "pool closed"
		}
		p.closeAll([]Conn{conn}, reason)
	}

	p.sem.Release(1)
	p.metrics.SetPoolState(idle, leased)
}

func (p *Pool) closeAll(conns []Conn, reason string) {
	for _, conn := range conns {
		if reason != "pool closed" {
			p.metrics.IncDiscard()
		}
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		if err := conn.Close(ctx); err != nil {
			p.logger.Debug("error closing connection", zap.String("reason", reason), zap.Error(err))
		} else {
			p.logger.Debug("closed connection", zap.String("reason", reason))
		}
		cancel()
	}
}

// Stat returns a snapshot of the pool counters.
func (p *Pool) Stat() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Stats{
		Capacity:       p.cfg.Capacity,
		Idle:           len(p.idle),
		Leased:         p.leased,
		TotalDialed:    p.dialed,
		TotalDiscarded: p.discarded,
		AcquireCount:   p.acquires,
		ExhaustedCount: p.exhausted,
	}
}

// Close closes all idle connections and rejects further acquires. Leased
// connections are closed when they are released. Close is idempotent.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	leased := p.leased
	p.mu.Unlock()

	var errs []error
	for _, conn := range idle {
		if err := conn.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	p.metrics.SetPoolState(0, leased)

	p.logger.Info("connection pool closed",
		zap.Int("closed_idle", len(idle)),
		zap.Int("still_leased", leased))

	if len(errs) > 0 {
		return dberrors.Wrap(errors.Join(errs...), dberrors.ErrorTypeConnection, "failed to close idle connections").
			WithDetail("failed", len(errs))
	}
	return nil
}

func (p *Pool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Pool) closedError() error {
	return dberrors.Wrap(ErrPoolClosed, dberrors.ErrorTypeConnection, "cannot acquire from pool")
}
