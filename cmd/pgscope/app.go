package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/ajitpratap0/pgscope/pkg/catalog"
	"github.com/ajitpratap0/pgscope/pkg/config"
	"github.com/ajitpratap0/pgscope/pkg/logger"
	"github.com/ajitpratap0/pgscope/pkg/metrics"
	"github.com/ajitpratap0/pgscope/pkg/observability"
	"github.com/ajitpratap0/pgscope/pkg/pool"
	"github.com/ajitpratap0/pgscope/pkg/query"
	"github.com/ajitpratap0/pgscope/pkg/sqlguard"
)

// globalOptions holds the persistent flags that are not config keys.
type globalOptions struct {
	configPath   string
	output       string
	printMetrics bool
	timeout      time.Duration
	v            *viper.Viper
}

// app is the wired set of components one command runs against.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	pool     *pool.Pool
	catalog  *catalog.Catalog
	registry *prometheus.Registry
	tracer   *sdktrace.TracerProvider
	out      io.Writer
	format   string
	opts     *globalOptions
}

// loadConfig layers defaults, the optional YAML file, then environment and
// flags, and validates the result.
func loadConfig(opts *globalOptions) (*config.Config, error) {
	cfg := config.New()
	if opts.configPath != "" {
		if err := config.Load(opts.configPath, cfg); err != nil {
			return nil, fmt.Errorf("configuration error: %w", err)
		}
	}
	config.ApplyViper(opts.v, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

func newApp(opts *globalOptions, out io.Writer) (*app, error) {
	if _, err := parseFormat(opts.output); err != nil {
		return nil, err
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Encoding:    cfg.Logging.Encoding,
		Development: cfg.Logging.Development,
	}); err != nil {
		return nil, err
	}
	log := logger.Get().With(zap.String("component", "pgscope-cli"))

	a := &app{
		cfg:    cfg,
		log:    log,
		out:    out,
		format: opts.output,
		opts:   opts,
	}

	var collector *metrics.Collector
	if cfg.Observability.EnableMetrics {
		a.registry = prometheus.NewRegistry()
		collector = metrics.NewCollector(a.registry, "pgscope")
	}

	execOpts := []query.ExecutorOption{query.WithLogger(log), query.WithMetrics(collector)}
	if cfg.Observability.EnableTracing {
		tcfg := observability.DefaultTracingConfig()
		tcfg.ServiceVersion = version
		tcfg.SamplingRate = cfg.Observability.TracingSampleRate
		tcfg.Writer = os.Stderr
		a.tracer, err = observability.InitTracing(tcfg)
		if err != nil {
			return nil, err
		}
		execOpts = append(execOpts, query.WithTracerProvider(a.tracer))
	}

	policy, err := sqlguard.ParsePolicy(cfg.Guard.Policy)
	if err != nil {
		return nil, err
	}

	dialer, err := pool.PgxDialer(cfg.Database.URL, cfg.Database.ConnectTimeout)
	if err != nil {
		return nil, err
	}
	a.pool, err = pool.New(pool.Config{
		Capacity:       cfg.Database.PoolCapacity,
		AcquireTimeout: cfg.Database.AcquireTimeout,
	}, dialer, pool.WithLogger(log), pool.WithMetrics(collector))
	if err != nil {
		return nil, err
	}

	a.catalog = catalog.New(a.pool,
		catalog.WithLogger(log),
		catalog.WithGuard(sqlguard.Guard{Policy: policy, MaxLength: cfg.Guard.MaxLength}),
		catalog.WithExecutor(query.NewExecutor(execOpts...)),
	)

	log.Debug("pgscope initialized",
		zap.Int("pool_capacity", cfg.Database.PoolCapacity),
		zap.Duration("acquire_timeout", cfg.Database.AcquireTimeout),
		zap.String("guard_policy", policy.String()),
		zap.Bool("metrics", cfg.Observability.EnableMetrics),
		zap.Bool("tracing", cfg.Observability.EnableTracing))

	return a, nil
}

// close shuts the pool and tracer down and prints metrics if requested.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.pool.Close(ctx); err != nil {
		a.log.Warn("failed to close pool", zap.Error(err))
	}
	if err := observability.Shutdown(ctx, a.tracer); err != nil {
		a.log.Warn("failed to flush traces", zap.Error(err))
	}
	if a.opts.printMetrics && a.registry != nil {
		if err := metrics.WriteText(os.Stderr, a.registry); err != nil {
			a.log.Warn("failed to write metrics", zap.Error(err))
		}
	}
	_ = logger.Sync()
}

// run builds the app, runs fn with a deadline, and tears the app down.
func run(opts *globalOptions, out io.Writer, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(opts, out)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}
	return fn(ctx, a)
}
