package config

import (
	"fmt"
	"time"

	"go.uber.org/zap/zapcore"
)

const (
	// DefaultPoolCapacity is the number of connections kept by the pool.
	DefaultPoolCapacity = 4
	// DefaultIdentifierMaxLength is PostgreSQL's NAMEDATALEN-1.
	DefaultIdentifierMaxLength = 63

	// GuardPolicyStrict allows only [A-Za-z0-9_] identifiers.
	GuardPolicyStrict = "strict"
	// GuardPolicyReference rejects only identifiers containing whitespace.
	GuardPolicyReference = "reference"
)

// Config is the complete pgscope configuration. It is organised into
// sections the same way on disk (YAML), in the environment and on the
// command line.
type Config struct {
	// Database holds the backend connection and pool settings
	Database DatabaseConfig `yaml:"database" json:"database"`

	// Guard controls identifier validation
	Guard GuardConfig `yaml:"guard" json:"guard"`

	// Logging controls the zap logger
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Observability toggles metrics and tracing
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

// DatabaseConfig contains connection and pool settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (URI or key=value form)
	URL string `yaml:"url" json:"url"`
	// PoolCapacity is the fixed number of connections the pool may hold
	PoolCapacity int `yaml:"pool_capacity" json:"pool_capacity"`
	// AcquireTimeout bounds the wait for a free connection (0 = wait for the context)
	AcquireTimeout time.Duration `yaml:"acquire_timeout" json:"acquire_timeout"`
	// ConnectTimeout bounds establishing a new connection (0 = driver default)
	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout"`
}

// GuardConfig contains identifier validation settings.
type GuardConfig struct {
	// Policy is "strict" or "reference"
	Policy string `yaml:"policy" json:"policy"`
	// MaxLength caps identifier length under the strict policy
	MaxLength int `yaml:"max_length" json:"max_length"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level"`
	Encoding    string `yaml:"encoding" json:"encoding"`
	Development bool   `yaml:"development" json:"development"`
}

// ObservabilityConfig contains metrics and tracing toggles.
type ObservabilityConfig struct {
	// EnableMetrics registers pool and query collectors
	EnableMetrics bool `yaml:"enable_metrics" json:"enable_metrics"`
	// EnableTracing exports query spans to stdout
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing"`
	// TracingSampleRate controls trace sampling (0.0-1.0)
	TracingSampleRate float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate"`
}

// New returns a Config populated with defaults. The database URL is left
// empty; it has no sensible default.
func New() *Config {
	return &Config{
		Database: DatabaseConfig{
			PoolCapacity:   DefaultPoolCapacity,
			AcquireTimeout: 30 * time.Second,
			ConnectTimeout: 10 * time.Second,
		},
		Guard: GuardConfig{
			Policy:    GuardPolicyStrict,
			MaxLength: DefaultIdentifierMaxLength,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
		Observability: ObservabilityConfig{
			EnableMetrics:     true,
			EnableTracing:     false,
			TracingSampleRate: 1.0,
		},
	}
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if c.Database.PoolCapacity <= 0 {
		return fmt.Errorf("database.pool_capacity must be positive")
	}
	if c.Database.AcquireTimeout < 0 {
		return fmt.Errorf("database.acquire_timeout cannot be negative")
	}
	if c.Database.ConnectTimeout < 0 {
		return fmt.Errorf("database.connect_timeout cannot be negative")
	}
	switch c.Guard.Policy {
	case GuardPolicyStrict, GuardPolicyReference:
	default:
		return fmt.Errorf("guard.policy must be %q or %q, got %q", GuardPolicyStrict, GuardPolicyReference, c.Guard.Policy)
	}
	if c.Guard.MaxLength <= 0 {
		return fmt.Errorf("guard.max_length must be positive")
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if c.Observability.TracingSampleRate < 0 || c.Observability.TracingSampleRate > 1 {
		return fmt.Errorf("observability.tracing_sample_rate must be within [0, 1]")
	}
	return nil
}
