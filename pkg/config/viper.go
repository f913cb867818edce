package config

import (
	"github.com/spf13/viper"
)

// Keys understood by ApplyViper. Command-line flags are bound to the same keys.
const (
	KeyDatabaseURL    = "database_url"
	KeyPoolCapacity   = "pool_capacity"
	KeyAcquireTimeout = "acquire_timeout"
	KeyConnectTimeout = "connect_timeout"
	KeyGuardPolicy    = "guard_policy"
	KeyLogLevel       = "log_level"
	KeyLogEncoding    = "log_encoding"
	KeyEnableTracing  = "trace"
)

// NewViper returns a viper instance with every key bound to its environment
// variables. DATABASE_URL is honoured alongside PGSCOPE_DATABASE_URL.
func NewViper() *viper.Viper {
	v := viper.New()
	_ = v.BindEnv(KeyDatabaseURL, "PGSCOPE_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv(KeyPoolCapacity, "PGSCOPE_POOL_CAPACITY")
	_ = v.BindEnv(KeyAcquireTimeout, "PGSCOPE_ACQUIRE_TIMEOUT")
	_ = v.BindEnv(KeyConnectTimeout, "PGSCOPE_CONNECT_TIMEOUT")
	_ = v.BindEnv(KeyGuardPolicy, "PGSCOPE_GUARD_POLICY")
	_ = v.BindEnv(KeyLogLevel, "PGSCOPE_LOG_LEVEL")
	_ = v.BindEnv(KeyLogEncoding, "PGSCOPE_LOG_ENCODING")
	_ = v.BindEnv(KeyEnableTracing, "PGSCOPE_TRACE")
	return v
}

// ApplyViper overlays every key that is set in v (environment or flag) onto cfg.
// Keys that are unset leave cfg untouched, so file values and defaults survive.
func ApplyViper(v *viper.Viper, cfg *Config) {
	if v.IsSet(KeyDatabaseURL) {
		cfg.Database.URL = v.GetString(KeyDatabaseURL)
	}
	if v.IsSet(KeyPoolCapacity) {
		cfg.Database.PoolCapacity = v.GetInt(KeyPoolCapacity)
	}
	if v.IsSet(KeyAcquireTimeout) {
		cfg.Database.AcquireTimeout = v.GetDuration(KeyAcquireTimeout)
	}
	if v.IsSet(KeyConnectTimeout) {
		cfg.Database.ConnectTimeout = v.GetDuration(KeyConnectTimeout)
	}
	if v.IsSet(KeyGuardPolicy) {
		cfg.Guard.Policy = v.GetString(KeyGuardPolicy)
	}
	if v.IsSet(KeyLogLevel) {
		cfg.Logging.Level = v.GetString(KeyLogLevel)
	}
	if v.IsSet(KeyLogEncoding) {
		cfg.Logging.Encoding = v.GetString(KeyLogEncoding)
	}
	if v.IsSet(KeyEnableTracing) {
		cfg.Observability.EnableTracing = v.GetBool(KeyEnableTracing)
	}
}
