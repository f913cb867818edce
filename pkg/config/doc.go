// Package config provides configuration management for pgscope.
//
// Configuration is layered, later layers winning:
//
//  1. Defaults from New (pool capacity 4, strict identifier guard, info logging)
//  2. A YAML file read by Load, with ${VAR_NAME} environment substitution
//  3. Environment variables and command-line flags applied by ApplyViper
//
// # Usage
//
//	cfg := config.New()
//	if path != "" {
//		if err := config.Load(path, cfg); err != nil {
//			return err
//		}
//	}
//	config.ApplyViper(v, cfg)
//	if err := cfg.Validate(); err != nil {
//		return err
//	}
//
// # File Format
//
//	database:
//	  url: ${DATABASE_URL}
//	  pool_capacity: 4
//	  acquire_timeout: 5s
//	guard:
//	  policy: strict
//	  max_length: 63
//	logging:
//	  level: info
//	  encoding: json
//
// # Environment
//
// DATABASE_URL (or PGSCOPE_DATABASE_URL), PGSCOPE_POOL_CAPACITY,
// PGSCOPE_ACQUIRE_TIMEOUT, PGSCOPE_CONNECT_TIMEOUT, PGSCOPE_GUARD_POLICY,
// PGSCOPE_LOG_LEVEL, PGSCOPE_LOG_ENCODING and PGSCOPE_TRACE.
package config
