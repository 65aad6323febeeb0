// Package config provides configuration loading and validation for duplo.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (DUPLO_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"duplo.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with DUPLO_ prefix:
//   - server.addr → DUPLO_SERVER_ADDR
//   - storage.transient.max_bytes → DUPLO_STORAGE_TRANSIENT_MAX_BYTES
//   - cleanup.time_utc → DUPLO_CLEANUP_TIME_UTC
//
// # Configuration Structure
//
// The Config struct contains:
//   - Server: listen address, upload chunk size, public URL
//   - Storage: path, max_files and max_bytes of the transient and permanent pools
//   - Cleanup: daily sweep time (UTC), maximum age in hours, sweep interval
//   - Journal: none, sqlite or postgres, with DSN and table name
//   - Metrics: Prometheus endpoint toggle and path
//   - CORS: cross-origin resource sharing settings
//   - Log: level and environment
//
// # Validation
//
// Configuration is validated using struct tags:
//   - cleanup.time_utc must be HH:MM:SS (the custom timeofday tag)
//   - Pool ceilings must be at least 1
//   - Journal type must be none, sqlite or postgres; other types need a DSN
//   - Log level must be debug, info, warn, or error
package config
