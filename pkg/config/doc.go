// Package config provides configuration management for bizbridge.
//
// Configuration is read from a YAML file, completed with defaults, optionally
// overridden from the environment and then validated as a whole:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention BIZBRIDGE_SECTION_FIELD:
//
//   - BIZBRIDGE_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - BIZBRIDGE_UPSTREAM_PROXY overrides upstream.proxy
//   - BIZBRIDGE_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Validation
//
// Validation errors carry dotted field paths:
//
//	configuration validation failed with 2 errors:
//	  - accounts[work].cookies: field is required
//	  - artifacts.catalog.backend: unsupported backend "s3" (expected memory or sqlite)
//
// # Example Configuration
//
//	server:
//	  listen_address: "0.0.0.0:8000"
//	  base_url: "https://gateway.example.com"
//
//	accounts:
//	  - name: "work"
//	    config_id: "..."
//	    cookies: "__Secure-C_SES=...; __Host-C_OSES=..."
//	    csesidx: "..."
//	    project_id: "..."
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//
// # Hot Reload
//
// Watcher observes the configuration file with fsnotify and hands each valid
// revision to a callback. The server only applies the log level at runtime.
package config
