// Package config provides configuration loading, validation, and hot-reload
// for the relay.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with comprehensive validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration is loaded from a YAML file:
//
//	cfg, err := config.LoadConfig("config.yaml")
//
// # Environment Variable Overrides
//
// A small number of environment variables override the file for the
// settings operators most often need to flip without a redeploy:
//
//   - RELAY_HOST overrides host
//   - RELAY_PORT overrides port
//   - RELAY_LOG_LEVEL overrides log_level
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from the YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Singleton Pattern
//
// For application-wide configuration access, use the singleton pattern:
//
//	if err := config.Initialize("config.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg := config.GetConfig()
//	fmt.Println(cfg.Port)
//
// For testing, prefer dependency injection with explicit Config instances
// rather than the global singleton.
//
// # Hot Reload
//
// Watcher wraps an fsnotify watch on the config file and republishes a new,
// independently-validated *Config snapshot on every change via an
// atomic.Pointer — in-flight requests keep the Config they started with,
// never observing a partially-applied reload:
//
//	w, err := config.NewWatcher("config.yaml", logger)
//	go w.Watch(ctx)
//	cfg := w.Current()
//
// # Validation
//
// All configuration is validated automatically during loading. Validation includes:
//
//   - Required field checks (provider name, base URL, route candidates)
//   - Cross-reference checks (every route candidate names a configured provider)
//   - Range validation (port must be 1-65535, unhealthy_threshold >= 1)
//   - Enum validation (protocol, auth kind, selection strategy)
//
// Validation errors include field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - providers[0].base_url: base_url is required
//	  - settings.selection_strategy: invalid strategy "weighted"
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	host: "0.0.0.0"
//	port: 8080
//
//	providers:
//	  - name: anthropic-direct
//	    protocol: anthropic
//	    base_url: "https://api.anthropic.com"
//	    auth: { kind: api-key, value: "${ANTHROPIC_API_KEY}" }
//
//	model_routes:
//	  - pattern: "*claude*"
//	    candidates:
//	      - { provider: anthropic-direct, model: claude-opus-4, priority: 0 }
//
// # Thread Safety
//
// All configuration access is thread-safe. The singleton uses a read-write
// lock to allow concurrent reads while protecting against concurrent writes
// during reload; Watcher uses an atomic.Pointer for the same purpose
// without any locking on the read path.
package config
