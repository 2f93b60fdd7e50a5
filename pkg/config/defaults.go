package config

import "time"

// Default values for configuration fields.
const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 8080

	DefaultLogLevel = "info"

	DefaultSelectionStrategy = "priority"

	DefaultFailureCooldown       = 30 * time.Second
	DefaultUnhealthyThreshold    = 3
	DefaultUnhealthyResetTimeout = 5 * time.Minute

	DefaultPerRequestTimeout = 60 * time.Second

	DefaultSSEErrorCleanupDelay = 2 * time.Second
)

// DefaultUnhealthyHTTPCodes is the out-of-the-box set of HTTP statuses
// that count as a health-counting failure.
func DefaultUnhealthyHTTPCodes() []int {
	return []int{429, 500, 502, 503, 504}
}

// DefaultUnhealthyExceptionPatterns is the out-of-the-box set of transport
// error substrings that count as a health-counting failure.
func DefaultUnhealthyExceptionPatterns() []string {
	return []string{"connection refused", "timeout", "connection reset", "no such host", "EOF"}
}

// ApplyDefaults fills zero-valued fields with their documented defaults.
// It is idempotent.
func ApplyDefaults(cfg *Config) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if cfg.Settings.SelectionStrategy == "" {
		cfg.Settings.SelectionStrategy = DefaultSelectionStrategy
	}
	if cfg.Settings.FailureCooldown == 0 {
		cfg.Settings.FailureCooldown = DefaultFailureCooldown
	}
	if cfg.Settings.UnhealthyThreshold == 0 {
		cfg.Settings.UnhealthyThreshold = DefaultUnhealthyThreshold
	}
	if cfg.Settings.UnhealthyResetTimeout == 0 {
		cfg.Settings.UnhealthyResetTimeout = DefaultUnhealthyResetTimeout
	}
	if len(cfg.Settings.UnhealthyHTTPCodes) == 0 {
		cfg.Settings.UnhealthyHTTPCodes = DefaultUnhealthyHTTPCodes()
	}
	if len(cfg.Settings.UnhealthyExceptionPatterns) == 0 {
		cfg.Settings.UnhealthyExceptionPatterns = DefaultUnhealthyExceptionPatterns()
	}
	if cfg.Settings.Timeouts.PerRequestTimeout == 0 {
		cfg.Settings.Timeouts.PerRequestTimeout = DefaultPerRequestTimeout
	}
	if cfg.Settings.Deduplication.SSEErrorCleanupDelay == 0 {
		cfg.Settings.Deduplication.SSEErrorCleanupDelay = DefaultSSEErrorCleanupDelay
	}

	for i := range cfg.Providers {
		if cfg.Providers[i].Enabled == nil {
			enabled := true
			cfg.Providers[i].Enabled = &enabled
		}
	}
}
