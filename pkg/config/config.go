// Package config provides configuration loading, validation, and hot-reload
// for the relay, split across load/defaults/validate/singleton files by
// concern, covering the providers/routes/settings domain.
package config

import (
	"time"

	"mercator-hq/relay/pkg/security/tls"
)

// Config is the root configuration structure.
type Config struct {
	// Host and Port are the HTTP listen address, read from the top-level
	// host and port keys; keys of the same name under settings are not read.
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// LogLevel and LogFilePath control the structured logger, read from the
	// top-level log_level and log_file_path keys, not from under settings.
	LogLevel    string `yaml:"log_level"`
	LogFilePath string `yaml:"log_file_path"`

	// TLS configures the relay's own listen socket, independent of the
	// per-provider TLS the outbound http.Client negotiates.
	TLS tls.Config `yaml:"tls"`

	// Providers is the list of configured upstream endpoints.
	Providers []ProviderConfig `yaml:"providers"`

	// ModelRoutes maps a client-facing model pattern to its ordered
	// candidate list.
	ModelRoutes []ModelRouteConfig `yaml:"model_routes"`

	Settings SettingsConfig `yaml:"settings"`

	// Testing carries knobs only relevant under test harnesses (a mock
	// upstream mode), never exercised on a production listen address.
	Testing TestingConfig `yaml:"testing"`
}

// ProviderConfig is one entry of the providers list.
type ProviderConfig struct {
	Name     string     `yaml:"name"`
	Account  string     `yaml:"account,omitempty"`
	Protocol string     `yaml:"protocol"`
	BaseURL  string     `yaml:"base_url"`
	Auth     AuthConfig `yaml:"auth"`
	ProxyURL string     `yaml:"proxy_url,omitempty"`
	Enabled  *bool      `yaml:"enabled,omitempty"`
}

// AuthConfig describes a provider's credential.
type AuthConfig struct {
	Kind  string `yaml:"kind"`
	Value string `yaml:"value,omitempty"`
}

// ModelRouteConfig is one entry of the model_routes list.
type ModelRouteConfig struct {
	Pattern    string                 `yaml:"pattern"`
	Candidates []RouteCandidateConfig `yaml:"candidates"`
}

// RouteCandidateConfig is one candidate in a route's priority list.
type RouteCandidateConfig struct {
	Provider string `yaml:"provider"`
	Account  string `yaml:"account,omitempty"`
	Model    string `yaml:"model"`
	Priority int    `yaml:"priority"`
}

// SettingsConfig is the settings block controlling routing, health,
// deduplication, OAuth, and per-request timeouts.
type SettingsConfig struct {
	SelectionStrategy string `yaml:"selection_strategy"`

	FailureCooldown         time.Duration `yaml:"failure_cooldown"`
	UnhealthyThreshold      int           `yaml:"unhealthy_threshold"`
	UnhealthyResetOnSuccess bool          `yaml:"unhealthy_reset_on_success"`
	UnhealthyResetTimeout   time.Duration `yaml:"unhealthy_reset_timeout"`

	UnhealthyExceptionPatterns    []string `yaml:"unhealthy_exception_patterns"`
	UnhealthyResponseBodyPatterns []string `yaml:"unhealthy_response_body_patterns"`
	UnhealthyHTTPCodes            []int    `yaml:"unhealthy_http_codes"`

	Timeouts      TimeoutsConfig      `yaml:"timeouts"`
	Deduplication DeduplicationConfig `yaml:"deduplication"`
	OAuth         OAuthConfig         `yaml:"oauth"`
	ClientAuth    ClientAuthConfig    `yaml:"client_auth"`
}

// ClientAuthConfig gates the relay's own listen socket behind a client key,
// separate from the provider-side credentials in AuthConfig.
type ClientAuthConfig struct {
	Enabled bool     `yaml:"enabled"`
	Keys    []string `yaml:"keys"`
}

// TimeoutsConfig bounds a single upstream attempt.
type TimeoutsConfig struct {
	PerRequestTimeout time.Duration `yaml:"per_request_timeout"`
}

// DeduplicationConfig controls the in-flight dedup table.
type DeduplicationConfig struct {
	SSEErrorCleanupDelay        time.Duration `yaml:"sse_error_cleanup_delay"`
	IncludeMaxTokensInSignature bool          `yaml:"include_max_tokens_in_signature"`
}

// OAuthConfig describes the OAuth2 PKCE flow and credential lifecycle.
type OAuthConfig struct {
	EnablePersistence bool   `yaml:"enable_persistence"`
	EnableAutoRefresh bool   `yaml:"enable_auto_refresh"`
	PersistenceDir    string `yaml:"persistence_dir"`

	ClientID    string   `yaml:"client_id"`
	RedirectURI string   `yaml:"redirect_uri"`
	AuthURL     string   `yaml:"auth_url"`
	TokenURL    string   `yaml:"token_url"`
	Scopes      []string `yaml:"scopes"`
}

// TestingConfig carries test-harness-only knobs.
type TestingConfig struct {
	MockUpstreams bool `yaml:"mock_upstreams"`
}
