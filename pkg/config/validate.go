package config

import (
	"fmt"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError aggregates every FieldError found in one pass.
type ValidationError struct {
	Errors []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0])
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err)
	}
	return sb.String()
}

var validProtocols = map[string]bool{"anthropic": true, "openai": true}
var validAuthKinds = map[string]bool{"api-key": true, "auth-token": true, "oauth": true}
var validStrategies = map[string]bool{"priority": true, "round_robin": true, "random": true}

// Validate checks the configuration for internal consistency: every route
// candidate names a provider that exists, every provider has a valid
// protocol and auth kind, and the selection strategy is one this binary
// implements.
func Validate(cfg *Config) error {
	var errs []FieldError

	names := make(map[string]bool)
	for i, p := range cfg.Providers {
		prefix := fmt.Sprintf("providers[%d]", i)
		if p.Name == "" {
			errs = append(errs, FieldError{prefix + ".name", "name is required"})
		} else {
			names[p.Name] = true
		}
		if p.BaseURL == "" {
			errs = append(errs, FieldError{prefix + ".base_url", "base_url is required"})
		}
		if !validProtocols[p.Protocol] {
			errs = append(errs, FieldError{prefix + ".protocol", fmt.Sprintf("invalid protocol %q: must be anthropic or openai", p.Protocol)})
		}
		if !validAuthKinds[p.Auth.Kind] {
			errs = append(errs, FieldError{prefix + ".auth.kind", fmt.Sprintf("invalid auth kind %q", p.Auth.Kind)})
		}
	}

	if len(cfg.ModelRoutes) == 0 {
		errs = append(errs, FieldError{"model_routes", "at least one route must be configured"})
	}
	for i, route := range cfg.ModelRoutes {
		prefix := fmt.Sprintf("model_routes[%d]", i)
		if route.Pattern == "" {
			errs = append(errs, FieldError{prefix + ".pattern", "pattern is required"})
		}
		if len(route.Candidates) == 0 {
			errs = append(errs, FieldError{prefix + ".candidates", "at least one candidate is required"})
		}
		for j, c := range route.Candidates {
			cprefix := fmt.Sprintf("%s.candidates[%d]", prefix, j)
			if c.Provider == "" {
				errs = append(errs, FieldError{cprefix + ".provider", "provider is required"})
			} else if !names[c.Provider] {
				errs = append(errs, FieldError{cprefix + ".provider", fmt.Sprintf("unknown provider %q", c.Provider)})
			}
			if c.Model == "" {
				errs = append(errs, FieldError{cprefix + ".model", "model is required"})
			}
		}
	}

	if !validStrategies[cfg.Settings.SelectionStrategy] {
		errs = append(errs, FieldError{"settings.selection_strategy", fmt.Sprintf("invalid strategy %q", cfg.Settings.SelectionStrategy)})
	}
	if cfg.Settings.UnhealthyThreshold < 1 {
		errs = append(errs, FieldError{"settings.unhealthy_threshold", "must be at least 1"})
	}
	if cfg.Settings.FailureCooldown < 0 {
		errs = append(errs, FieldError{"settings.failure_cooldown", "must be non-negative"})
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		errs = append(errs, FieldError{"port", "must be between 1 and 65535"})
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}
