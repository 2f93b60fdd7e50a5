package config

import "testing"

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Host != DefaultHost {
		t.Errorf("Host = %q, want %q", cfg.Host, DefaultHost)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, DefaultLogLevel)
	}
	if cfg.Settings.SelectionStrategy != DefaultSelectionStrategy {
		t.Errorf("SelectionStrategy = %q, want %q", cfg.Settings.SelectionStrategy, DefaultSelectionStrategy)
	}
	if cfg.Settings.UnhealthyThreshold != DefaultUnhealthyThreshold {
		t.Errorf("UnhealthyThreshold = %d, want %d", cfg.Settings.UnhealthyThreshold, DefaultUnhealthyThreshold)
	}
	if len(cfg.Settings.UnhealthyHTTPCodes) == 0 {
		t.Error("UnhealthyHTTPCodes should be defaulted")
	}
	if len(cfg.Settings.UnhealthyExceptionPatterns) == 0 {
		t.Error("UnhealthyExceptionPatterns should be defaulted")
	}
	if cfg.Settings.Timeouts.PerRequestTimeout != DefaultPerRequestTimeout {
		t.Errorf("PerRequestTimeout = %v, want %v", cfg.Settings.Timeouts.PerRequestTimeout, DefaultPerRequestTimeout)
	}
}

func TestApplyDefaultsDoesNotOverrideSetValues(t *testing.T) {
	cfg := &Config{Host: "0.0.0.0", Port: 9999}
	ApplyDefaults(cfg)

	if cfg.Host != "0.0.0.0" {
		t.Errorf("Host was overridden: %q", cfg.Host)
	}
	if cfg.Port != 9999 {
		t.Errorf("Port was overridden: %d", cfg.Port)
	}
}

func TestApplyDefaultsEnablesProvidersByDefault(t *testing.T) {
	cfg := &Config{Providers: []ProviderConfig{{Name: "a"}, {Name: "b"}}}
	ApplyDefaults(cfg)

	for _, p := range cfg.Providers {
		if p.Enabled == nil || !*p.Enabled {
			t.Errorf("provider %q should default to enabled", p.Name)
		}
	}
}

func TestApplyDefaultsPreservesExplicitDisabled(t *testing.T) {
	disabled := false
	cfg := &Config{Providers: []ProviderConfig{{Name: "a", Enabled: &disabled}}}
	ApplyDefaults(cfg)

	if *cfg.Providers[0].Enabled {
		t.Error("explicit Enabled=false should not be overridden")
	}
}
