package main

import (
	"context"
	"errors"
	"regexp"
	"sync/atomic"
	"time"

	"golang.org/x/oauth2"
	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/dedup"
	"mercator-hq/relay/pkg/dispatch"
	"mercator-hq/relay/pkg/health"
	"mercator-hq/relay/pkg/oauth"
	"mercator-hq/relay/pkg/provider"
	"mercator-hq/relay/pkg/routing"
	"mercator-hq/relay/pkg/routing/strategy"
	"mercator-hq/relay/pkg/security/auth"
	telehealth "mercator-hq/relay/pkg/telemetry/health"
	"mercator-hq/relay/pkg/telemetry/logging"
	"mercator-hq/relay/pkg/telemetry/metrics"
)

// dynamicRegistry and dynamicResolver let a config reload publish a fresh
// provider list and route table without restarting the dispatcher or
// invalidating requests already mid-flight: a reader loads whatever
// snapshot was current at the instant it looked, per the configuration
// hot-swap invariant.
type dynamicRegistry struct {
	ptr atomic.Pointer[provider.Registry]
}

func newDynamicRegistry(r *provider.Registry) *dynamicRegistry {
	d := &dynamicRegistry{}
	d.ptr.Store(r)
	return d
}

func (d *dynamicRegistry) All() []*provider.Provider { return d.ptr.Load().All() }
func (d *dynamicRegistry) swap(r *provider.Registry) { d.ptr.Store(r) }

type dynamicResolver struct {
	ptr atomic.Pointer[routing.Resolver]
}

func newDynamicResolver(r *routing.Resolver) *dynamicResolver {
	d := &dynamicResolver{}
	d.ptr.Store(r)
	return d
}

func (d *dynamicResolver) Resolve(clientModel string) ([]routing.ResolvedCandidate, error) {
	return d.ptr.Load().Resolve(clientModel)
}

func (d *dynamicResolver) swap(r *routing.Resolver) { d.ptr.Store(r) }

// buildRegistry translates the configured provider list into a
// provider.Registry.
func buildRegistry(cfg *config.Config) (*provider.Registry, error) {
	providers := make([]*provider.Provider, 0, len(cfg.Providers))
	for _, pc := range cfg.Providers {
		enabled := true
		if pc.Enabled != nil {
			enabled = *pc.Enabled
		}
		providers = append(providers, &provider.Provider{
			Identity: provider.Identity{Name: pc.Name, Account: pc.Account},
			Protocol: provider.Protocol(pc.Protocol),
			BaseURL:  pc.BaseURL,
			Auth:     provider.Auth{Kind: provider.AuthKind(pc.Auth.Kind), Value: pc.Auth.Value},
			ProxyURL: pc.ProxyURL,
			Enabled:  enabled,
		})
	}
	return provider.NewRegistry(providers)
}

// buildHealthTracker translates the health-related settings into a
// health.Tracker.
func buildHealthTracker(cfg *config.Config) *health.Tracker {
	s := cfg.Settings
	return health.NewTracker(health.Config{
		UnhealthyThreshold:      s.UnhealthyThreshold,
		FailureCooldown:         s.FailureCooldown,
		UnhealthyResetTimeout:   s.UnhealthyResetTimeout,
		UnhealthyResetOnSuccess: s.UnhealthyResetOnSuccess,
	})
}

// buildResolver translates the configured model routes into a
// routing.Resolver, selecting the configured candidate-ordering strategy.
func buildResolver(cfg *config.Config, registry *provider.Registry, tracker *health.Tracker) *routing.Resolver {
	routes := make([]routing.Route, 0, len(cfg.ModelRoutes))
	for _, rc := range cfg.ModelRoutes {
		candidates := make([]routing.Candidate, 0, len(rc.Candidates))
		for _, cc := range rc.Candidates {
			candidates = append(candidates, routing.Candidate{
				ProviderName: cc.Provider,
				Model:        cc.Model,
				Priority:     cc.Priority,
				Account:      cc.Account,
			})
		}
		routes = append(routes, routing.Route{Pattern: rc.Pattern, Candidates: candidates})
	}

	var strat strategy.Strategy
	switch cfg.Settings.SelectionStrategy {
	case "round_robin":
		strat = strategy.RoundRobin{}
	case "random":
		strat = strategy.Random{}
	default:
		strat = strategy.Priority{}
	}

	return routing.NewResolver(routes, registry, tracker, strat)
}

// buildOAuthConfig builds the oauth2.Config shared by the PKCE authorization
// flow and the refresh-token exchange.
func buildOAuthConfig(cfg *config.Config) *oauth2.Config {
	o := cfg.Settings.OAuth
	return &oauth2.Config{
		ClientID:    o.ClientID,
		RedirectURL: o.RedirectURI,
		Scopes:      o.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  o.AuthURL,
			TokenURL: o.TokenURL,
		},
	}
}

// buildOAuthStore constructs the OAuth credential store, backed by a
// 0600-JSON-file persister when persistence is enabled.
func buildOAuthStore(cfg *config.Config, oauthCfg *oauth2.Config) *oauth.Store {
	o := cfg.Settings.OAuth
	refresher := &oauth.OAuth2Refresher{Config: oauthCfg}

	var persister oauth.TokenPersister
	if o.EnablePersistence {
		persister = &oauth.FilePersister{Dir: o.PersistenceDir}
	}

	return oauth.NewStore(refresher, persister, "relay", o.EnablePersistence, o.EnableAutoRefresh)
}

// compileBodyPatterns compiles the configured unhealthy-response-body
// regexes once at startup; an invalid pattern is skipped rather than
// failing the whole relay.
func compileBodyPatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			continue
		}
		compiled = append(compiled, re)
	}
	return compiled
}

func buildClassifyConfig(cfg *config.Config) dispatch.ClassifyConfig {
	codes := make(map[int]bool, len(cfg.Settings.UnhealthyHTTPCodes))
	for _, c := range cfg.Settings.UnhealthyHTTPCodes {
		codes[c] = true
	}

	return dispatch.ClassifyConfig{
		ExceptionPatterns: cfg.Settings.UnhealthyExceptionPatterns,
		HTTPCodes:         codes,
		BodyPatterns:      compileBodyPatterns(cfg.Settings.UnhealthyResponseBodyPatterns),
	}
}

func buildLogger(cfg *config.Config) (*logging.Logger, error) {
	level := cfg.LogLevel
	if level == "" {
		level = "info"
	}
	return logging.New(logging.Config{
		Level:  level,
		Format: string(logging.FormatJSON),
	})
}

func buildClientAuth(cfg *config.Config) *auth.ClientKeyMiddleware {
	if !cfg.Settings.ClientAuth.Enabled {
		return nil
	}
	infos := make([]*auth.ClientKeyInfo, 0, len(cfg.Settings.ClientAuth.Keys))
	for _, k := range cfg.Settings.ClientAuth.Keys {
		infos = append(infos, &auth.ClientKeyInfo{Key: k, Enabled: true})
	}
	validator := auth.NewClientKeyValidator(infos)
	sources := []auth.ClientKeySource{
		{Type: "header", Name: "x-api-key"},
		{Type: "header", Name: "Authorization", Scheme: "Bearer"},
	}
	return auth.NewClientKeyMiddleware(validator, sources)
}

func buildMetricsCollector() *metrics.Collector {
	return metrics.NewCollector(nil)
}

var errNoEligibleProviders = errors.New("no eligible providers")

// buildHealthChecker wires a readiness check that fails when no provider
// identity is currently eligible to take traffic.
func buildHealthChecker(registry *dynamicRegistry, tracker *health.Tracker) *telehealth.Checker {
	checker := telehealth.New(0)
	checker.RegisterCheck("providers", func(ctx context.Context) error {
		now := time.Now()
		for _, p := range registry.All() {
			if tracker.Snapshot(p.Identity, now).Eligible(now) {
				return nil
			}
		}
		return errNoEligibleProviders
	})
	return checker
}

func buildDedupTable(cfg *config.Config) *dedup.Table {
	return dedup.NewTable(cfg.Settings.Deduplication.SSEErrorCleanupDelay)
}

func buildDispatcher(cfg *config.Config, table *dedup.Table, resolver dispatch.Resolver, tracker *health.Tracker, store *oauth.Store, collector *metrics.Collector) *dispatch.Dispatcher {
	caller := dispatch.NewHTTPCaller(buildClassifyConfig(cfg), cfg.Settings.Timeouts.PerRequestTimeout)
	return &dispatch.Dispatcher{
		Table:    table,
		Resolver: resolver,
		Health:   tracker,
		OAuth:    store,
		Caller:   caller,
		StreamMode: func(p *provider.Provider) dispatch.StreamMode {
			return dispatch.Background
		},
		Metrics:                       collector,
		IncludeMaxTokensInFingerprint: cfg.Settings.Deduplication.IncludeMaxTokensInSignature,
	}
}
