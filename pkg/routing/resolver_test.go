package routing

import (
	"errors"
	"testing"
	"time"

	"mercator-hq/relay/pkg/health"
	"mercator-hq/relay/pkg/provider"
	"mercator-hq/relay/pkg/routing/strategy"
)

func newRegistry(t *testing.T, providers ...*provider.Provider) *provider.Registry {
	t.Helper()
	reg, err := provider.NewRegistry(providers)
	if err != nil {
		t.Fatalf("provider.NewRegistry: %v", err)
	}
	return reg
}

func enabledProvider(name string) *provider.Provider {
	return &provider.Provider{
		Identity: provider.Identity{Name: name},
		Protocol: provider.Anthropic,
		BaseURL:  "https://" + name,
		Auth:     provider.Auth{Kind: provider.AuthAPIKey, Value: "k"},
		Enabled:  true,
	}
}

func TestResolveExactMatch(t *testing.T) {
	reg := newRegistry(t, enabledProvider("a"))
	tracker := health.NewTracker(health.Config{})
	r := NewResolver([]Route{
		{Pattern: "claude-3-opus", Candidates: []Candidate{{ProviderName: "a", Model: "claude-3-opus-upstream"}}},
	}, reg, tracker, strategy.Priority{})

	got, err := r.Resolve("claude-3-opus")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) != 1 || got[0].UpstreamModel != "claude-3-opus-upstream" {
		t.Fatalf("unexpected candidates: %+v", got)
	}
}

func TestResolveGlobMatch(t *testing.T) {
	reg := newRegistry(t, enabledProvider("a"))
	tracker := health.NewTracker(health.Config{})
	r := NewResolver([]Route{
		{Pattern: "*opus*", Candidates: []Candidate{{ProviderName: "a", Model: "m"}}},
	}, reg, tracker, strategy.Priority{})

	got, err := r.Resolve("claude-3-OPUS-20240229")
	if err != nil || len(got) != 1 {
		t.Fatalf("expected glob to match case-insensitively, got %+v err=%v", got, err)
	}
}

func TestResolveNoRoute(t *testing.T) {
	reg := newRegistry(t, enabledProvider("a"))
	tracker := health.NewTracker(health.Config{})
	r := NewResolver(nil, reg, tracker, strategy.Priority{})

	_, err := r.Resolve("unknown-model")
	if !errors.Is(err, ErrNoRoute) {
		t.Fatalf("expected ErrNoRoute, got %v", err)
	}
}

func TestResolvePassthroughModel(t *testing.T) {
	reg := newRegistry(t, enabledProvider("a"))
	tracker := health.NewTracker(health.Config{})
	r := NewResolver([]Route{
		{Pattern: "claude-3-opus", Candidates: []Candidate{{ProviderName: "a", Model: provider.Passthrough}}},
	}, reg, tracker, strategy.Priority{})

	got, err := r.Resolve("claude-3-opus")
	if err != nil || got[0].UpstreamModel != "claude-3-opus" {
		t.Fatalf("expected passthrough to forward the client model, got %+v err=%v", got, err)
	}
}

func TestResolveSkipsDisabledAndUnhealthyCandidates(t *testing.T) {
	disabled := enabledProvider("disabled")
	disabled.Enabled = false
	healthy := enabledProvider("healthy")
	unhealthy := enabledProvider("unhealthy")

	reg := newRegistry(t, disabled, healthy, unhealthy)
	tracker := health.NewTracker(health.Config{UnhealthyThreshold: 1, FailureCooldown: time.Hour})
	tracker.RecordFailure(unhealthy.Identity, time.Now())

	r := NewResolver([]Route{
		{Pattern: "m", Candidates: []Candidate{
			{ProviderName: "disabled", Model: "x", Priority: 0},
			{ProviderName: "unhealthy", Model: "x", Priority: 0},
			{ProviderName: "healthy", Model: "x", Priority: 0},
		}},
	}, reg, tracker, strategy.Priority{})

	got, err := r.Resolve("m")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) != 1 || got[0].Provider.Name != "healthy" {
		t.Fatalf("expected only the healthy, enabled provider to survive, got %+v", got)
	}
}

func TestResolveOrdersByAscendingPriorityTier(t *testing.T) {
	reg := newRegistry(t, enabledProvider("low"), enabledProvider("high"))
	tracker := health.NewTracker(health.Config{})
	r := NewResolver([]Route{
		{Pattern: "m", Candidates: []Candidate{
			{ProviderName: "low", Model: "x", Priority: 1},
			{ProviderName: "high", Model: "x", Priority: 0},
		}},
	}, reg, tracker, strategy.Priority{})

	got, err := r.Resolve("m")
	if err != nil || len(got) != 2 {
		t.Fatalf("Resolve: %+v err=%v", got, err)
	}
	if got[0].Provider.Name != "high" || got[1].Provider.Name != "low" {
		t.Fatalf("expected priority-0 tier before priority-1 tier, got %+v", got)
	}
}

func TestResolveRoundRobinRotatesWithinTier(t *testing.T) {
	reg := newRegistry(t, enabledProvider("a"), enabledProvider("b"))
	tracker := health.NewTracker(health.Config{})
	r := NewResolver([]Route{
		{Pattern: "m", Candidates: []Candidate{
			{ProviderName: "a", Model: "x", Priority: 0},
			{ProviderName: "b", Model: "x", Priority: 0},
		}},
	}, reg, tracker, strategy.RoundRobin{})

	first, _ := r.Resolve("m")
	second, _ := r.Resolve("m")
	if first[0].Provider.Name == second[0].Provider.Name {
		t.Fatalf("expected round robin to rotate the leading candidate across calls")
	}
}
