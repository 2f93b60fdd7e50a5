// Package health tracks per-provider error counters, cooldown timers, and
// health state transitions as a request-outcome-driven state machine: a
// provider's health is derived from the outcomes of real traffic, not
// from a separate polling loop.
package health

import (
	"sync"
	"time"

	"mercator-hq/relay/pkg/provider"
)

// State is the health state of a single provider identity.
type State string

const (
	Healthy   State = "healthy"
	Unhealthy State = "unhealthy"
)

// Snapshot is a point-in-time, read-only view of a provider's health.
type Snapshot struct {
	Identity          provider.Identity
	State             State
	ConsecutiveErrors int
	LastErrorAt       time.Time
	LastSuccessAt     time.Time
	CooldownUntil     time.Time
}

// Eligible reports whether a provider in this state may be selected:
// state = healthy OR now >= cooldown_until.
func (s Snapshot) Eligible(now time.Time) bool {
	if s.State == Healthy {
		return true
	}
	return !now.Before(s.CooldownUntil)
}

// Config controls the thresholds driving state transitions.
type Config struct {
	// UnhealthyThreshold is the consecutive error count that trips a
	// provider to Unhealthy.
	UnhealthyThreshold int
	// FailureCooldown is how long an unhealthy provider stays ineligible
	// once it trips.
	FailureCooldown time.Duration
	// UnhealthyResetTimeout: a provider recovers to Healthy once this much
	// time has elapsed since its last error, even without a success.
	UnhealthyResetTimeout time.Duration
	// UnhealthyResetOnSuccess: a successful response resets
	// ConsecutiveErrors to zero (in addition to flipping State to Healthy,
	// which always happens on success).
	UnhealthyResetOnSuccess bool
}

type entry struct {
	mu    sync.RWMutex
	state Snapshot
}

// Tracker is the per-process health tracker. It favors one lock per
// provider over a single global lock: reads (from the route resolver,
// potentially many goroutines) and the single writer (the dispatcher
// goroutine handling that provider's attempt) only ever contend with
// other callers for the same provider.
type Tracker struct {
	cfg Config

	mu      sync.RWMutex
	entries map[provider.Identity]*entry
}

// NewTracker creates a Tracker. Providers are registered lazily on first
// RecordSuccess/RecordFailure/Snapshot call, starting Healthy.
func NewTracker(cfg Config) *Tracker {
	return &Tracker{
		cfg:     cfg,
		entries: make(map[provider.Identity]*entry),
	}
}

func (t *Tracker) entryFor(id provider.Identity) *entry {
	t.mu.RLock()
	e, ok := t.entries[id]
	t.mu.RUnlock()
	if ok {
		return e
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[id]; ok {
		return e
	}
	e = &entry{state: Snapshot{Identity: id, State: Healthy}}
	t.entries[id] = e
	return e
}

// Snapshot returns the current health for a provider identity, applying
// the time-based reset-to-healthy transition as a side effect: an
// unhealthy provider recovers once now - last_error_at >=
// unhealthy_reset_timeout.
func (t *Tracker) Snapshot(id provider.Identity, now time.Time) Snapshot {
	e := t.entryFor(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	t.maybeResetLocked(e, now)
	return e.state
}

func (t *Tracker) maybeResetLocked(e *entry, now time.Time) {
	if e.state.State != Unhealthy {
		return
	}
	if t.cfg.UnhealthyResetTimeout <= 0 || e.state.LastErrorAt.IsZero() {
		return
	}
	if now.Sub(e.state.LastErrorAt) >= t.cfg.UnhealthyResetTimeout {
		e.state.State = Healthy
	}
}

// RecordSuccess updates health after a terminal_success outcome.
func (t *Tracker) RecordSuccess(id provider.Identity, now time.Time) {
	e := t.entryFor(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.LastSuccessAt = now
	e.state.State = Healthy
	if t.cfg.UnhealthyResetOnSuccess {
		e.state.ConsecutiveErrors = 0
	}
}

// RecordFailure updates health after a health-counting (retryable)
// failure. It returns the resulting snapshot so the dispatcher can log
// the transition.
func (t *Tracker) RecordFailure(id provider.Identity, now time.Time) Snapshot {
	e := t.entryFor(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.ConsecutiveErrors++
	e.state.LastErrorAt = now

	threshold := t.cfg.UnhealthyThreshold
	if threshold <= 0 {
		threshold = 1
	}
	if e.state.ConsecutiveErrors >= threshold {
		e.state.State = Unhealthy
		e.state.CooldownUntil = now.Add(t.cfg.FailureCooldown)
	}
	return e.state
}

// All returns a snapshot of every tracked provider, for diagnostics
// (GET /providers).
func (t *Tracker) All(now time.Time) []Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Snapshot, 0, len(t.entries))
	for _, e := range t.entries {
		e.mu.Lock()
		t.maybeResetLocked(e, now)
		out = append(out, e.state)
		e.mu.Unlock()
	}
	return out
}
