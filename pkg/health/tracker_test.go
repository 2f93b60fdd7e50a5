package health

import (
	"testing"
	"time"

	"mercator-hq/relay/pkg/provider"
)

func TestTrackerStartsHealthy(t *testing.T) {
	tr := NewTracker(Config{UnhealthyThreshold: 3, FailureCooldown: time.Minute})
	id := provider.Identity{Name: "a"}

	snap := tr.Snapshot(id, time.Now())
	if snap.State != Healthy {
		t.Fatalf("expected a freshly seen provider to start healthy, got %v", snap.State)
	}
	if !snap.Eligible(time.Now()) {
		t.Fatalf("expected healthy provider to be eligible")
	}
}

func TestTrackerTripsUnhealthyAtThreshold(t *testing.T) {
	tr := NewTracker(Config{UnhealthyThreshold: 2, FailureCooldown: time.Minute})
	id := provider.Identity{Name: "a"}
	now := time.Now()

	snap := tr.RecordFailure(id, now)
	if snap.State != Healthy {
		t.Fatalf("expected 1 failure below threshold 2 to stay healthy, got %v", snap.State)
	}

	snap = tr.RecordFailure(id, now)
	if snap.State != Unhealthy {
		t.Fatalf("expected 2nd failure to trip unhealthy, got %v", snap.State)
	}
	if snap.Eligible(now) {
		t.Fatalf("expected unhealthy provider within cooldown to be ineligible")
	}
	if snap.Eligible(now.Add(2*time.Minute)) != true {
		t.Fatalf("expected provider past cooldown to be eligible again")
	}
}

func TestTrackerRecoversOnSuccess(t *testing.T) {
	tr := NewTracker(Config{UnhealthyThreshold: 1, FailureCooldown: time.Minute, UnhealthyResetOnSuccess: true})
	id := provider.Identity{Name: "a"}
	now := time.Now()

	tr.RecordFailure(id, now)
	snap := tr.Snapshot(id, now)
	if snap.State != Unhealthy {
		t.Fatalf("expected unhealthy after tripping threshold 1, got %v", snap.State)
	}

	tr.RecordSuccess(id, now)
	snap = tr.Snapshot(id, now)
	if snap.State != Healthy {
		t.Fatalf("expected success to recover health, got %v", snap.State)
	}
	if snap.ConsecutiveErrors != 0 {
		t.Fatalf("expected UnhealthyResetOnSuccess to zero the error count, got %d", snap.ConsecutiveErrors)
	}
}

func TestTrackerResetsAfterTimeoutWithoutSuccess(t *testing.T) {
	tr := NewTracker(Config{UnhealthyThreshold: 1, FailureCooldown: time.Minute, UnhealthyResetTimeout: 5 * time.Minute})
	id := provider.Identity{Name: "a"}
	now := time.Now()

	tr.RecordFailure(id, now)
	if tr.Snapshot(id, now).State != Unhealthy {
		t.Fatalf("expected unhealthy immediately after tripping")
	}

	snap := tr.Snapshot(id, now.Add(6*time.Minute))
	if snap.State != Healthy {
		t.Fatalf("expected time-based reset to recover health without a success, got %v", snap.State)
	}
}

func TestTrackerAllReportsEveryTrackedIdentity(t *testing.T) {
	tr := NewTracker(Config{UnhealthyThreshold: 1, FailureCooldown: time.Minute})
	now := time.Now()
	tr.RecordFailure(provider.Identity{Name: "a"}, now)
	tr.Snapshot(provider.Identity{Name: "b"}, now)

	all := tr.All(now)
	if len(all) != 2 {
		t.Fatalf("expected 2 tracked identities, got %d", len(all))
	}
}
