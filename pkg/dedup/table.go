package dedup

import (
	"sync"
	"time"
)

// Entry is the in-flight table row for one fingerprint: the leader's
// broadcaster plus bookkeeping.
type Entry struct {
	Fingerprint string
	Broadcaster *Broadcaster
	CreatedAt   time.Time

	mu          sync.Mutex
	waiterCount int
}

// Waiters returns how many requests have joined this entry (leader
// included); the count is not decremented when a waiter leaves.
func (e *Entry) Waiters() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.waiterCount
}

func (e *Entry) incWaiters() {
	e.mu.Lock()
	e.waiterCount++
	e.mu.Unlock()
}

// Table is the process-wide fingerprint -> in-flight Entry map. A single
// lock guards table lookups; Broadcaster operations happen outside it.
// One Table is constructed per running server — there is no global
// singleton.
type Table struct {
	mu      sync.Mutex
	entries map[string]*Entry

	// sseErrorCleanupDelay is how long a closed-error entry is retained
	// before eviction, so concurrent SSE-retry duplicates still observe
	// the same error.
	sseErrorCleanupDelay time.Duration
}

// NewTable creates an empty deduplication table.
func NewTable(sseErrorCleanupDelay time.Duration) *Table {
	return &Table{
		entries:              make(map[string]*Entry),
		sseErrorCleanupDelay: sseErrorCleanupDelay,
	}
}

// JoinOrLead looks up an existing in-flight entry for fingerprint. If one
// exists, it attaches as a subscriber and returns (entry, false). If none
// exists, it installs a new entry with a fresh broadcaster and returns
// (entry, true) — the caller becomes leader.
func (t *Table) JoinOrLead(fingerprint string) (entry *Entry, isLeader bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.entries[fingerprint]; ok {
		e.incWaiters()
		return e, false
	}

	e := &Entry{
		Fingerprint: fingerprint,
		Broadcaster: NewBroadcaster(),
		CreatedAt:   time.Now(),
		waiterCount: 1,
	}
	t.entries[fingerprint] = e
	return e, true
}

// Retire removes an entry from the table. For a broadcaster that closed
// with a mid-stream error, callers should instead use RetireAfterDelay so
// duplicate arrivals keep joining the same broadcaster during the SSE
// error retention window.
func (t *Table) Retire(fingerprint string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, fingerprint)
}

// RetireAfterDelay schedules removal of the entry after the configured
// sse_error_cleanup_delay, unless the entry has already been replaced
// (identity checked by pointer) or removed.
func (t *Table) RetireAfterDelay(fingerprint string, entry *Entry) {
	delay := t.sseErrorCleanupDelay
	if delay <= 0 {
		t.Retire(fingerprint)
		return
	}
	time.AfterFunc(delay, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if current, ok := t.entries[fingerprint]; ok && current == entry {
			delete(t.entries, fingerprint)
		}
	})
}

// Len reports the number of in-flight entries, for diagnostics/metrics.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Snapshot reports the current subscriber count of every in-flight
// entry's broadcaster, keyed by fingerprint, so a metrics poller can
// report live per-fingerprint gauges without reaching into the table's
// locking.
func (t *Table) Snapshot() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]int, len(t.entries))
	for fp, e := range t.entries {
		out[fp] = e.Broadcaster.SubscriberCount()
	}
	return out
}
