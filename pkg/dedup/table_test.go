package dedup

import (
	"sync"
	"testing"
	"time"
)

func TestJoinOrLeadSingleLeaderForConcurrentDuplicates(t *testing.T) {
	table := NewTable(0)

	var wg sync.WaitGroup
	leaders := make([]bool, 20)
	for i := range leaders {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, isLeader := table.JoinOrLead("fp-1")
			leaders[i] = isLeader
		}(i)
	}
	wg.Wait()

	count := 0
	for _, l := range leaders {
		if l {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one leader among concurrent duplicates, got %d", count)
	}
}

func TestRetireRemovesEntry(t *testing.T) {
	table := NewTable(0)
	table.JoinOrLead("fp-1")
	if table.Len() != 1 {
		t.Fatalf("expected one entry, got %d", table.Len())
	}
	table.Retire("fp-1")
	if table.Len() != 0 {
		t.Fatalf("expected entry to be retired, got %d", table.Len())
	}
}

func TestRetireAfterDelayKeepsEntryDuringWindow(t *testing.T) {
	table := NewTable(30 * time.Millisecond)
	entry, _ := table.JoinOrLead("fp-1")
	entry.Broadcaster.Close(ClosedError, nil)
	table.RetireAfterDelay("fp-1", entry)

	if _, isLeader := table.JoinOrLead("fp-1"); isLeader {
		t.Fatal("expected duplicate arrival during the cleanup window to join the existing entry")
	}

	time.Sleep(60 * time.Millisecond)
	if table.Len() != 0 {
		t.Fatalf("expected entry evicted after cleanup delay, got len=%d", table.Len())
	}
}
