package dedup

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"
)

func TestBroadcasterReplaysPrefixThenTail(t *testing.T) {
	b := NewBroadcaster()
	b.Publish(Chunk("a"))
	b.Publish(Chunk("b"))

	sub := b.Subscribe()
	defer sub.Unsubscribe()

	ctx := context.Background()
	c1, ok, err := sub.Next(ctx)
	if !ok || err != nil || string(c1) != "a" {
		t.Fatalf("unexpected first chunk: %q ok=%v err=%v", c1, ok, err)
	}
	c2, ok, err := sub.Next(ctx)
	if !ok || err != nil || string(c2) != "b" {
		t.Fatalf("unexpected second chunk: %q ok=%v err=%v", c2, ok, err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	var live Chunk
	go func() {
		defer wg.Done()
		c, ok, err := sub.Next(ctx)
		if ok && err == nil {
			live = c
		}
	}()

	time.Sleep(10 * time.Millisecond)
	b.Publish(Chunk("c"))
	wg.Wait()

	if string(live) != "c" {
		t.Fatalf("expected live tail chunk %q, got %q", "c", live)
	}
}

func TestBroadcasterSubscribersSeeIdenticalSequence(t *testing.T) {
	b := NewBroadcaster()
	const n = 50

	var wg sync.WaitGroup
	results := make([][]string, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sub := b.Subscribe()
			defer sub.Unsubscribe()
			var got []string
			for {
				c, ok, err := sub.Next(context.Background())
				if !ok {
					if err != nil {
						t.Errorf("subscriber %d: unexpected error %v", i, err)
					}
					break
				}
				got = append(got, string(c))
			}
			results[i] = got
		}(i)
	}

	for i := 0; i < n; i++ {
		b.Publish(Chunk(string(rune('a' + i%26))))
	}
	b.Close(ClosedOK, nil)
	wg.Wait()

	for i := 1; i < len(results); i++ {
		if !reflect.DeepEqual(results[0], results[i]) {
			t.Fatalf("subscriber %d saw a different sequence than subscriber 0", i)
		}
	}
	if len(results[0]) != n {
		t.Fatalf("expected %d chunks, got %d", n, len(results[0]))
	}
}

func TestBroadcasterCloseIsIdempotent(t *testing.T) {
	b := NewBroadcaster()
	b.Close(ClosedOK, nil)
	b.Close(ClosedError, context.DeadlineExceeded)

	state, err := b.State()
	if state != ClosedOK || err != nil {
		t.Fatalf("expected the first Close to stick, got state=%v err=%v", state, err)
	}
}

func TestPublishAfterClosePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected Publish after Close to panic")
		}
	}()
	b := NewBroadcaster()
	b.Close(ClosedOK, nil)
	b.Publish(Chunk("late"))
}
