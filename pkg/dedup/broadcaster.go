// Package dedup implements the in-flight deduplication table and the
// streaming broadcaster that fans one upstream response out to one or more
// waiting clients: a one-leader/many-subscriber model built around a
// producer-plus-replay-buffer broadcaster.
package dedup

import (
	"context"
	"sync"
)

// CloseState is the terminal state of a Broadcaster.
type CloseState int

const (
	Open CloseState = iota
	ClosedOK
	ClosedError
)

// Chunk is one unit of produced output. For streaming responses this is
// one SSE event's raw bytes; for buffered (background-mode) responses the
// whole body is published as a single Chunk.
type Chunk []byte

// Broadcaster holds the ordered sequence of chunks produced so far plus
// the completion state, and fans them out to any number of subscribers. A
// late subscriber receives the buffered prefix in order, then the live
// tail — the Subscribe/Publish race is made atomic by doing both under the
// same lock.
type Broadcaster struct {
	mu       sync.Mutex
	buf      []Chunk
	state    CloseState
	closeErr error
	notify   chan struct{} // closed and replaced on every state change

	subscriberCount int
	hadSubscriber   bool
	idleCh          chan struct{}
	idleOnce        sync.Once
}

// NewBroadcaster creates an open Broadcaster with no chunks produced yet.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{notify: make(chan struct{}), idleCh: make(chan struct{})}
}

// Publish appends a chunk and wakes any blocked subscribers. Publish after
// Close is a programmer error and panics, matching "once closed the
// broadcaster is immutable".
func (b *Broadcaster) Publish(c Chunk) {
	b.mu.Lock()
	if b.state != Open {
		b.mu.Unlock()
		panic("dedup: Publish called on a closed Broadcaster")
	}
	b.buf = append(b.buf, c)
	old := b.notify
	b.notify = make(chan struct{})
	b.mu.Unlock()
	close(old)
}

// Close transitions the broadcaster to its terminal state. Close is
// idempotent: a second call is a no-op, so both the dispatcher's normal
// completion path and a cancellation path may call it safely.
func (b *Broadcaster) Close(state CloseState, err error) {
	b.mu.Lock()
	if b.state != Open {
		b.mu.Unlock()
		return
	}
	b.state = state
	b.closeErr = err
	old := b.notify
	b.notify = make(chan struct{})
	b.mu.Unlock()
	close(old)
}

// HasPublished reports whether any chunk has been published yet — the
// failover constraint uses this to decide whether a candidate failure is
// still pre-commit.
func (b *Broadcaster) HasPublished() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf) > 0
}

// State returns the current completion state and, if closed, the terminal
// error (nil for ClosedOK).
func (b *Broadcaster) State() (CloseState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state, b.closeErr
}

// Subscription is a cursor into a Broadcaster's chunk sequence.
type Subscription struct {
	b     *Broadcaster
	index int
}

// Subscribe registers a new subscriber and returns a cursor starting at
// the beginning of the buffered prefix. Subscribing never blocks.
func (b *Broadcaster) Subscribe() *Subscription {
	b.mu.Lock()
	b.subscriberCount++
	b.hadSubscriber = true
	b.mu.Unlock()
	return &Subscription{b: b}
}

// Unsubscribe releases a subscriber slot. Callers should defer this after
// Subscribe. The first time this drops the count back to zero, Idle's
// channel is closed so the dispatcher can cancel a leader with nobody
// left to receive its upstream fetch.
func (s *Subscription) Unsubscribe() {
	s.b.mu.Lock()
	s.b.subscriberCount--
	goneIdle := s.b.hadSubscriber && s.b.subscriberCount == 0
	s.b.mu.Unlock()

	if goneIdle {
		s.b.idleOnce.Do(func() { close(s.b.idleCh) })
	}
}

// Idle returns a channel that is closed the first time every subscriber
// has unsubscribed after at least one had subscribed.
func (b *Broadcaster) Idle() <-chan struct{} {
	return b.idleCh
}

// Next blocks until the next chunk is available, the broadcaster closes,
// or ctx is cancelled. ok is false once the sequence is exhausted: check
// err (nil on ClosedOK) to distinguish clean completion from failure.
func (s *Subscription) Next(ctx context.Context) (chunk Chunk, ok bool, err error) {
	for {
		s.b.mu.Lock()
		if s.index < len(s.b.buf) {
			c := s.b.buf[s.index]
			s.index++
			s.b.mu.Unlock()
			return c, true, nil
		}
		if s.b.state != Open {
			closeErr := s.b.closeErr
			s.b.mu.Unlock()
			return nil, false, closeErr
		}
		wake := s.b.notify
		s.b.mu.Unlock()

		select {
		case <-wake:
			continue
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
}

// SubscriberCount returns the number of currently-registered subscribers,
// reported per fingerprint by Table.Snapshot for the subscriber gauge.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.subscriberCount
}
