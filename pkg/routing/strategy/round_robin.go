package strategy

import "sync/atomic"

// RoundRobin rotates the starting point across a tier of equal-priority
// candidates using a per-route cursor supplied by the caller, so that N
// equal-priority candidates each lead within any N-call window (absent
// health changes).
type RoundRobin struct{}

func (RoundRobin) Name() string { return "round_robin" }

func (RoundRobin) Order(n int, cursor *uint64) []int {
	if n == 0 {
		return nil
	}
	start := int(atomic.AddUint64(cursor, 1)-1) % n
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = (start + i) % n
	}
	return out
}
