package strategy

import (
	"math/rand"
	"sync/atomic"
)

// Random reshuffles a tier of equal-priority candidates on every call. It
// seeds a local source from the caller-supplied cursor (advanced
// atomically) so Order has no shared mutable rand.Rand to guard.
type Random struct{}

func (Random) Name() string { return "random" }

func (Random) Order(n int, cursor *uint64) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	seed := atomic.AddUint64(cursor, 1)
	r := rand.New(rand.NewSource(int64(seed)))
	r.Shuffle(n, func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
