// Package strategy implements the selection_strategy orderings applied
// within one priority tier of a route's candidate list: priority (stable,
// the default), round_robin (rotates across equal-priority entries using a
// monotonically advancing cursor), and random (reshuffled per call).
package strategy

// Strategy orders a tier of same-priority indices [0, n). It returns a
// permutation of 0..n-1.
type Strategy interface {
	Name() string
	Order(n int, cursor *uint64) []int
}

// Priority is the identity ordering: candidates are tried in the order
// they were given (already sorted by ascending priority upstream).
type Priority struct{}

func (Priority) Name() string { return "priority" }

func (Priority) Order(n int, _ *uint64) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
