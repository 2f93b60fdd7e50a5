package routing

// Resolve is deterministic under selection_strategy=priority: same config
// and same health snapshot always yield the same candidate order, since
// strategy.Priority.Order is the identity permutation. round_robin and
// random intentionally break that determinism within a priority tier; see
// pkg/routing/strategy.
