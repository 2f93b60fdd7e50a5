// Package dispatch wires fingerprinting, deduplication, routing, health,
// OAuth, and protocol translation into a single request lifecycle: one
// inbound request resolves to a fingerprint, joins or leads an in-flight
// entry, and — if leading — walks the ordered candidate list until one
// succeeds, fails non-retryably, or the list is exhausted.
package dispatch
