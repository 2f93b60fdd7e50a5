package health

// See tracker.go for the Tracker type. This package intentionally has no
// background polling loop: health here is entirely a function of the
// outcomes the dispatcher observes on real request traffic.
