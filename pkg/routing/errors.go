package routing

import "errors"

// ErrNoRoute is returned when no configured route (exact or glob) matches
// the requested model. Callers surface this as the no_route error kind.
var ErrNoRoute = errors.New("routing: no route matches model")
