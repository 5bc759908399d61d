package core

import "github.com/cockroachdb/errors"

// ErrCapacityExhausted is returned by ProcessNewOrder when the OrderArena's
// free stack is empty and an allocation was required. ProcessNewOrder
// allocates the inbound order's slot before it matches anything, so a call
// that returns this error has executed no fills and left the book as it
// was.
var ErrCapacityExhausted = errors.New("core: order arena capacity exhausted")
