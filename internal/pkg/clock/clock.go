// Package clock provides time utilities for the application
package clock

import "time"

// Clock provides time functionality. Battle expiry, turn timeouts and
// cooldowns all read time through a Clock so tests can move it.
type Clock interface {
	Now() time.Time
}

// Real implements Clock using actual system time
type Real struct{}

// Now returns the current time in UTC
func (c *Real) Now() time.Time {
	return time.Now().UTC()
}

// New returns a new real clock
func New() Clock {
	return &Real{}
}
