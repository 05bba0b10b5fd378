package domain

import "github.com/jonboulle/clockwork"

// clock is a package-level time source so tests can freeze time via SetClock.
// Production code uses the real clock; tests inject a fake for deterministic
// GeneratedAt timestamps.
var clock = clockwork.NewRealClock()

// Clock returns the current time source.
func Clock() clockwork.Clock {
	return clock
}

// SetClock swaps the time source for plan generation. Pass nil to reset to
// real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
