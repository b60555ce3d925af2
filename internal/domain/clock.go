package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is the package time source. Tests freeze it via SetClock so run
// timestamps are deterministic.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source used for run stamps. Pass nil to reset to
// real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current time of the package clock in UTC.
func Now() time.Time {
	return clock.Now().UTC()
}
