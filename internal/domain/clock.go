package domain

import "github.com/jonboulle/clockwork"

// clock is the wall-clock source for the request's current year. Tests pin
// it with SetClock so temporal classification is reproducible.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// CurrentYear returns the calendar year of the package clock in UTC.
func CurrentYear() int {
	return clock.Now().UTC().Year()
}
