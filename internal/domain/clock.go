package domain

import "github.com/jonboulle/clockwork"

// clock stamps Report.ProcessedAt. Tests freeze it with SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the report time source. Pass nil to restore real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	clock = c
}
