package sampler

import "time"

// Clock abstracts wall time and sleeping so cadences can be driven by tests
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock is the wall clock
var SystemClock Clock = realClock{}

// nextDelay is the fixed-period sleep after an iteration that took elapsed:
// the rest of the period, but never less than floor.
func nextDelay(period, elapsed, floor time.Duration) time.Duration {
	if d := period - elapsed; d > floor {
		return d
	}
	return floor
}
