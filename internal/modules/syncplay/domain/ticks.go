package domain

import "time"

// TicksPerSecond is the number of ticks in one second (one tick is 100ns).
const TicksPerSecond = 10_000_000

// Ticks is a playback position in the authority's fixed-point time unit.
type Ticks int64

// TicksFromDuration converts a duration to ticks.
func TicksFromDuration(d time.Duration) Ticks {
	return Ticks(d / 100)
}

// Duration returns the position as a time.Duration.
func (t Ticks) Duration() time.Duration {
	return time.Duration(t) * 100
}

// Milliseconds returns the position in whole milliseconds.
func (t Ticks) Milliseconds() int64 {
	return t.Duration().Milliseconds()
}
