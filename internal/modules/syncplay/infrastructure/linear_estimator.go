package infrastructure

import (
	"time"

	"github.com/sglre6355/syncbot/internal/modules/syncplay/application/ports"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/domain"
)

// LinearEstimator assumes playback advanced at normal speed since the last
// known position.
type LinearEstimator struct {
	clock ports.ClockSync
	now   func() time.Time
}

// NewLinearEstimator creates a LinearEstimator reading group time from clock.
func NewLinearEstimator(clock ports.ClockSync) *LinearEstimator {
	return &LinearEstimator{
		clock: clock,
		now:   time.Now,
	}
}

// EstimatePositionNow extrapolates lastKnown from asOf (group time) to now.
// A position asserted for a future time is returned unchanged.
func (e *LinearEstimator) EstimatePositionNow(lastKnown domain.Ticks, asOf time.Time) domain.Ticks {
	if asOf.IsZero() {
		return lastKnown
	}
	elapsed := e.clock.LocalToGroup(e.now()).Sub(asOf)
	if elapsed <= 0 {
		return lastKnown
	}
	return lastKnown + domain.TicksFromDuration(elapsed)
}

// Ensure LinearEstimator implements ports.PositionEstimator.
var _ ports.PositionEstimator = (*LinearEstimator)(nil)
