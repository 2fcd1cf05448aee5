package ports

import (
	"time"

	"github.com/sglre6355/syncbot/internal/modules/syncplay/domain"
)

// PositionEstimator extrapolates where playback should be right now.
type PositionEstimator interface {
	EstimatePositionNow(lastKnown domain.Ticks, asOf time.Time) domain.Ticks
}
