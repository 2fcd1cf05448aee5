package ports

import "time"

// ClockSync maps between local time and the authority's group clock.
type ClockSync interface {
	LocalToGroup(local time.Time) time.Time
	GroupToLocal(group time.Time) time.Time
}
