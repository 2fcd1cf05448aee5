package domain

import "errors"

var (
	// ErrStaleUpdate is returned when an update is not strictly newer than the
	// last accepted one.
	ErrStaleUpdate = errors.New("queue update is not newer than the accepted state")

	// ErrItemCountMismatch is returned when the catalog resolved a different
	// number of items than the update has entries.
	ErrItemCountMismatch = errors.New("resolved item count does not match queue entries")
)
