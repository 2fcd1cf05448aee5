package ports

import (
	"context"
	"time"

	"github.com/sglre6355/syncbot/internal/modules/syncplay/domain"
)

// ReadyReport tells the authority this client has buffered and paused.
type ReadyReport struct {
	GroupTime time.Time
	Position  domain.Ticks
	IsPlaying bool
	SlotID    domain.SlotID
}

// ReadySender delivers readiness reports to the authority.
type ReadySender interface {
	SendReady(ctx context.Context, report ReadyReport) error
}

// GroupTransport is the connection to the authority for one group session.
type GroupTransport interface {
	ReadySender

	// Join asks the authority to add this client to the group.
	Join(ctx context.Context, groupID string) error

	// Leave removes this client from the group.
	Leave(ctx context.Context) error

	// Close closes the connection.
	Close() error
}
