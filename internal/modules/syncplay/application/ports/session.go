package ports

import (
	"context"

	"github.com/sglre6355/syncbot/internal/modules/syncplay/domain"
)

// SessionController owns group membership for one client.
type SessionController interface {
	// IsFollowing returns true while this client follows group playback.
	IsFollowing() bool

	// Follow starts following group playback and returns once the
	// authority has accepted this client.
	Follow(ctx context.Context) error

	// Halt stops following group playback. It is the escape hatch used when
	// this client can no longer stay in sync.
	Halt(ctx context.Context, reason string)

	// LastCommand returns the most recent playback command, or nil.
	LastCommand() *domain.PlaybackCommand
}
