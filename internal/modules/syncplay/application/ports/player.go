package ports

import (
	"context"

	"github.com/sglre6355/syncbot/internal/modules/syncplay/domain"
)

// PlaybackRequest describes a local playback start of the canonical queue.
type PlaybackRequest struct {
	Items         []domain.PlaylistItem // slot-ordered
	StartIndex    int
	StartPosition domain.Ticks
	ServerID      string
}

// PlayerAdapter wraps the local media player.
// All operations act locally only and never echo to the authority.
type PlayerAdapter interface {
	// NotifyQueueChanged asks the player to re-derive its view of the queue.
	NotifyQueueChanged(ctx context.Context, playlist domain.Playlist)

	// SwitchToSlot makes the given slot the current item.
	SwitchToSlot(ctx context.Context, slotID domain.SlotID) error

	// PauseLocally pauses local playback.
	PauseLocally(ctx context.Context) error

	// ResumeLocally resumes local playback.
	ResumeLocally(ctx context.Context) error

	// SeekLocally moves local playback to the given position.
	SeekLocally(ctx context.Context, position domain.Ticks) error

	// StopLocally stops local playback.
	StopLocally(ctx context.Context) error

	// StartPlayback starts playback of the given items.
	StartPlayback(ctx context.Context, req PlaybackRequest) error

	// SetRepeatMode applies a repeat mode.
	SetRepeatMode(ctx context.Context, mode domain.RepeatMode) error

	// SetShuffleMode applies a shuffle mode.
	SetShuffleMode(ctx context.Context, mode domain.ShuffleMode) error

	// Modes returns the repeat and shuffle modes last applied.
	Modes() (domain.RepeatMode, domain.ShuffleMode)

	// CurrentPosition returns the local playback position. Implementations
	// that answer asynchronously block until the answer arrives or ctx ends.
	CurrentPosition(ctx context.Context) (domain.Ticks, error)

	// IsPlaying returns true if the player considers itself playing.
	IsPlaying() bool
}
