package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sglre6355/syncbot/internal/modules/syncplay/application/ports"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/domain"
)

// StartPlayback (re)starts local playback of the canonical queue at the
// estimated group position. It is a no-op unless this client follows group
// playback and something is playing.
//
// The readiness handshake is armed before the local play call so the
// "playback started" signal cannot be missed. A rejected start is reported
// to the user and not retried.
func (c *QueueCore) StartPlayback(ctx context.Context) error {
	if !c.session.IsFollowing() {
		slog.Debug("not following group playback, skipping playback start", "guild", c.guildID)
		return nil
	}

	snapshot := c.Snapshot()
	if snapshot.Playlist.IsEmpty() {
		slog.Debug("playlist is empty, skipping playback start", "guild", c.guildID)
		return nil
	}

	startIndex := snapshot.CurrentIndex()
	if startIndex == domain.NoPlayingIndex {
		slog.Warn(
			"playing index outside playlist, skipping playback start",
			"guild", c.guildID,
			"playing_index", snapshot.Update.PlayingIndex,
			"playlist_length", snapshot.Playlist.Len(),
		)
		return nil
	}

	anchor := domain.ChoosePositionAnchor(snapshot.Update, c.session.LastCommand())
	position := c.estimator.EstimatePositionNow(anchor.Position, anchor.AsOf)

	c.ScheduleReadinessReport("StartPlayback")

	slog.Debug(
		"starting group playback",
		"guild", c.guildID,
		"index", startIndex,
		"position_ms", position.Milliseconds(),
		"from_command", anchor.FromCommand,
	)

	err := c.player.StartPlayback(ctx, ports.PlaybackRequest{
		Items:         snapshot.Playlist.Items(),
		StartIndex:    startIndex,
		StartPosition: position,
		ServerID:      c.serverID,
	})
	if err != nil {
		// Nothing will start buffering, so the armed handshake has nothing to wait for.
		c.barrier.Cancel()
		c.reportLocalPlaybackFailure(err)
		return fmt.Errorf("%w: %w", ErrLocalPlaybackStart, err)
	}

	return nil
}
