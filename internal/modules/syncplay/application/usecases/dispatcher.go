package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sglre6355/syncbot/internal/modules/syncplay/domain"
)

// dispatch plans and runs the local reaction to a committed update.
//
// Updates are applied concurrently, so a newer update may commit between the
// commit of update and its turn here. The reaction is then skipped and the
// newer update's reaction, planned against the last snapshot the player
// reacted to, catches up on whatever the skipped one changed.
func (c *QueueCore) dispatch(ctx context.Context, update *domain.PlayQueueUpdate) error {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()

	c.mu.Lock()
	latest := c.state.IsLatest(update)
	next := c.state.Snapshot()
	newPlaylistAt := c.newPlaylistAt
	c.mu.Unlock()

	if !latest {
		slog.Debug(
			"skipping reaction to an update that is no longer current",
			"guild", c.guildID,
			"reason", update.Reason,
		)
		return nil
	}

	if !update.Reason.IsKnown() {
		slog.Warn(
			"ignoring queue update with unrecognized reason",
			"guild", c.guildID,
			"reason", update.Reason,
		)
		return nil
	}

	prev := c.lastDispatched
	var reactedAt time.Time
	if prev.Update != nil {
		reactedAt = prev.Update.LastUpdate
	}
	missedNewPlaylist := newPlaylistAt.After(reactedAt)
	c.lastDispatched = next

	effects := domain.PlanCatchUp(prev, next, c.session.IsFollowing(), missedNewPlaylist)
	if len(effects) == 0 {
		slog.Debug(
			"no local reaction to queue update",
			"guild", c.guildID,
			"reason", update.Reason,
		)
		return nil
	}

	return c.run(ctx, effects)
}

// run executes effects in order.
func (c *QueueCore) run(ctx context.Context, effects []domain.Effect) error {
	for _, effect := range effects {
		switch e := effect.(type) {
		case domain.NotifyQueueChanged:
			c.player.NotifyQueueChanged(ctx, e.Playlist)

		case domain.ArmReadiness:
			c.ScheduleReadinessReport(e.Origin)

		case domain.SwitchToSlot:
			if err := c.player.SwitchToSlot(ctx, e.SlotID); err != nil {
				c.barrier.Cancel()
				c.reportLocalPlaybackFailure(err)
				return fmt.Errorf("%w: %w", ErrLocalPlaybackStart, err)
			}

		case domain.FollowGroup:
			if err := c.session.Follow(ctx); err != nil {
				return fmt.Errorf("failed to follow group playback: %w", err)
			}

		case domain.StartPlayback:
			if err := c.StartPlayback(ctx); err != nil {
				return err
			}

		case domain.SetRepeatMode:
			if err := c.player.SetRepeatMode(ctx, e.Mode); err != nil {
				slog.Warn("failed to set repeat mode", "guild", c.guildID, "mode", e.Mode, "error", err)
			}

		case domain.SetShuffleMode:
			if err := c.player.SetShuffleMode(ctx, e.Mode); err != nil {
				slog.Warn("failed to set shuffle mode", "guild", c.guildID, "mode", e.Mode, "error", err)
			}

		default:
			slog.Warn("unhandled effect", "guild", c.guildID, "effect", fmt.Sprintf("%T", e))
		}
	}
	return nil
}

func (c *QueueCore) reportLocalPlaybackFailure(err error) {
	slog.Error("local player rejected playback request", "guild", c.guildID, "error", err)
	if c.notifier == nil {
		return
	}
	if nerr := c.notifier.NotifyFailure(c.guildID, "Playback failed to start on this client."); nerr != nil {
		slog.Warn("failed to send failure notification", "guild", c.guildID, "error", nerr)
	}
}
