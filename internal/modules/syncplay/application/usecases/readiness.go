package usecases

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sglre6355/syncbot/internal/modules/syncplay/application/barrier"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/application/ports"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/domain"
)

// ScheduleReadinessReport arms a readiness handshake. Once local playback
// starts, the player is paused and a ready report is sent to the authority,
// which releases all followers together. A playback error or a timeout halts
// group playback for this client instead.
//
// Arming replaces any handshake that is still pending.
func (c *QueueCore) ScheduleReadinessReport(origin string) {
	wait := c.barrier.Arm()
	seq := c.armed.Add(1)

	slog.Debug("armed readiness handshake", "guild", c.guildID, "origin", origin, "handshake", seq)

	c.handshakes.Add(1)
	go func() {
		defer c.handshakes.Done()
		c.awaitReadiness(wait, origin)
	}()
}

func (c *QueueCore) awaitReadiness(wait *barrier.Wait, origin string) {
	outcome, err := wait.Await(c.ctx, c.readyTimeout)

	switch outcome {
	case barrier.Started:
		c.reportReady(c.ctx, origin)

	case barrier.Failed, barrier.TimedOut:
		if !c.session.IsFollowing() {
			slog.Debug(
				"readiness handshake aborted after leaving group",
				"guild", c.guildID,
				"origin", origin,
				"outcome", outcome,
			)
			return
		}

		slog.Error(
			"readiness handshake failed, halting group playback",
			"guild", c.guildID,
			"origin", origin,
			"outcome", outcome,
			"error", err,
		)
		c.session.Halt(c.ctx, "playback did not start in time")

		if c.notifier != nil {
			if nerr := c.notifier.NotifyFailure(
				c.guildID,
				"Playback could not be synchronized with the group. Group playback was stopped.",
			); nerr != nil {
				slog.Warn("failed to send failure notification", "guild", c.guildID, "error", nerr)
			}
		}

	default:
		slog.Debug(
			"readiness handshake ended without report",
			"guild", c.guildID,
			"origin", origin,
			"outcome", outcome,
		)
	}
}

// reportReady pauses local playback and sends the ready report.
func (c *QueueCore) reportReady(ctx context.Context, origin string) {
	if err := c.player.PauseLocally(ctx); err != nil {
		slog.Warn("failed to pause for readiness report", "guild", c.guildID, "error", err)
	}

	position, err := c.player.CurrentPosition(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		// Fall back to where the group should be right now.
		snapshot := c.Snapshot()
		anchor := domain.ChoosePositionAnchor(snapshot.Update, c.session.LastCommand())
		position = c.estimator.EstimatePositionNow(anchor.Position, anchor.AsOf)
		slog.Warn(
			"failed to read local position, using estimate",
			"guild", c.guildID,
			"position_ms", position.Milliseconds(),
			"error", err,
		)
	}

	report := ports.ReadyReport{
		GroupTime: c.clock.LocalToGroup(time.Now()),
		Position:  position,
		IsPlaying: c.player.IsPlaying(),
		SlotID:    c.CurrentSlotID(),
	}

	if err := c.sender.SendReady(ctx, report); err != nil {
		slog.Error("failed to send ready report", "guild", c.guildID, "origin", origin, "error", err)
		return
	}

	slog.Debug(
		"sent ready report",
		"guild", c.guildID,
		"origin", origin,
		"slot", report.SlotID,
		"position_ms", report.Position.Milliseconds(),
	)
}
