package usecases

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/application/ports"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/domain"
)

// Compile-time check that GroupSession implements ports.SessionController.
var _ ports.SessionController = (*GroupSession)(nil)

// GroupSession tracks whether a guild follows its group and applies the
// playback commands the authority sends.
type GroupSession struct {
	guildID   snowflake.ID
	groupID   string
	transport ports.GroupTransport
	player    ports.PlayerAdapter
	clock     ports.ClockSync
	estimator ports.PositionEstimator
	publisher ports.EventPublisher

	// followMu serializes joins so concurrent Follow calls share one join.
	followMu sync.Mutex

	mu          sync.Mutex
	following   bool
	lastCommand *domain.PlaybackCommand
	unpause     *time.Timer
}

// NewGroupSession creates a GroupSession that is not following yet.
func NewGroupSession(
	guildID snowflake.ID,
	groupID string,
	transport ports.GroupTransport,
	player ports.PlayerAdapter,
	clock ports.ClockSync,
	estimator ports.PositionEstimator,
	publisher ports.EventPublisher,
) *GroupSession {
	return &GroupSession{
		guildID:   guildID,
		groupID:   groupID,
		transport: transport,
		player:    player,
		clock:     clock,
		estimator: estimator,
		publisher: publisher,
	}
}

// GroupID returns the id of the group this session belongs to.
func (s *GroupSession) GroupID() string {
	return s.groupID
}

// IsFollowing returns true while this guild follows group playback.
func (s *GroupSession) IsFollowing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.following
}

// Follow joins the group on the authority.
func (s *GroupSession) Follow(ctx context.Context) error {
	s.followMu.Lock()
	defer s.followMu.Unlock()

	if s.IsFollowing() {
		return nil
	}

	if err := s.transport.Join(ctx, s.groupID); err != nil {
		return err
	}

	s.mu.Lock()
	s.following = true
	s.mu.Unlock()

	slog.Info("following group playback", "guild", s.guildID, "group", s.groupID)
	return nil
}

// Halt stops following group playback and tells the authority.
func (s *GroupSession) Halt(ctx context.Context, reason string) {
	s.mu.Lock()
	if !s.following {
		s.mu.Unlock()
		return
	}
	s.following = false
	s.stopUnpauseLocked()
	s.mu.Unlock()

	slog.Info("halted group playback", "guild", s.guildID, "group", s.groupID, "reason", reason)

	if err := s.player.StopLocally(ctx); err != nil {
		slog.Warn("failed to stop local playback", "guild", s.guildID, "error", err)
	}
	if err := s.transport.Leave(ctx); err != nil {
		slog.Warn("failed to leave group", "guild", s.guildID, "error", err)
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(domain.GroupPlaybackHaltedEvent{
			GuildID: s.guildID,
			Reason:  reason,
		}); err != nil {
			slog.Warn("failed to publish halt event", "guild", s.guildID, "error", err)
		}
	}
}

// LastCommand returns the most recent playback command, or nil.
func (s *GroupSession) LastCommand() *domain.PlaybackCommand {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastCommand == nil {
		return nil
	}
	cmd := *s.lastCommand
	return &cmd
}

// ApplyCommand records cmd and applies it to the local player.
// Commands are recorded even when not following, so a later playback start
// can extrapolate from the freshest position.
func (s *GroupSession) ApplyCommand(ctx context.Context, cmd domain.PlaybackCommand) error {
	s.mu.Lock()
	s.lastCommand = &cmd
	following := s.following
	s.stopUnpauseLocked()
	s.mu.Unlock()

	if !following {
		return nil
	}

	switch cmd.Kind {
	case domain.CommandUnpause:
		return s.scheduleUnpause(ctx, cmd)

	case domain.CommandPause:
		if err := s.player.PauseLocally(ctx); err != nil {
			return err
		}
		return s.player.SeekLocally(ctx, cmd.Position)

	case domain.CommandSeek:
		if err := s.player.PauseLocally(ctx); err != nil {
			return err
		}
		return s.player.SeekLocally(ctx, cmd.Position)

	case domain.CommandStop:
		return s.player.StopLocally(ctx)

	default:
		slog.Warn("ignoring unrecognized playback command", "guild", s.guildID, "command", cmd.Kind)
		return nil
	}
}

// scheduleUnpause resumes playback at the group time the command names.
// When that time already passed, playback jumps to where the group is now.
func (s *GroupSession) scheduleUnpause(ctx context.Context, cmd domain.PlaybackCommand) error {
	delay := time.Until(s.clock.GroupToLocal(cmd.When))
	if delay <= 0 {
		position := s.estimator.EstimatePositionNow(cmd.Position, cmd.When)
		if err := s.player.SeekLocally(ctx, position); err != nil {
			return err
		}
		return s.player.ResumeLocally(ctx)
	}

	if err := s.player.SeekLocally(ctx, cmd.Position); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.unpause = time.AfterFunc(delay, func() {
		if err := s.player.ResumeLocally(context.Background()); err != nil {
			slog.Warn("failed to resume scheduled playback", "guild", s.guildID, "error", err)
		}
	})
	return nil
}

func (s *GroupSession) stopUnpauseLocked() {
	if s.unpause != nil {
		s.unpause.Stop()
		s.unpause = nil
	}
}
