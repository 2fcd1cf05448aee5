package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/application/ports"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/domain"
)

// JoinInput contains the input for the Join use case.
type JoinInput struct {
	GuildID               snowflake.ID
	UserID                snowflake.ID
	GroupID               string
	VoiceChannelID        snowflake.ID // Optional: defaults to the user's voice channel
	NotificationChannelID snowflake.ID
}

// JoinOutput contains the result of the Join use case.
type JoinOutput struct {
	GroupID        string
	VoiceChannelID snowflake.ID
	Rejoined       bool
}

// LeaveInput contains the input for the Leave use case.
type LeaveInput struct {
	GuildID snowflake.ID
}

// StatusInput contains the input for the Status use case.
type StatusInput struct {
	GuildID snowflake.ID
}

// StatusOutput contains the result of the Status use case.
type StatusOutput struct {
	GroupID   string
	Following bool
	Current   *PlaylistItem
	Playlist  []PlaylistItem
	Index     int

	RepeatMode  domain.RepeatMode
	ShuffleMode domain.ShuffleMode
}

// BotVoiceStateChangeInput contains the input for HandleBotVoiceStateChange.
type BotVoiceStateChangeInput struct {
	GuildID      snowflake.ID
	NewChannelID *snowflake.ID // nil when the bot was disconnected
}

// GuildRuntime bundles the live objects of one guild's group session.
type GuildRuntime struct {
	Session   *GroupSession
	Core      *QueueCore
	Transport ports.GroupTransport
}

// GroupServiceDependencies holds the collaborators of a GroupService.
type GroupServiceDependencies struct {
	Repo       domain.SessionRepository
	Voice      ports.VoiceConnection
	VoiceState ports.VoiceStateProvider
	Dialer     ports.TransportDialer
	Players    ports.PlayerProvider
	Catalog    ports.ItemCatalog
	Clock      ports.ClockSync
	Estimator  ports.PositionEstimator
	Publisher  ports.EventPublisher
	Notifier   ports.Notifier
}

// GroupService joins and leaves group sessions on behalf of guilds.
type GroupService struct {
	deps         GroupServiceDependencies
	serverID     string
	readyTimeout time.Duration

	mu       sync.Mutex
	runtimes map[snowflake.ID]*GuildRuntime
}

// NewGroupService creates a new GroupService.
func NewGroupService(
	deps GroupServiceDependencies,
	serverID string,
	readyTimeout time.Duration,
) *GroupService {
	return &GroupService{
		deps:         deps,
		serverID:     serverID,
		readyTimeout: readyTimeout,
		runtimes:     make(map[snowflake.ID]*GuildRuntime),
	}
}

// Runtime returns the live session of a guild.
func (g *GroupService) Runtime(guildID snowflake.ID) (*GuildRuntime, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rt, ok := g.runtimes[guildID]
	return rt, ok
}

// Join connects the guild to a voice channel and follows the given group.
// A guild whose session was halted follows its group again.
func (g *GroupService) Join(ctx context.Context, input JoinInput) (*JoinOutput, error) {
	if _, err := uuid.Parse(input.GroupID); err != nil {
		return nil, ErrInvalidGroup
	}

	if rt, ok := g.Runtime(input.GuildID); ok {
		if rt.Session.GroupID() != input.GroupID {
			return nil, ErrAlreadyConnected
		}
		if err := rt.Session.Follow(ctx); err != nil {
			return nil, err
		}
		record, err := g.deps.Repo.Get(ctx, input.GuildID)
		if err != nil {
			return nil, err
		}
		return &JoinOutput{
			GroupID:        record.GroupID,
			VoiceChannelID: record.VoiceChannelID,
			Rejoined:       true,
		}, nil
	}

	voiceChannelID := input.VoiceChannelID
	if voiceChannelID == 0 {
		channelID, err := g.deps.VoiceState.GetUserVoiceChannel(input.GuildID, input.UserID)
		if err != nil {
			return nil, err
		}
		if channelID == 0 {
			return nil, ErrUserNotInVoice
		}
		voiceChannelID = channelID
	}

	if err := g.deps.Voice.JoinChannel(ctx, input.GuildID, voiceChannelID); err != nil {
		return nil, err
	}

	transport, err := g.deps.Dialer.Dial(ctx, input.GuildID)
	if err != nil {
		g.leaveVoice(ctx, input.GuildID)
		return nil, fmt.Errorf("failed to connect to group server: %w", err)
	}

	player := g.deps.Players.Player(input.GuildID)
	session := NewGroupSession(
		input.GuildID,
		input.GroupID,
		transport,
		player,
		g.deps.Clock,
		g.deps.Estimator,
		g.deps.Publisher,
	)
	core := NewQueueCore(
		QueueCoreConfig{
			GuildID:      input.GuildID,
			ServerID:     g.serverID,
			ReadyTimeout: g.readyTimeout,
		},
		QueueCoreDependencies{
			Catalog:   g.deps.Catalog,
			Player:    player,
			Session:   session,
			Clock:     g.deps.Clock,
			Estimator: g.deps.Estimator,
			Sender:    transport,
			Notifier:  g.deps.Notifier,
		},
	)
	rt := &GuildRuntime{
		Session:   session,
		Core:      core,
		Transport: transport,
	}

	record := domain.SessionRecord{
		GuildID:               input.GuildID,
		GroupID:               input.GroupID,
		VoiceChannelID:        voiceChannelID,
		NotificationChannelID: input.NotificationChannelID,
	}
	if err := g.deps.Repo.Save(ctx, record); err != nil {
		g.teardown(ctx, input.GuildID, rt)
		return nil, err
	}

	// Register before following: the authority answers a join with a
	// NewPlaylist update that must find this runtime.
	g.mu.Lock()
	g.runtimes[input.GuildID] = rt
	g.mu.Unlock()

	if err := session.Follow(ctx); err != nil {
		g.remove(input.GuildID)
		g.teardown(ctx, input.GuildID, rt)
		return nil, fmt.Errorf("failed to join group: %w", err)
	}

	return &JoinOutput{
		GroupID:        input.GroupID,
		VoiceChannelID: voiceChannelID,
	}, nil
}

// Leave stops following the group and disconnects the guild.
func (g *GroupService) Leave(ctx context.Context, input LeaveInput) error {
	rt, ok := g.remove(input.GuildID)
	if !ok {
		return ErrNotConnected
	}

	rt.Session.Halt(ctx, "left by user")
	g.teardown(ctx, input.GuildID, rt)
	return nil
}

// Status returns the group session state of a guild.
func (g *GroupService) Status(_ context.Context, input StatusInput) (*StatusOutput, error) {
	rt, ok := g.Runtime(input.GuildID)
	if !ok {
		return nil, ErrNotConnected
	}

	snapshot := rt.Core.Snapshot()
	repeat, shuffle := g.deps.Players.Player(input.GuildID).Modes()
	return &StatusOutput{
		GroupID:     rt.Session.GroupID(),
		Following:   rt.Session.IsFollowing(),
		Current:     snapshot.CurrentItem(),
		Playlist:    snapshot.Playlist.Items(),
		Index:       snapshot.CurrentIndex(),
		RepeatMode:  repeat,
		ShuffleMode: shuffle,
	}, nil
}

// HandleBotVoiceStateChange keeps sessions in line with the bot's voice state.
// A bot removed from voice leaves its group; a bot moved to another channel
// keeps following and records the new channel.
func (g *GroupService) HandleBotVoiceStateChange(
	ctx context.Context,
	input BotVoiceStateChangeInput,
) {
	if _, ok := g.Runtime(input.GuildID); !ok {
		return
	}

	if input.NewChannelID == nil {
		slog.Info("bot disconnected from voice, leaving group", "guild", input.GuildID)
		if err := g.Leave(ctx, LeaveInput{GuildID: input.GuildID}); err != nil &&
			!errors.Is(err, ErrNotConnected) {
			slog.Warn("failed to leave group after voice disconnect", "guild", input.GuildID, "error", err)
		}
		return
	}

	record, err := g.deps.Repo.Get(ctx, input.GuildID)
	if err != nil || record.VoiceChannelID == *input.NewChannelID {
		return
	}
	record.VoiceChannelID = *input.NewChannelID
	if err := g.deps.Repo.Save(ctx, record); err != nil {
		slog.Warn("failed to record voice channel move", "guild", input.GuildID, "error", err)
	}
}

// Shutdown leaves every group.
func (g *GroupService) Shutdown(ctx context.Context) {
	g.mu.Lock()
	guildIDs := make([]snowflake.ID, 0, len(g.runtimes))
	for guildID := range g.runtimes {
		guildIDs = append(guildIDs, guildID)
	}
	g.mu.Unlock()

	for _, guildID := range guildIDs {
		if err := g.Leave(ctx, LeaveInput{GuildID: guildID}); err != nil {
			slog.Warn("failed to leave group on shutdown", "guild", guildID, "error", err)
		}
	}
}

func (g *GroupService) remove(guildID snowflake.ID) (*GuildRuntime, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rt, ok := g.runtimes[guildID]
	if ok {
		delete(g.runtimes, guildID)
	}
	return rt, ok
}

func (g *GroupService) teardown(ctx context.Context, guildID snowflake.ID, rt *GuildRuntime) {
	rt.Core.Close()
	if err := rt.Transport.Close(); err != nil {
		slog.Warn("failed to close group transport", "guild", guildID, "error", err)
	}
	if err := g.deps.Repo.Delete(ctx, guildID); err != nil {
		slog.Warn("failed to delete session record", "guild", guildID, "error", err)
	}
	g.leaveVoice(ctx, guildID)
}

func (g *GroupService) leaveVoice(ctx context.Context, guildID snowflake.ID) {
	if err := g.deps.Voice.LeaveChannel(ctx, guildID); err != nil {
		slog.Warn("failed to leave voice channel", "guild", guildID, "error", err)
	}
}
