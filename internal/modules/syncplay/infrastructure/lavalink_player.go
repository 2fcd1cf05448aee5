package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/application/ports"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/domain"
)

// voiceConnectionTimeout is the maximum time to wait for voice connection to be established.
const voiceConnectionTimeout = 10 * time.Second

var (
	// ErrNoLavalinkNode is returned when no Lavalink node is available.
	ErrNoLavalinkNode = errors.New("no available Lavalink node")

	// ErrTrackNotLoadable is returned when Lavalink cannot resolve an item's source.
	ErrTrackNotLoadable = errors.New("track could not be loaded")

	// ErrSlotNotInQueue is returned when switching to a slot the player does not hold.
	ErrSlotNotInQueue = errors.New("slot is not in the local queue")
)

// pendingVoiceConnection tracks the state of a pending voice connection.
type pendingVoiceConnection struct {
	mu             sync.Mutex
	hasVoiceState  bool
	hasVoiceServer bool
	ready          chan struct{}
}

// onEvent marks an event as received and signals ready if both events are present.
func (p *pendingVoiceConnection) onEvent(isVoiceState bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if isVoiceState {
		p.hasVoiceState = true
	} else {
		p.hasVoiceServer = true
	}

	if p.hasVoiceState && p.hasVoiceServer {
		select {
		case <-p.ready:
		default:
			close(p.ready)
		}
	}
}

// voiceEventBuffer holds VoiceStateUpdate and VoiceServerUpdate data until both
// have arrived, so Lavalink never sees a partial voice state.
type voiceEventBuffer struct {
	mu sync.Mutex

	hasVoiceState bool
	channelID     *snowflake.ID
	sessionID     string

	hasVoiceServer bool
	token          string
	endpoint       string
}

func (b *voiceEventBuffer) setVoiceState(channelID *snowflake.ID, sessionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hasVoiceState = true
	b.channelID = channelID
	b.sessionID = sessionID

	return b.hasVoiceState && b.hasVoiceServer
}

func (b *voiceEventBuffer) setVoiceServer(token, endpoint string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hasVoiceServer = true
	b.token = token
	b.endpoint = endpoint

	return b.hasVoiceState && b.hasVoiceServer
}

// drain returns the buffered data and resets the buffer.
func (b *voiceEventBuffer) drain() (channelID *snowflake.ID, sessionID, token, endpoint string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	channelID, sessionID, token, endpoint = b.channelID, b.sessionID, b.token, b.endpoint

	b.hasVoiceState, b.channelID, b.sessionID = false, nil, ""
	b.hasVoiceServer, b.token, b.endpoint = false, "", ""
	return
}

// LavalinkConfig contains Lavalink connection configuration.
type LavalinkConfig struct {
	Address  string
	Password string
	Secure   bool
}

// LavalinkAdapter owns the DisGoLink client and the bot's voice connections.
// It hands out one LavalinkPlayer per guild.
type LavalinkAdapter struct {
	link      disgolink.Client
	session   *discordgo.Session
	botID     snowflake.ID
	publisher ports.EventPublisher

	pendingMu sync.Mutex
	pending   map[snowflake.ID]*pendingVoiceConnection

	voiceBufferMu sync.Mutex
	voiceBuffers  map[snowflake.ID]*voiceEventBuffer

	playersMu sync.Mutex
	players   map[snowflake.ID]*LavalinkPlayer
}

// NewLavalinkAdapter creates a new LavalinkAdapter and connects to the node.
func NewLavalinkAdapter(
	session *discordgo.Session,
	config LavalinkConfig,
	publisher ports.EventPublisher,
) (*LavalinkAdapter, error) {
	botID, err := snowflake.Parse(session.State.User.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bot ID: %w", err)
	}

	adapter := &LavalinkAdapter{
		session:      session,
		botID:        botID,
		publisher:    publisher,
		pending:      make(map[snowflake.ID]*pendingVoiceConnection),
		voiceBuffers: make(map[snowflake.ID]*voiceEventBuffer),
		players:      make(map[snowflake.ID]*LavalinkPlayer),
	}

	adapter.link = disgolink.New(botID,
		disgolink.WithListenerFunc(adapter.onTrackStart),
		disgolink.WithListenerFunc(adapter.onTrackEnd),
		disgolink.WithListenerFunc(adapter.onTrackException),
		disgolink.WithListenerFunc(adapter.onTrackStuck),
	)

	node, err := adapter.link.AddNode(context.Background(), disgolink.NodeConfig{
		Name:     "main",
		Address:  config.Address,
		Password: config.Password,
		Secure:   config.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add Lavalink node: %w", err)
	}

	slog.Info("connected to Lavalink", "node", node.Config().Name, "address", config.Address)

	return adapter, nil
}

// Close disconnects from all Lavalink nodes.
func (c *LavalinkAdapter) Close() {
	c.link.Close()
}

// Player returns the guild's player, creating it on first use.
func (c *LavalinkAdapter) Player(guildID snowflake.ID) ports.PlayerAdapter {
	return c.guildPlayer(guildID)
}

func (c *LavalinkAdapter) guildPlayer(guildID snowflake.ID) *LavalinkPlayer {
	c.playersMu.Lock()
	defer c.playersMu.Unlock()

	p, ok := c.players[guildID]
	if !ok {
		p = &LavalinkPlayer{
			adapter:     c,
			guildID:     guildID,
			repeatMode:  domain.RepeatNone,
			shuffleMode: domain.ShuffleSorted,
		}
		c.players[guildID] = p
	}
	return p
}

func (c *LavalinkAdapter) existingGuildPlayer(guildID snowflake.ID) *LavalinkPlayer {
	c.playersMu.Lock()
	defer c.playersMu.Unlock()
	return c.players[guildID]
}

// JoinChannel connects to a voice channel.
// It waits for both VoiceStateUpdate and VoiceServerUpdate events before returning.
func (c *LavalinkAdapter) JoinChannel(ctx context.Context, guildID, channelID snowflake.ID) error {
	pending := &pendingVoiceConnection{
		ready: make(chan struct{}),
	}

	c.pendingMu.Lock()
	c.pending[guildID] = pending
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, guildID)
		c.pendingMu.Unlock()
	}()

	err := c.session.ChannelVoiceJoinManual(guildID.String(), channelID.String(), false, true)
	if err != nil {
		return fmt.Errorf("failed to join voice channel: %w", err)
	}

	select {
	case <-pending.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context cancelled while waiting for voice connection: %w", ctx.Err())
	case <-time.After(voiceConnectionTimeout):
		return fmt.Errorf("timeout waiting for voice connection")
	}
}

// LeaveChannel destroys the guild's Lavalink player and disconnects from voice.
func (c *LavalinkAdapter) LeaveChannel(ctx context.Context, guildID snowflake.ID) error {
	if player := c.link.ExistingPlayer(guildID); player != nil {
		if err := player.Destroy(ctx); err != nil {
			slog.Warn("failed to destroy player", "guild", guildID, "error", err)
		}
	}

	c.playersMu.Lock()
	delete(c.players, guildID)
	c.playersMu.Unlock()

	err := c.session.ChannelVoiceJoinManual(guildID.String(), "", false, false)
	if err != nil {
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}
	return nil
}

// loadTrack resolves an item's source into an encoded Lavalink track.
func (c *LavalinkAdapter) loadTrack(ctx context.Context, item domain.Item) (lavalink.Track, error) {
	node := c.link.BestNode()
	if node == nil {
		return lavalink.Track{}, ErrNoLavalinkNode
	}

	result, err := node.LoadTracks(ctx, item.Source)
	if err != nil {
		return lavalink.Track{}, fmt.Errorf("failed to load tracks: %w", err)
	}

	switch data := result.Data.(type) {
	case lavalink.Track:
		return data, nil
	case lavalink.Search:
		if len(data) > 0 {
			return data[0], nil
		}
	case lavalink.Playlist:
		if len(data.Tracks) > 0 {
			return data.Tracks[0], nil
		}
	case lavalink.Exception:
		return lavalink.Track{}, fmt.Errorf("%w: %s", ErrTrackNotLoadable, data.Message)
	}
	return lavalink.Track{}, fmt.Errorf("%w: %s", ErrTrackNotLoadable, item.Name)
}

// OnVoiceServerUpdate handles Discord voice server updates.
// This must be called from the Discord event handler.
func (c *LavalinkAdapter) OnVoiceServerUpdate(event *discordgo.VoiceServerUpdate) {
	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice server update", "error", err)
		return
	}

	buffer := c.voiceBuffer(guildID)
	if buffer.setVoiceServer(event.Token, event.Endpoint) {
		c.forwardVoiceEvents(guildID, buffer)
	}

	c.signalPending(guildID, false)
}

// OnVoiceStateUpdate handles Discord voice state updates for the bot itself.
// This must be called from the Discord event handler.
func (c *LavalinkAdapter) OnVoiceStateUpdate(event *discordgo.VoiceStateUpdate) {
	if event.UserID != c.botID.String() {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}

	var channelID *snowflake.ID
	if event.ChannelID != "" {
		id, err := snowflake.Parse(event.ChannelID)
		if err != nil {
			slog.Error("failed to parse channel ID in voice state update", "error", err)
			return
		}
		channelID = &id
	}

	// Disconnects need no VoiceServerUpdate.
	if channelID == nil {
		c.link.OnVoiceStateUpdate(context.Background(), guildID, nil, event.SessionID)
		c.voiceBufferMu.Lock()
		delete(c.voiceBuffers, guildID)
		c.voiceBufferMu.Unlock()
		return
	}

	buffer := c.voiceBuffer(guildID)
	if buffer.setVoiceState(channelID, event.SessionID) {
		c.forwardVoiceEvents(guildID, buffer)
	}

	c.signalPending(guildID, true)
}

func (c *LavalinkAdapter) voiceBuffer(guildID snowflake.ID) *voiceEventBuffer {
	c.voiceBufferMu.Lock()
	defer c.voiceBufferMu.Unlock()

	buffer, ok := c.voiceBuffers[guildID]
	if !ok {
		buffer = &voiceEventBuffer{}
		c.voiceBuffers[guildID] = buffer
	}
	return buffer
}

func (c *LavalinkAdapter) signalPending(guildID snowflake.ID, isVoiceState bool) {
	c.pendingMu.Lock()
	pending := c.pending[guildID]
	c.pendingMu.Unlock()

	if pending != nil {
		pending.onEvent(isVoiceState)
	}
}

func (c *LavalinkAdapter) forwardVoiceEvents(guildID snowflake.ID, buffer *voiceEventBuffer) {
	channelID, sessionID, token, endpoint := buffer.drain()

	slog.Debug("forwarding buffered voice events to Lavalink",
		"guild", guildID,
		"channel", channelID,
		"hasSessionID", sessionID != "",
	)

	c.link.OnVoiceStateUpdate(context.Background(), guildID, channelID, sessionID)
	c.link.OnVoiceServerUpdate(context.Background(), guildID, token, endpoint)
}

func (c *LavalinkAdapter) publish(event domain.Event) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.Publish(event); err != nil {
		slog.Warn("failed to publish player event", "guild", event.Guild(), "error", err)
	}
}

func (c *LavalinkAdapter) onTrackStart(player disgolink.Player, event lavalink.TrackStartEvent) {
	slog.Debug("track started", "guild", player.GuildID(), "track", event.Track.Info.Title)

	var slotID domain.SlotID
	if p := c.existingGuildPlayer(player.GuildID()); p != nil {
		slotID = p.CurrentSlot()
	}
	c.publish(domain.PlaybackStartedEvent{
		GuildID: player.GuildID(),
		SlotID:  slotID,
	})
}

func (c *LavalinkAdapter) onTrackEnd(player disgolink.Player, event lavalink.TrackEndEvent) {
	slog.Debug("track ended", "guild", player.GuildID(), "reason", event.Reason)

	if event.Reason != lavalink.TrackEndReasonLoadFailed {
		return
	}
	c.publish(domain.PlaybackErrorEvent{
		GuildID: player.GuildID(),
		Message: "track failed to load",
	})
}

func (c *LavalinkAdapter) onTrackException(
	player disgolink.Player,
	event lavalink.TrackExceptionEvent,
) {
	slog.Warn("track exception", "guild", player.GuildID(), "error", event.Exception.Message)

	c.publish(domain.PlaybackErrorEvent{
		GuildID: player.GuildID(),
		Message: event.Exception.Message,
	})
}

func (c *LavalinkAdapter) onTrackStuck(player disgolink.Player, event lavalink.TrackStuckEvent) {
	slog.Warn("track stuck", "guild", player.GuildID(), "threshold", event.Threshold)

	c.publish(domain.PlaybackErrorEvent{
		GuildID: player.GuildID(),
		Message: fmt.Sprintf("track stuck for %dms", event.Threshold),
	})
}

// LavalinkPlayer is one guild's local player. It keeps the slot-ordered queue
// handed to it by the core and plays one slot at a time through Lavalink.
type LavalinkPlayer struct {
	adapter *LavalinkAdapter
	guildID snowflake.ID

	mu          sync.Mutex
	items       []domain.PlaylistItem
	current     domain.SlotID
	serverID    string
	repeatMode  domain.RepeatMode
	shuffleMode domain.ShuffleMode
}

// CurrentSlot returns the slot the player last started.
func (p *LavalinkPlayer) CurrentSlot() domain.SlotID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// NotifyQueueChanged replaces the local view of the queue.
func (p *LavalinkPlayer) NotifyQueueChanged(_ context.Context, playlist domain.Playlist) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.items = playlist.Items()
	slog.Debug("local queue updated", "guild", p.guildID, "items", len(p.items))
}

// SwitchToSlot plays the item in the given slot from the beginning.
func (p *LavalinkPlayer) SwitchToSlot(ctx context.Context, slotID domain.SlotID) error {
	p.mu.Lock()
	var target *domain.PlaylistItem
	for i := range p.items {
		if p.items[i].SlotID == slotID {
			item := p.items[i]
			target = &item
			break
		}
	}
	p.mu.Unlock()

	if target == nil {
		return fmt.Errorf("%w: %s", ErrSlotNotInQueue, slotID)
	}
	return p.play(ctx, *target, 0)
}

// StartPlayback installs the queue and plays the start item at the start position.
func (p *LavalinkPlayer) StartPlayback(ctx context.Context, req ports.PlaybackRequest) error {
	if req.StartIndex < 0 || req.StartIndex >= len(req.Items) {
		return fmt.Errorf("start index %d out of range", req.StartIndex)
	}

	p.mu.Lock()
	p.items = append([]domain.PlaylistItem(nil), req.Items...)
	p.serverID = req.ServerID
	p.mu.Unlock()

	return p.play(ctx, req.Items[req.StartIndex], req.StartPosition)
}

func (p *LavalinkPlayer) play(ctx context.Context, item domain.PlaylistItem, position domain.Ticks) error {
	track, err := p.adapter.loadTrack(ctx, item.Item)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.current = item.SlotID
	p.mu.Unlock()

	player := p.adapter.link.Player(p.guildID)
	err = player.Update(ctx,
		lavalink.WithEncodedTrack(track.Encoded),
		lavalink.WithPosition(lavalink.Duration(position.Milliseconds())),
		lavalink.WithPaused(false),
	)
	if err != nil {
		return fmt.Errorf("failed to play track: %w", err)
	}

	slog.Info("playing slot", "guild", p.guildID, "slot", item.SlotID, "item", item.Item.Name)
	return nil
}

// PauseLocally pauses the current playback.
func (p *LavalinkPlayer) PauseLocally(ctx context.Context) error {
	if err := p.adapter.link.Player(p.guildID).Update(ctx, lavalink.WithPaused(true)); err != nil {
		return fmt.Errorf("failed to pause playback: %w", err)
	}
	return nil
}

// ResumeLocally resumes the current playback.
func (p *LavalinkPlayer) ResumeLocally(ctx context.Context) error {
	if err := p.adapter.link.Player(p.guildID).Update(ctx, lavalink.WithPaused(false)); err != nil {
		return fmt.Errorf("failed to resume playback: %w", err)
	}
	return nil
}

// SeekLocally moves the current track to the given position.
func (p *LavalinkPlayer) SeekLocally(ctx context.Context, position domain.Ticks) error {
	err := p.adapter.link.Player(p.guildID).Update(ctx,
		lavalink.WithPosition(lavalink.Duration(position.Milliseconds())),
	)
	if err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	return nil
}

// StopLocally stops the current playback.
func (p *LavalinkPlayer) StopLocally(ctx context.Context) error {
	p.mu.Lock()
	p.current = domain.NoSlot
	p.mu.Unlock()

	if err := p.adapter.link.Player(p.guildID).Update(ctx, lavalink.WithNullTrack()); err != nil {
		return fmt.Errorf("failed to stop playback: %w", err)
	}
	return nil
}

// SetRepeatMode records the repeat mode. Advancing is driven by the group.
func (p *LavalinkPlayer) SetRepeatMode(_ context.Context, mode domain.RepeatMode) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.repeatMode = mode
	return nil
}

// SetShuffleMode records the shuffle mode. Ordering is driven by the group.
func (p *LavalinkPlayer) SetShuffleMode(_ context.Context, mode domain.ShuffleMode) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shuffleMode = mode
	return nil
}

// Modes returns the repeat and shuffle modes last set by the group.
func (p *LavalinkPlayer) Modes() (domain.RepeatMode, domain.ShuffleMode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.repeatMode, p.shuffleMode
}

// CurrentPosition returns Lavalink's view of the playback position.
func (p *LavalinkPlayer) CurrentPosition(ctx context.Context) (domain.Ticks, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	player := p.adapter.link.ExistingPlayer(p.guildID)
	if player == nil || player.Track() == nil {
		return 0, fmt.Errorf("no track loaded for guild %s", p.guildID)
	}
	return domain.TicksFromDuration(time.Duration(player.Position()) * time.Millisecond), nil
}

// IsPlaying returns true if a track is loaded and not paused.
func (p *LavalinkPlayer) IsPlaying() bool {
	player := p.adapter.link.ExistingPlayer(p.guildID)
	return player != nil && player.Track() != nil && !player.Paused()
}

// Ensure the adapters implement port interfaces.
var (
	_ ports.PlayerProvider  = (*LavalinkAdapter)(nil)
	_ ports.VoiceConnection = (*LavalinkAdapter)(nil)
	_ ports.PlayerAdapter   = (*LavalinkPlayer)(nil)
)
