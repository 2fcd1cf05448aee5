package usecases

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/application/barrier"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/application/ports"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/domain"
)

// DefaultReadyTimeout bounds the wait for local playback to start.
const DefaultReadyTimeout = 15 * time.Second

// QueueCoreDependencies holds the collaborators of a QueueCore.
type QueueCoreDependencies struct {
	Catalog   ports.ItemCatalog
	Player    ports.PlayerAdapter
	Session   ports.SessionController
	Clock     ports.ClockSync
	Estimator ports.PositionEstimator
	Sender    ports.ReadySender
	Notifier  ports.Notifier
}

// QueueCoreConfig configures a QueueCore.
type QueueCoreConfig struct {
	GuildID      snowflake.ID
	ServerID     string
	ReadyTimeout time.Duration
}

// QueueCore reconciles the authority's canonical queue with the local player
// and runs the readiness handshake for one group session.
type QueueCore struct {
	guildID      snowflake.ID
	serverID     string
	readyTimeout time.Duration

	catalog   ports.ItemCatalog
	player    ports.PlayerAdapter
	session   ports.SessionController
	clock     ports.ClockSync
	estimator ports.PositionEstimator
	sender    ports.ReadySender
	notifier  ports.Notifier

	barrier *barrier.Barrier
	armed   atomic.Uint64 // handshakes armed so far

	mu    sync.Mutex
	state domain.QueueState
	// LastUpdate of the newest committed NewPlaylist.
	newPlaylistAt time.Time

	// dispatchMu serializes reactions so that effects of two updates never interleave.
	dispatchMu sync.Mutex
	// lastDispatched is the snapshot the player last reacted to. Guarded by dispatchMu.
	lastDispatched domain.Snapshot

	// Lifetime of background handshakes.
	ctx        context.Context
	cancel     context.CancelFunc
	handshakes sync.WaitGroup
}

// NewQueueCore creates a QueueCore with an empty state.
func NewQueueCore(cfg QueueCoreConfig, deps QueueCoreDependencies) *QueueCore {
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = DefaultReadyTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &QueueCore{
		guildID:      cfg.GuildID,
		serverID:     cfg.ServerID,
		readyTimeout: cfg.ReadyTimeout,
		catalog:      deps.Catalog,
		player:       deps.Player,
		session:      deps.Session,
		clock:        deps.Clock,
		estimator:    deps.Estimator,
		sender:       deps.Sender,
		notifier:     deps.Notifier,
		barrier:      barrier.New(),
		state:        domain.NewQueueState(),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Snapshot returns the committed queue.
func (c *QueueCore) Snapshot() domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Snapshot()
}

// CurrentSlotID returns the slot that is playing, or domain.NoSlot.
func (c *QueueCore) CurrentSlotID() domain.SlotID {
	return c.Snapshot().CurrentSlotID()
}

// PlaybackStarted forwards the local "playback started" signal to the armed handshake.
func (c *QueueCore) PlaybackStarted() {
	if !c.barrier.Signal() {
		slog.Debug("playback started without an armed handshake", "guild", c.guildID)
	}
}

// PlaybackFailed forwards a local playback error to the armed handshake.
func (c *QueueCore) PlaybackFailed(err error) {
	if !c.barrier.Fail(err) {
		slog.Debug("playback error without an armed handshake", "guild", c.guildID, "error", err)
	}
}

// ApplyQueueUpdate is the entry point for every queue update delivered by the
// transport: it reconciles the update and reacts to it locally. Stale and
// superseded updates are dropped silently; a catalog failure is returned.
func (c *QueueCore) ApplyQueueUpdate(ctx context.Context, update domain.PlayQueueUpdate) error {
	_, err := c.Reconcile(ctx, &update)
	switch {
	case errors.Is(err, ErrStaleUpdate):
		return nil
	case errors.Is(err, ErrSuperseded):
		slog.Debug(
			"dropped queue update superseded while resolving items",
			"guild", c.guildID,
			"last_update", update.LastUpdate,
		)
		return nil
	case err != nil:
		return err
	}

	return c.dispatch(ctx, &update)
}

// Close cancels a pending handshake and waits for background work to finish.
func (c *QueueCore) Close() {
	c.cancel()
	c.barrier.Cancel()
	c.handshakes.Wait()
}
