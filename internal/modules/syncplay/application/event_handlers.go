package application

import (
	"context"
	"errors"
	"log/slog"
	"reflect"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/application/ports"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/application/usecases"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/domain"
)

// RuntimeLookup returns the live group session of a guild.
type RuntimeLookup interface {
	Runtime(guildID snowflake.ID) (*usecases.GuildRuntime, bool)
}

// SyncPlayEventHandler routes transport and player events to the guild's queue core.
type SyncPlayEventHandler struct {
	runtimes   RuntimeLookup
	subscriber ports.EventSubscriber
	notifier   ports.Notifier
}

// NewSyncPlayEventHandler creates a new SyncPlayEventHandler.
func NewSyncPlayEventHandler(
	runtimes RuntimeLookup,
	subscriber ports.EventSubscriber,
	notifier ports.Notifier,
) *SyncPlayEventHandler {
	return &SyncPlayEventHandler{
		runtimes:   runtimes,
		subscriber: subscriber,
		notifier:   notifier,
	}
}

// Start registers event handlers with the subscriber.
func (h *SyncPlayEventHandler) Start() error {
	subscriptions := []struct {
		eventType reflect.Type
		handler   func(context.Context, domain.Event)
	}{
		{
			reflect.TypeFor[domain.QueueUpdateReceivedEvent](),
			func(ctx context.Context, e domain.Event) {
				h.handleQueueUpdate(ctx, e.(domain.QueueUpdateReceivedEvent))
			},
		},
		{
			reflect.TypeFor[domain.PlaybackCommandReceivedEvent](),
			func(ctx context.Context, e domain.Event) {
				h.handlePlaybackCommand(ctx, e.(domain.PlaybackCommandReceivedEvent))
			},
		},
		{
			reflect.TypeFor[domain.PlaybackStartedEvent](),
			func(ctx context.Context, e domain.Event) {
				h.handlePlaybackStarted(ctx, e.(domain.PlaybackStartedEvent))
			},
		},
		{
			reflect.TypeFor[domain.PlaybackErrorEvent](),
			func(ctx context.Context, e domain.Event) {
				h.handlePlaybackError(ctx, e.(domain.PlaybackErrorEvent))
			},
		},
		{
			reflect.TypeFor[domain.GroupPlaybackHaltedEvent](),
			func(ctx context.Context, e domain.Event) {
				h.handleGroupPlaybackHalted(ctx, e.(domain.GroupPlaybackHaltedEvent))
			},
		},
	}

	for _, sub := range subscriptions {
		if err := h.subscriber.Subscribe(sub.eventType, sub.handler); err != nil {
			return err
		}
	}

	slog.Debug("syncplay event handlers properly registered")

	return nil
}

// handleQueueUpdate applies the update on its own goroutine: a slow catalog
// fetch must not hold back newer updates, which supersede it instead.
func (h *SyncPlayEventHandler) handleQueueUpdate(
	ctx context.Context,
	event domain.QueueUpdateReceivedEvent,
) {
	rt, ok := h.runtimes.Runtime(event.GuildID)
	if !ok {
		slog.Warn("queue update for guild without group session", "guild", event.GuildID)
		return
	}

	go func() {
		err := rt.Core.ApplyQueueUpdate(ctx, event.Update)
		if err == nil {
			return
		}

		slog.Error(
			"failed to apply queue update",
			"guild", event.GuildID,
			"reason", event.Update.Reason,
			"error", err,
		)

		if errors.Is(err, usecases.ErrCatalogResolution) && h.notifier != nil {
			if nerr := h.notifier.NotifyFailure(
				event.GuildID,
				"Could not load the group's queue from the media server.",
			); nerr != nil {
				slog.Warn("failed to send failure notification", "guild", event.GuildID, "error", nerr)
			}
		}
	}()
}

func (h *SyncPlayEventHandler) handlePlaybackCommand(
	ctx context.Context,
	event domain.PlaybackCommandReceivedEvent,
) {
	rt, ok := h.runtimes.Runtime(event.GuildID)
	if !ok {
		return
	}

	if err := rt.Session.ApplyCommand(ctx, event.Command); err != nil {
		slog.Warn(
			"failed to apply playback command",
			"guild", event.GuildID,
			"command", event.Command.Kind,
			"error", err,
		)
	}
}

func (h *SyncPlayEventHandler) handlePlaybackStarted(
	_ context.Context,
	event domain.PlaybackStartedEvent,
) {
	if rt, ok := h.runtimes.Runtime(event.GuildID); ok {
		rt.Core.PlaybackStarted()
	}
}

func (h *SyncPlayEventHandler) handlePlaybackError(
	_ context.Context,
	event domain.PlaybackErrorEvent,
) {
	if rt, ok := h.runtimes.Runtime(event.GuildID); ok {
		rt.Core.PlaybackFailed(errors.New(event.Message))
	}
}

func (h *SyncPlayEventHandler) handleGroupPlaybackHalted(
	_ context.Context,
	event domain.GroupPlaybackHaltedEvent,
) {
	slog.Info("stopped following group playback", "guild", event.GuildID, "reason", event.Reason)
}
