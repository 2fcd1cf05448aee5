package discord

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/application/usecases"
)

// VoiceStateHandler reacts to the bot's own voice state changes.
type VoiceStateHandler interface {
	HandleBotVoiceStateChange(ctx context.Context, input usecases.BotVoiceStateChangeInput)
}

// EventHandlers handles Discord gateway events for the syncplay module.
type EventHandlers struct {
	botID snowflake.ID
	group VoiceStateHandler
}

// NewEventHandlers creates a new EventHandlers.
func NewEventHandlers(botID snowflake.ID, group VoiceStateHandler) *EventHandlers {
	return &EventHandlers{
		botID: botID,
		group: group,
	}
}

// HandleVoiceStateUpdate handles VoiceStateUpdate events for the bot.
func (h *EventHandlers) HandleVoiceStateUpdate(
	_ *discordgo.Session,
	event *discordgo.VoiceStateUpdate,
) {
	if event.UserID != h.botID.String() {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}

	var newChannelID *snowflake.ID
	if event.ChannelID != "" {
		id, err := snowflake.Parse(event.ChannelID)
		if err != nil {
			slog.Error("failed to parse channel ID in voice state update", "error", err)
			return
		}
		newChannelID = &id
	}

	h.group.HandleBotVoiceStateChange(context.Background(), usecases.BotVoiceStateChangeInput{
		GuildID:      guildID,
		NewChannelID: newChannelID,
	})
}
