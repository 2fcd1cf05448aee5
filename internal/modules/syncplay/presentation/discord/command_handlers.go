package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/syncbot/internal/bot"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/application/usecases"
)

// Embed colors.
const (
	colorSuccess = 0x08c404
	colorError   = 0xE74C3C
	colorInfo    = 0x00A4DC
)

// maxStatusLines caps the queue listing in /syncplay status.
const maxStatusLines = 10

// GroupUseCases is the subset of the group service the commands need.
type GroupUseCases interface {
	Join(ctx context.Context, input usecases.JoinInput) (*usecases.JoinOutput, error)
	Leave(ctx context.Context, input usecases.LeaveInput) error
	Status(ctx context.Context, input usecases.StatusInput) (*usecases.StatusOutput, error)
}

// CommandHandlers holds the /syncplay handlers.
type CommandHandlers struct {
	group GroupUseCases
}

// NewCommandHandlers creates new CommandHandlers.
func NewCommandHandlers(group GroupUseCases) *CommandHandlers {
	return &CommandHandlers{
		group: group,
	}
}

// HandleSyncPlay routes /syncplay to its subcommand.
func (h *CommandHandlers) HandleSyncPlay(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return respondError(r, "Missing subcommand")
	}

	sub := options[0]
	switch sub.Name {
	case "join":
		return h.handleJoin(s, i, r, sub.Options)
	case "leave":
		return h.handleLeave(i, r)
	case "status":
		return h.handleStatus(i, r)
	default:
		return respondError(r, fmt.Sprintf("Unknown subcommand %q", sub.Name))
	}
}

func (h *CommandHandlers) handleJoin(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
	options []*discordgo.ApplicationCommandInteractionDataOption,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	if i.Member == nil || i.Member.User == nil {
		return respondError(r, "Invalid user")
	}
	userID, err := snowflake.Parse(i.Member.User.ID)
	if err != nil {
		return respondError(r, "Invalid user")
	}

	notificationChannelID, err := snowflake.Parse(i.ChannelID)
	if err != nil {
		return respondError(r, "Invalid notification channel")
	}

	var groupID string
	var voiceChannelID snowflake.ID
	for _, opt := range options {
		switch opt.Name {
		case "group":
			groupID = strings.TrimSpace(opt.StringValue())
		case "channel":
			voiceChannelID, err = snowflake.Parse(opt.ChannelValue(s).ID)
			if err != nil {
				return respondError(r, "Invalid voice channel")
			}
		}
	}

	// Joining voice and the group can outlast the interaction deadline.
	if err := r.Defer(); err != nil {
		return err
	}

	output, err := h.group.Join(context.Background(), usecases.JoinInput{
		GuildID:               guildID,
		UserID:                userID,
		GroupID:               groupID,
		VoiceChannelID:        voiceChannelID,
		NotificationChannelID: notificationChannelID,
	})
	if err != nil {
		return editError(r, joinErrorMessage(err))
	}

	description := fmt.Sprintf("Following group `%s` in <#%d>.", output.GroupID, output.VoiceChannelID)
	if output.Rejoined {
		description = fmt.Sprintf("Following group `%s` again.", output.GroupID)
	}
	return editEmbed(r, &discordgo.MessageEmbed{
		Description: description,
		Color:       colorSuccess,
	})
}

func (h *CommandHandlers) handleLeave(i *discordgo.InteractionCreate, r bot.Responder) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	if err := h.group.Leave(context.Background(), usecases.LeaveInput{GuildID: guildID}); err != nil {
		if errors.Is(err, usecases.ErrNotConnected) {
			return respondError(r, "Not following any group.")
		}
		return respondError(r, err.Error())
	}

	return respondEmbed(r, &discordgo.MessageEmbed{
		Description: "Left the group.",
		Color:       colorSuccess,
	})
}

func (h *CommandHandlers) handleStatus(i *discordgo.InteractionCreate, r bot.Responder) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	output, err := h.group.Status(context.Background(), usecases.StatusInput{GuildID: guildID})
	if err != nil {
		if errors.Is(err, usecases.ErrNotConnected) {
			return respondError(r, "Not following any group.")
		}
		return respondError(r, err.Error())
	}

	return respondEmbed(r, statusEmbed(output))
}

func statusEmbed(output *usecases.StatusOutput) *discordgo.MessageEmbed {
	state := "following"
	if !output.Following {
		state = "halted"
	}

	var sb strings.Builder
	if len(output.Playlist) == 0 {
		sb.WriteString("The group queue is empty.")
	}
	for idx, entry := range output.Playlist {
		if idx == maxStatusLines {
			fmt.Fprintf(&sb, "... and %d more", len(output.Playlist)-maxStatusLines)
			break
		}
		marker := "  "
		if idx == output.Index {
			marker = "▶ "
		}
		fmt.Fprintf(&sb, "%s%d. %s", marker, idx+1, entry.Item.Name)
		if entry.Item.Artist != "" {
			fmt.Fprintf(&sb, " - %s", entry.Item.Artist)
		}
		fmt.Fprintf(&sb, " `%s`\n", entry.Item.FormattedDuration())
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Group %s (%s)", output.GroupID, state),
		Description: sb.String(),
		Color:       colorInfo,
	}
	if output.RepeatMode != "" || output.ShuffleMode != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Repeat: %s | Shuffle: %s", output.RepeatMode, output.ShuffleMode),
		}
	}
	if output.Current != nil {
		embed.Fields = []*discordgo.MessageEmbedField{
			{
				Name:  "Now Playing",
				Value: output.Current.Item.Name,
			},
		}
	}
	return embed
}

func joinErrorMessage(err error) string {
	switch {
	case errors.Is(err, usecases.ErrInvalidGroup):
		return "That is not a valid group id."
	case errors.Is(err, usecases.ErrUserNotInVoice):
		return "Join a voice channel first, or pick one with the channel option."
	case errors.Is(err, usecases.ErrAlreadyConnected):
		return "Already following another group. Use /syncplay leave first."
	default:
		return err.Error()
	}
}

// Response helpers.

func respondEmbed(r bot.Responder, embed *discordgo.MessageEmbed) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

func respondError(r bot.Responder, message string) error {
	return respondEmbed(r, errorEmbed(message))
}

func editEmbed(r bot.Responder, embed *discordgo.MessageEmbed) error {
	embeds := []*discordgo.MessageEmbed{embed}
	return r.Edit(&discordgo.WebhookEdit{Embeds: &embeds})
}

func editError(r bot.Responder, message string) error {
	return editEmbed(r, errorEmbed(message))
}

func errorEmbed(message string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Error",
		Description: message,
		Color:       colorError,
	}
}
