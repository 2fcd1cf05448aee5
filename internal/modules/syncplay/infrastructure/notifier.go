package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/application/ports"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/domain"
)

// Embed colors.
const (
	colorRed = 0xE74C3C
)

// notifyTimeout bounds the session lookup behind a notification.
const notifyTimeout = 5 * time.Second

// MessageSender sends embeds to Discord channels.
type MessageSender interface {
	ChannelMessageSendEmbed(
		channelID string,
		embed *discordgo.MessageEmbed,
		options ...discordgo.RequestOption,
	) (*discordgo.Message, error)
}

// Notifier sends failure notices to the channel a guild's session was started from.
type Notifier struct {
	sender MessageSender
	repo   domain.SessionRepository
}

// NewNotifier creates a new Notifier. The discordgo session satisfies MessageSender.
func NewNotifier(sender MessageSender, repo domain.SessionRepository) *Notifier {
	return &Notifier{
		sender: sender,
		repo:   repo,
	}
}

// NotifyFailure sends a red embed with the message to the guild's notification channel.
func (n *Notifier) NotifyFailure(guildID snowflake.ID, message string) error {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	record, err := n.repo.Get(ctx, guildID)
	if err != nil {
		return fmt.Errorf("failed to look up notification channel: %w", err)
	}
	if record.NotificationChannelID == 0 {
		return nil
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Group playback",
		Description: message,
		Color:       colorRed,
	}

	_, err = n.sender.ChannelMessageSendEmbed(record.NotificationChannelID.String(), embed)
	return err
}

// Ensure Notifier implements ports.Notifier.
var _ ports.Notifier = (*Notifier)(nil)
