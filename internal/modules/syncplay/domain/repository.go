package domain

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// SessionRecord describes a guild's group-playback session.
type SessionRecord struct {
	GuildID               snowflake.ID
	GroupID               string
	VoiceChannelID        snowflake.ID
	NotificationChannelID snowflake.ID
}

// SessionRepository stores the group-playback sessions of all guilds.
type SessionRepository interface {
	// Get returns the session for the given guild, or error if not exists.
	Get(ctx context.Context, guildID snowflake.ID) (SessionRecord, error)

	// Save stores the session.
	Save(ctx context.Context, record SessionRecord) error

	// Delete removes the session for the given guild.
	Delete(ctx context.Context, guildID snowflake.ID) error
}
