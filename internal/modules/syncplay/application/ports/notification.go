package ports

import (
	"github.com/disgoorg/snowflake/v2"
)

// Notifier surfaces failures to users.
type Notifier interface {
	// NotifyFailure sends a user-visible failure message for the guild.
	NotifyFailure(guildID snowflake.ID, message string) error
}
