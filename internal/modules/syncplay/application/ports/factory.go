package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// TransportDialer opens a connection to the authority for one guild.
type TransportDialer interface {
	Dial(ctx context.Context, guildID snowflake.ID) (GroupTransport, error)
}

// PlayerProvider returns the local player bound to a guild.
type PlayerProvider interface {
	Player(guildID snowflake.ID) PlayerAdapter
}
