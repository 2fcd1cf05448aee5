package domain

import "github.com/disgoorg/snowflake/v2"

// Event is implemented by every event published on the module's event bus.
type Event interface {
	Guild() snowflake.ID
}

// QueueUpdateReceivedEvent is published when the transport delivers a queue update.
type QueueUpdateReceivedEvent struct {
	GuildID snowflake.ID
	Update  PlayQueueUpdate
}

// PlaybackCommandReceivedEvent is published when the transport delivers a playback command.
type PlaybackCommandReceivedEvent struct {
	GuildID snowflake.ID
	Command PlaybackCommand
}

// PlaybackStartedEvent is published when local playback has actually started.
type PlaybackStartedEvent struct {
	GuildID snowflake.ID
	SlotID  SlotID
}

// PlaybackErrorEvent is published when the local player fails to play.
type PlaybackErrorEvent struct {
	GuildID snowflake.ID
	Message string
}

// GroupPlaybackHaltedEvent is published when this client stops following the group.
type GroupPlaybackHaltedEvent struct {
	GuildID snowflake.ID
	Reason  string
}

func (e QueueUpdateReceivedEvent) Guild() snowflake.ID     { return e.GuildID }
func (e PlaybackCommandReceivedEvent) Guild() snowflake.ID { return e.GuildID }
func (e PlaybackStartedEvent) Guild() snowflake.ID         { return e.GuildID }
func (e PlaybackErrorEvent) Guild() snowflake.ID           { return e.GuildID }
func (e GroupPlaybackHaltedEvent) Guild() snowflake.ID     { return e.GuildID }
