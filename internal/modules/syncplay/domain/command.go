package domain

import "time"

// CommandKind is the kind of playback command sent by the authority.
type CommandKind string

const (
	CommandUnpause CommandKind = "Unpause"
	CommandPause   CommandKind = "Pause"
	CommandSeek    CommandKind = "Seek"
	CommandStop    CommandKind = "Stop"
)

// PlaybackCommand is a playback command asserted by the authority.
type PlaybackCommand struct {
	Kind     CommandKind
	Position Ticks
	// When is the group time at which the command takes effect.
	When time.Time
	// EmittedAt is the group time at which the authority sent the command.
	EmittedAt time.Time
	SlotID    SlotID
}

// PositionAnchor is a known position and the group time it was valid at.
type PositionAnchor struct {
	Position    Ticks
	AsOf        time.Time
	FromCommand bool
}

// ChoosePositionAnchor picks the freshest known position to extrapolate from.
// Playback commands are emitted far more often than queue updates, so a
// command emitted after the update wins.
func ChoosePositionAnchor(update *PlayQueueUpdate, lastCommand *PlaybackCommand) PositionAnchor {
	if lastCommand != nil && (update == nil || lastCommand.EmittedAt.After(update.LastUpdate)) {
		asOf := lastCommand.When
		if asOf.IsZero() {
			asOf = lastCommand.EmittedAt
		}
		return PositionAnchor{
			Position:    lastCommand.Position,
			AsOf:        asOf,
			FromCommand: true,
		}
	}

	if update == nil {
		return PositionAnchor{}
	}
	return PositionAnchor{
		Position: update.StartPosition,
		AsOf:     update.LastUpdate,
	}
}
