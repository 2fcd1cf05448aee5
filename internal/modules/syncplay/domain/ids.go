package domain

import "github.com/google/uuid"

// SlotID identifies one position in the canonical playlist.
// Slot ids are assigned by the authority and stay stable across reorders,
// so the same media item may appear in several slots.
type SlotID uuid.UUID

// NoSlot is the zero SlotID, meaning "nothing is playing".
var NoSlot = SlotID(uuid.Nil)

// ParseSlotID parses a slot id from its string form.
func ParseSlotID(s string) (SlotID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return NoSlot, err
	}
	return SlotID(id), nil
}

// IsZero returns true for NoSlot.
func (s SlotID) IsZero() bool {
	return uuid.UUID(s) == uuid.Nil
}

func (s SlotID) String() string {
	return uuid.UUID(s).String()
}

// MarshalText implements encoding.TextMarshaler.
func (s SlotID) MarshalText() ([]byte, error) {
	return uuid.UUID(s).MarshalText()
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SlotID) UnmarshalText(data []byte) error {
	return (*uuid.UUID)(s).UnmarshalText(data)
}

// MediaItemID identifies an item in the media catalog.
type MediaItemID uuid.UUID

// ParseMediaItemID parses a media item id from its string form.
func ParseMediaItemID(s string) (MediaItemID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return MediaItemID(uuid.Nil), err
	}
	return MediaItemID(id), nil
}

func (m MediaItemID) String() string {
	return uuid.UUID(m).String()
}

// MarshalText implements encoding.TextMarshaler.
func (m MediaItemID) MarshalText() ([]byte, error) {
	return uuid.UUID(m).MarshalText()
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *MediaItemID) UnmarshalText(data []byte) error {
	return (*uuid.UUID)(m).UnmarshalText(data)
}
