package domain

import "time"

// NoPlayingIndex is the PlayingIndex sentinel meaning "nothing is playing".
const NoPlayingIndex = -1

// PlayQueueUpdate is the canonical queue as asserted by the authority.
type PlayQueueUpdate struct {
	LastUpdate    time.Time
	Entries       []QueueEntry
	PlayingIndex  int
	Reason        Reason
	StartPosition Ticks
	RepeatMode    RepeatMode
	ShuffleMode   ShuffleMode
}

// IsNewerThan reports whether u was produced strictly after other.
// A nil other is older than any update.
func (u *PlayQueueUpdate) IsNewerThan(other *PlayQueueUpdate) bool {
	if other == nil {
		return true
	}
	return u.LastUpdate.After(other.LastUpdate)
}

// MediaItemIDs returns the media item ids of all entries, in entry order.
func (u *PlayQueueUpdate) MediaItemIDs() []MediaItemID {
	ids := make([]MediaItemID, len(u.Entries))
	for i, entry := range u.Entries {
		ids[i] = entry.MediaItemID
	}
	return ids
}
