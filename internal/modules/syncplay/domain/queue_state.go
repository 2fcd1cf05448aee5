package domain

import "slices"

// Snapshot is a read-only view of the queue at one accepted update.
type Snapshot struct {
	Update   *PlayQueueUpdate // nil before the first accepted update
	Playlist Playlist
}

// CurrentIndex returns the playing index, or NoPlayingIndex when nothing is
// playing. An index the authority sent outside the resolved playlist is
// treated as "nothing playing".
func (s Snapshot) CurrentIndex() int {
	if s.Update == nil || s.Playlist.IsEmpty() {
		return NoPlayingIndex
	}
	if !s.Playlist.isValidIndex(s.Update.PlayingIndex) {
		return NoPlayingIndex
	}
	return s.Update.PlayingIndex
}

// CurrentSlotID returns the slot that is playing, or NoSlot.
func (s Snapshot) CurrentSlotID() SlotID {
	item := s.Playlist.At(s.CurrentIndex())
	if item == nil {
		return NoSlot
	}
	return item.SlotID
}

// CurrentItem returns the playing item, or nil.
func (s Snapshot) CurrentItem() *PlaylistItem {
	return s.Playlist.At(s.CurrentIndex())
}

// QueueState is the queue core's only mutable state: the last accepted update
// and the playlist resolved from it. Transitions return a new value.
type QueueState struct {
	lastAccepted *PlayQueueUpdate
	playlist     Playlist
}

// NewQueueState creates an empty QueueState for a new group session.
func NewQueueState() QueueState {
	return QueueState{}
}

// LastAccepted returns the last accepted update, or nil.
func (q QueueState) LastAccepted() *PlayQueueUpdate {
	return q.lastAccepted
}

// Playlist returns the resolved playlist.
func (q QueueState) Playlist() Playlist {
	return q.playlist
}

// Snapshot returns the current snapshot.
func (q QueueState) Snapshot() Snapshot {
	return Snapshot{
		Update:   q.lastAccepted,
		Playlist: q.playlist,
	}
}

// Accepts reports whether update is strictly newer than the accepted state.
func (q QueueState) Accepts(update *PlayQueueUpdate) bool {
	return update.IsNewerThan(q.lastAccepted)
}

// IsLatest reports whether update is the one currently accepted.
func (q QueueState) IsLatest(update *PlayQueueUpdate) bool {
	return q.lastAccepted != nil && q.lastAccepted.LastUpdate.Equal(update.LastUpdate)
}

// Commit accepts update with its resolved items and returns the new state
// together with the snapshot it replaced. The ordering check is evaluated
// again here so that a commit after a slow fetch can never overwrite a
// newer state. items must be in entry order; it is ignored for an update
// without entries.
func (q QueueState) Commit(update *PlayQueueUpdate, items []Item) (QueueState, Snapshot, error) {
	if !q.Accepts(update) {
		return q, Snapshot{}, ErrStaleUpdate
	}

	accepted := *update
	accepted.Entries = slices.Clone(update.Entries)

	var playlist Playlist
	if len(accepted.Entries) > 0 {
		var ok bool
		playlist, ok = NewPlaylist(accepted.Entries, items)
		if !ok {
			return q, Snapshot{}, ErrItemCountMismatch
		}
	}

	next := QueueState{
		lastAccepted: &accepted,
		playlist:     playlist,
	}
	return next, q.Snapshot(), nil
}
