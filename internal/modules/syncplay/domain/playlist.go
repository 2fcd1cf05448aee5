package domain

// Playlist is the resolved, player-ready counterpart of an update's entries.
// A Playlist is never mutated after construction; every accepted update
// replaces it wholesale.
type Playlist struct {
	items []PlaylistItem
}

// NewPlaylist zips resolved items with the slot ids of entries, positionally.
// It returns false if the two sequences differ in length.
func NewPlaylist(entries []QueueEntry, items []Item) (Playlist, bool) {
	if len(entries) != len(items) {
		return Playlist{}, false
	}

	resolved := make([]PlaylistItem, len(entries))
	for i, entry := range entries {
		resolved[i] = PlaylistItem{
			SlotID: entry.SlotID,
			Item:   items[i],
		}
	}
	return Playlist{items: resolved}, true
}

// IsEmpty returns true if the playlist has no items.
func (p Playlist) IsEmpty() bool {
	return p.Len() == 0
}

// Len returns the number of items in the playlist.
func (p Playlist) Len() int {
	return len(p.items)
}

func (p Playlist) isValidIndex(index int) bool {
	return 0 <= index && index < p.Len()
}

// At returns the item at the given index, or nil if the index is out of bounds.
func (p Playlist) At(index int) *PlaylistItem {
	if !p.isValidIndex(index) {
		return nil
	}
	item := p.items[index]
	return &item
}

// IndexOf returns the index of the given slot, or NoPlayingIndex if absent.
func (p Playlist) IndexOf(slotID SlotID) int {
	for i, item := range p.items {
		if item.SlotID == slotID {
			return i
		}
	}
	return NoPlayingIndex
}

// Items returns a copy of all items in the playlist.
func (p Playlist) Items() []PlaylistItem {
	result := make([]PlaylistItem, p.Len())
	copy(result, p.items)
	return result
}

// SlotIDs returns the slot ids in playlist order.
func (p Playlist) SlotIDs() []SlotID {
	ids := make([]SlotID, p.Len())
	for i, item := range p.items {
		ids[i] = item.SlotID
	}
	return ids
}

// MediaItemIDs returns the media item ids in playlist order.
func (p Playlist) MediaItemIDs() []MediaItemID {
	ids := make([]MediaItemID, p.Len())
	for i, item := range p.items {
		ids[i] = item.Item.ID
	}
	return ids
}
