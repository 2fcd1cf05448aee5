package domain

import (
	"time"

	"github.com/google/uuid"
)

var baseTime = time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

func slot(n byte) SlotID {
	return SlotID(uuid.UUID{0: 0x51, 15: n})
}

func media(n byte) MediaItemID {
	return MediaItemID(uuid.UUID{0: 0x4d, 15: n})
}

func testItem(n byte) Item {
	return Item{
		ID:       media(n),
		Name:     "Item " + string(rune('A'+n)),
		Source:   "source-" + string(rune('a'+n)),
		Duration: 3 * time.Minute,
	}
}

// newUpdate builds an update whose entry i has slot i+1 and media item i+1.
func newUpdate(at time.Duration, reason Reason, count, playingIndex int) *PlayQueueUpdate {
	entries := make([]QueueEntry, count)
	for i := range entries {
		entries[i] = QueueEntry{SlotID: slot(byte(i + 1)), MediaItemID: media(byte(i + 1))}
	}
	return &PlayQueueUpdate{
		LastUpdate:   baseTime.Add(at),
		Entries:      entries,
		PlayingIndex: playingIndex,
		Reason:       reason,
		RepeatMode:   RepeatNone,
		ShuffleMode:  ShuffleSorted,
	}
}

func itemsFor(update *PlayQueueUpdate) []Item {
	items := make([]Item, len(update.Entries))
	for i, entry := range update.Entries {
		items[i] = testItem(uuid.UUID(entry.MediaItemID)[15])
	}
	return items
}

// commit applies update to state and panics on error; for building fixtures.
func commit(state QueueState, update *PlayQueueUpdate) (QueueState, Snapshot) {
	next, prev, err := state.Commit(update, itemsFor(update))
	if err != nil {
		panic(err)
	}
	return next, prev
}
