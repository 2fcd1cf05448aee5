package domain

import (
	"strconv"
	"time"
)

// Item is the playable metadata the catalog returns for a media item.
type Item struct {
	ID       MediaItemID
	Name     string
	Artist   string
	Album    string
	Duration time.Duration
	// Source is what the local player needs to load the item
	// (for Lavalink, an identifier or URL it can resolve).
	Source   string
	IsStream bool
}

// IsValid returns true if the item has the minimum required fields.
func (i *Item) IsValid() bool {
	return i.Source != "" && i.Name != ""
}

// FormattedDuration returns the duration as a human-readable string (mm:ss or hh:mm:ss).
func (i *Item) FormattedDuration() string {
	if i.IsStream {
		return "LIVE"
	}

	totalSeconds := int(i.Duration.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return pad(hours) + ":" + pad(minutes) + ":" + pad(seconds)
	}
	return pad(minutes) + ":" + pad(seconds)
}

func pad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// PlaylistItem is a resolved item bound to the slot it occupies.
type PlaylistItem struct {
	SlotID SlotID
	Item   Item
}
