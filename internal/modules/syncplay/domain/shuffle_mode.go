package domain

// ShuffleMode is the shuffle token forwarded to the local player.
type ShuffleMode string

const (
	ShuffleSorted  ShuffleMode = "Sorted"
	ShuffleShuffle ShuffleMode = "Shuffle"
)

// String returns a human-readable representation of the shuffle mode.
func (m ShuffleMode) String() string {
	if m == ShuffleShuffle {
		return "shuffle"
	}
	return "sorted"
}

// ParseShuffleMode converts a wire token to a ShuffleMode.
// Unknown tokens map to ShuffleSorted.
func ParseShuffleMode(s string) ShuffleMode {
	if ShuffleMode(s) == ShuffleShuffle {
		return ShuffleShuffle
	}
	return ShuffleSorted
}
