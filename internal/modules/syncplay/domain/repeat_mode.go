package domain

// RepeatMode is the repeat token forwarded to the local player.
type RepeatMode string

const (
	RepeatNone RepeatMode = "RepeatNone" // Default: stop at the end of the queue
	RepeatOne  RepeatMode = "RepeatOne"  // Repeat current item indefinitely
	RepeatAll  RepeatMode = "RepeatAll"  // Repeat entire queue when reaching end
)

// String returns a human-readable representation of the repeat mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOne:
		return "one"
	case RepeatAll:
		return "all"
	default:
		return "none"
	}
}

// ParseRepeatMode converts a wire token to a RepeatMode.
// Unknown tokens map to RepeatNone.
func ParseRepeatMode(s string) RepeatMode {
	switch RepeatMode(s) {
	case RepeatOne:
		return RepeatOne
	case RepeatAll:
		return RepeatAll
	default:
		return RepeatNone
	}
}
