package domain

// Reason describes why the authority sent a queue update.
type Reason string

const (
	ReasonNewPlaylist    Reason = "NewPlaylist"
	ReasonSetCurrentItem Reason = "SetCurrentItem"
	ReasonRemoveItems    Reason = "RemoveItems"
	ReasonMoveItem       Reason = "MoveItem"
	ReasonQueue          Reason = "Queue"
	ReasonQueueNext      Reason = "QueueNext"
	ReasonNextItem       Reason = "NextItem"
	ReasonPreviousItem   Reason = "PreviousItem"
	ReasonRepeatMode     Reason = "RepeatMode"
	ReasonShuffleMode    Reason = "ShuffleMode"
)

// IsKnown returns true if the reason is part of the vocabulary this client understands.
func (r Reason) IsKnown() bool {
	switch r {
	case ReasonNewPlaylist, ReasonSetCurrentItem, ReasonRemoveItems, ReasonMoveItem,
		ReasonQueue, ReasonQueueNext, ReasonNextItem, ReasonPreviousItem,
		ReasonRepeatMode, ReasonShuffleMode:
		return true
	default:
		return false
	}
}

// ChangesCurrentItem returns true for reasons that move playback to another slot
// and therefore start a fresh buffering cycle.
func (r Reason) ChangesCurrentItem() bool {
	return r == ReasonSetCurrentItem || r == ReasonNextItem || r == ReasonPreviousItem
}
