package domain

// QueueEntry is one slot of the canonical playlist as asserted by the authority.
type QueueEntry struct {
	SlotID      SlotID
	MediaItemID MediaItemID
}
