package domain

// Effect is a local reaction the queue core asks its runner to perform.
// Effects are plain values so reaction planning stays free of side effects.
type Effect interface {
	isEffect()
}

// NotifyQueueChanged asks the player to re-derive its view of the queue.
type NotifyQueueChanged struct {
	Playlist Playlist
}

// SwitchToSlot asks the player to make the given slot current.
type SwitchToSlot struct {
	SlotID SlotID
}

// ArmReadiness arms a new readiness handshake.
type ArmReadiness struct {
	Origin string
}

// FollowGroup asks the session to start following group playback.
type FollowGroup struct{}

// StartPlayback asks the core to (re)start playback of the canonical queue.
type StartPlayback struct{}

// SetRepeatMode applies a repeat mode locally, without echoing it upstream.
type SetRepeatMode struct {
	Mode RepeatMode
}

// SetShuffleMode applies a shuffle mode locally, without echoing it upstream.
type SetShuffleMode struct {
	Mode ShuffleMode
}

func (NotifyQueueChanged) isEffect() {}
func (SwitchToSlot) isEffect()       {}
func (ArmReadiness) isEffect()       {}
func (FollowGroup) isEffect()        {}
func (StartPlayback) isEffect()      {}
func (SetRepeatMode) isEffect()      {}
func (SetShuffleMode) isEffect()     {}
