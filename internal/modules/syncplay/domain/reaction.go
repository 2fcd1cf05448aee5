package domain

// PlanReaction returns the minimal local reaction to the update that produced
// next, given the snapshot it replaced and whether this client is following
// group playback. Only NewPlaylist may act on a client that is not following;
// every other reason leaves a non-follower untouched. Unknown reasons yield
// no effects.
func PlanReaction(prev, next Snapshot, following bool) []Effect {
	if next.Update == nil {
		return nil
	}
	reason := next.Update.Reason

	if reason == ReasonNewPlaylist {
		if !following {
			return []Effect{FollowGroup{}, StartPlayback{}}
		}
		return []Effect{StartPlayback{}}
	}

	if !following {
		return nil
	}

	if reason.ChangesCurrentItem() {
		effects := []Effect{NotifyQueueChanged{Playlist: next.Playlist}}
		slotID := next.CurrentSlotID()
		if slotID.IsZero() {
			return effects
		}
		return append(effects,
			ArmReadiness{Origin: string(reason)},
			SwitchToSlot{SlotID: slotID},
		)
	}

	switch reason {
	case ReasonRemoveItems:
		effects := []Effect{NotifyQueueChanged{Playlist: next.Playlist}}
		// Removal only forces a switch when it took the active slot away.
		previous, current := prev.CurrentSlotID(), next.CurrentSlotID()
		if previous != current && !current.IsZero() {
			effects = append(effects, SwitchToSlot{SlotID: current})
		}
		return effects

	case ReasonMoveItem, ReasonQueue, ReasonQueueNext:
		return []Effect{NotifyQueueChanged{Playlist: next.Playlist}}

	case ReasonRepeatMode:
		return []Effect{SetRepeatMode{Mode: next.Update.RepeatMode}}

	case ReasonShuffleMode:
		return []Effect{SetShuffleMode{Mode: next.Update.ShuffleMode}}

	default:
		return nil
	}
}

// PlanCatchUp plans the reaction to next when prev is the last snapshot the
// player reacted to rather than the one next replaced. Reactions to updates
// committed in between were skipped, so the plan also restores what they
// would have done: a skipped NewPlaylist restarts playback from next, and a
// current slot that moved away from prev is switched to.
func PlanCatchUp(prev, next Snapshot, following, missedNewPlaylist bool) []Effect {
	effects := PlanReaction(prev, next, following)
	if next.Update == nil || !next.Update.Reason.IsKnown() {
		return effects
	}
	reason := next.Update.Reason
	if reason == ReasonNewPlaylist {
		return effects
	}

	if missedNewPlaylist {
		if !following {
			return []Effect{FollowGroup{}, StartPlayback{}}
		}
		// StartPlayback loads the whole queue and arms its own handshake.
		kept := make([]Effect, 0, len(effects)+1)
		for _, effect := range effects {
			switch effect.(type) {
			case ArmReadiness, SwitchToSlot:
				continue
			}
			kept = append(kept, effect)
		}
		return append(kept, StartPlayback{})
	}

	if !following || prev.Update == nil || reason.ChangesCurrentItem() {
		return effects
	}
	current := next.CurrentSlotID()
	if current.IsZero() || current == prev.CurrentSlotID() {
		return effects
	}
	for _, effect := range effects {
		if _, ok := effect.(SwitchToSlot); ok {
			return effects
		}
	}
	return append(effects,
		ArmReadiness{Origin: string(reason)},
		SwitchToSlot{SlotID: current},
	)
}
