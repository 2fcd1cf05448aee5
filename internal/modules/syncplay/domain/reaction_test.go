package domain

import (
	"reflect"
	"testing"
	"time"
)

func snapshotsFor(prevUpdate, nextUpdate *PlayQueueUpdate) (Snapshot, Snapshot) {
	state := NewQueueState()
	if prevUpdate != nil {
		state, _ = commit(state, prevUpdate)
	}
	next, prev := commit(state, nextUpdate)
	return prev, next.Snapshot()
}

func TestPlanReaction(t *testing.T) {
	baseline := newUpdate(time.Second, ReasonNewPlaylist, 3, 0)

	tests := []struct {
		name      string
		prev      *PlayQueueUpdate
		next      *PlayQueueUpdate
		following bool
		want      func(next Snapshot) []Effect
	}{
		{
			name:      "new playlist while following restarts playback",
			next:      newUpdate(time.Second, ReasonNewPlaylist, 2, 0),
			following: true,
			want:      func(Snapshot) []Effect { return []Effect{StartPlayback{}} },
		},
		{
			name:      "new playlist while not following follows first",
			next:      newUpdate(time.Second, ReasonNewPlaylist, 2, 0),
			following: false,
			want:      func(Snapshot) []Effect { return []Effect{FollowGroup{}, StartPlayback{}} },
		},
		{
			name:      "set current item switches after arming",
			prev:      baseline,
			next:      newUpdate(2*time.Second, ReasonSetCurrentItem, 3, 2),
			following: true,
			want: func(next Snapshot) []Effect {
				return []Effect{
					NotifyQueueChanged{Playlist: next.Playlist},
					ArmReadiness{Origin: "SetCurrentItem"},
					SwitchToSlot{SlotID: slot(3)},
				}
			},
		},
		{
			name:      "next item",
			prev:      baseline,
			next:      newUpdate(2*time.Second, ReasonNextItem, 3, 1),
			following: true,
			want: func(next Snapshot) []Effect {
				return []Effect{
					NotifyQueueChanged{Playlist: next.Playlist},
					ArmReadiness{Origin: "NextItem"},
					SwitchToSlot{SlotID: slot(2)},
				}
			},
		},
		{
			name:      "previous item",
			prev:      newUpdate(time.Second, ReasonNewPlaylist, 3, 1),
			next:      newUpdate(2*time.Second, ReasonPreviousItem, 3, 0),
			following: true,
			want: func(next Snapshot) []Effect {
				return []Effect{
					NotifyQueueChanged{Playlist: next.Playlist},
					ArmReadiness{Origin: "PreviousItem"},
					SwitchToSlot{SlotID: slot(1)},
				}
			},
		},
		{
			name:      "next item past the end only refreshes the queue",
			prev:      baseline,
			next:      newUpdate(2*time.Second, ReasonNextItem, 3, NoPlayingIndex),
			following: true,
			want: func(next Snapshot) []Effect {
				return []Effect{NotifyQueueChanged{Playlist: next.Playlist}}
			},
		},
		{
			name:      "remove items that took the current slot away",
			prev:      baseline,
			next:      removeFirst(newUpdate(2*time.Second, ReasonRemoveItems, 3, 0)),
			following: true,
			want: func(next Snapshot) []Effect {
				return []Effect{
					NotifyQueueChanged{Playlist: next.Playlist},
					SwitchToSlot{SlotID: slot(2)},
				}
			},
		},
		{
			name:      "move item",
			prev:      baseline,
			next:      newUpdate(2*time.Second, ReasonMoveItem, 3, 0),
			following: true,
			want: func(next Snapshot) []Effect {
				return []Effect{NotifyQueueChanged{Playlist: next.Playlist}}
			},
		},
		{
			name:      "queue",
			prev:      baseline,
			next:      newUpdate(2*time.Second, ReasonQueue, 4, 0),
			following: true,
			want: func(next Snapshot) []Effect {
				return []Effect{NotifyQueueChanged{Playlist: next.Playlist}}
			},
		},
		{
			name:      "queue next",
			prev:      baseline,
			next:      newUpdate(2*time.Second, ReasonQueueNext, 4, 0),
			following: true,
			want: func(next Snapshot) []Effect {
				return []Effect{NotifyQueueChanged{Playlist: next.Playlist}}
			},
		},
		{
			name:      "repeat mode",
			prev:      baseline,
			next:      withRepeat(newUpdate(2*time.Second, ReasonRepeatMode, 3, 0), RepeatAll),
			following: true,
			want:      func(Snapshot) []Effect { return []Effect{SetRepeatMode{Mode: RepeatAll}} },
		},
		{
			name:      "shuffle mode",
			prev:      baseline,
			next:      withShuffle(newUpdate(2*time.Second, ReasonShuffleMode, 3, 0), ShuffleShuffle),
			following: true,
			want:      func(Snapshot) []Effect { return []Effect{SetShuffleMode{Mode: ShuffleShuffle}} },
		},
		{
			name:      "unknown reason",
			prev:      baseline,
			next:      newUpdate(2*time.Second, Reason("SomethingNew"), 3, 0),
			following: true,
			want:      func(Snapshot) []Effect { return nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev, next := snapshotsFor(tt.prev, tt.next)

			got := PlanReaction(prev, next, tt.following)
			want := tt.want(next)

			if !reflect.DeepEqual(got, want) {
				t.Errorf("expected effects %#v, got %#v", want, got)
			}
		})
	}
}

func TestPlanReaction_NonFollowerIsUntouched(t *testing.T) {
	baseline := newUpdate(time.Second, ReasonNewPlaylist, 3, 0)
	reasons := []Reason{
		ReasonSetCurrentItem, ReasonRemoveItems, ReasonMoveItem, ReasonQueue,
		ReasonQueueNext, ReasonNextItem, ReasonPreviousItem, ReasonRepeatMode, ReasonShuffleMode,
	}

	for _, reason := range reasons {
		t.Run(string(reason), func(t *testing.T) {
			prev, next := snapshotsFor(baseline, newUpdate(2*time.Second, reason, 3, 1))

			if effects := PlanReaction(prev, next, false); len(effects) != 0 {
				t.Errorf("expected no effects for non-follower, got %#v", effects)
			}
		})
	}
}

func TestPlanReaction_RemoveKeepingCurrentSlotDoesNotSwitch(t *testing.T) {
	// Slot 2 plays at index 1; removing slot 1 shifts it to index 0.
	prevUpdate := newUpdate(time.Second, ReasonNewPlaylist, 3, 1)
	nextUpdate := removeFirst(newUpdate(2*time.Second, ReasonRemoveItems, 3, 0))

	prev, next := snapshotsFor(prevUpdate, nextUpdate)
	if prev.CurrentSlotID() != next.CurrentSlotID() {
		t.Fatalf("fixture error: expected same slot, got %s and %s", prev.CurrentSlotID(), next.CurrentSlotID())
	}

	for _, effect := range PlanReaction(prev, next, true) {
		if _, ok := effect.(SwitchToSlot); ok {
			t.Errorf("expected no switch when the current slot survived removal, got %#v", effect)
		}
	}
}

func TestPlanReaction_RemoveEverythingDoesNotSwitch(t *testing.T) {
	prev, next := snapshotsFor(
		newUpdate(time.Second, ReasonNewPlaylist, 3, 0),
		newUpdate(2*time.Second, ReasonRemoveItems, 0, NoPlayingIndex),
	)

	want := []Effect{NotifyQueueChanged{Playlist: next.Playlist}}
	if got := PlanReaction(prev, next, true); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %#v, got %#v", want, got)
	}
}

func TestPlanReaction_MoveKeepsCurrentSlot(t *testing.T) {
	// Slot 1 plays at index 0 and is moved to index 2; the authority follows it.
	prevUpdate := newUpdate(time.Second, ReasonNewPlaylist, 3, 0)
	nextUpdate := newUpdate(2*time.Second, ReasonMoveItem, 3, 2)
	e := nextUpdate.Entries
	nextUpdate.Entries = []QueueEntry{e[1], e[2], e[0]}

	prev, next := snapshotsFor(prevUpdate, nextUpdate)

	if prev.CurrentSlotID() != next.CurrentSlotID() {
		t.Errorf("expected current slot to stay %s, got %s", prev.CurrentSlotID(), next.CurrentSlotID())
	}
	for _, effect := range PlanReaction(prev, next, true) {
		if _, ok := effect.(SwitchToSlot); ok {
			t.Errorf("expected no switch on reorder, got %#v", effect)
		}
	}
}

func TestPlanReaction_EmptyPlaylistHasNoCurrentSlot(t *testing.T) {
	for _, playingIndex := range []int{NoPlayingIndex, 0, 4} {
		_, next := snapshotsFor(nil, newUpdate(time.Second, ReasonSetCurrentItem, 0, playingIndex))

		if !next.Playlist.IsEmpty() {
			t.Errorf("index %d: expected empty playlist", playingIndex)
		}
		if !next.CurrentSlotID().IsZero() {
			t.Errorf("index %d: expected no current slot, got %s", playingIndex, next.CurrentSlotID())
		}
	}
}

func TestPlanReaction_NoUpdate(t *testing.T) {
	if effects := PlanReaction(Snapshot{}, Snapshot{}, true); effects != nil {
		t.Errorf("expected no effects, got %#v", effects)
	}
}

func removeFirst(update *PlayQueueUpdate) *PlayQueueUpdate {
	update.Entries = update.Entries[1:]
	return update
}

func withRepeat(update *PlayQueueUpdate, mode RepeatMode) *PlayQueueUpdate {
	update.RepeatMode = mode
	return update
}

func withShuffle(update *PlayQueueUpdate, mode ShuffleMode) *PlayQueueUpdate {
	update.ShuffleMode = mode
	return update
}

func TestPlanCatchUp(t *testing.T) {
	// The player last reacted to slot 1 playing; slot 2 is current now.
	reacted := newUpdate(time.Second, ReasonNewPlaylist, 3, 0)

	tests := []struct {
		name              string
		reacted           *PlayQueueUpdate
		next              *PlayQueueUpdate
		following         bool
		missedNewPlaylist bool
		want              func(next Snapshot) []Effect
	}{
		{
			name:      "move after a skipped slot change switches",
			reacted:   reacted,
			next:      newUpdate(3*time.Second, ReasonMoveItem, 3, 1),
			following: true,
			want: func(next Snapshot) []Effect {
				return []Effect{
					NotifyQueueChanged{Playlist: next.Playlist},
					ArmReadiness{Origin: "MoveItem"},
					SwitchToSlot{SlotID: slot(2)},
				}
			},
		},
		{
			name:      "repeat mode after a skipped slot change switches",
			reacted:   reacted,
			next:      withRepeat(newUpdate(3*time.Second, ReasonRepeatMode, 3, 1), RepeatOne),
			following: true,
			want: func(Snapshot) []Effect {
				return []Effect{
					SetRepeatMode{Mode: RepeatOne},
					ArmReadiness{Origin: "RepeatMode"},
					SwitchToSlot{SlotID: slot(2)},
				}
			},
		},
		{
			name:      "slot changes are planned by their own reason",
			reacted:   reacted,
			next:      newUpdate(3*time.Second, ReasonNextItem, 3, 1),
			following: true,
			want: func(next Snapshot) []Effect {
				return []Effect{
					NotifyQueueChanged{Playlist: next.Playlist},
					ArmReadiness{Origin: "NextItem"},
					SwitchToSlot{SlotID: slot(2)},
				}
			},
		},
		{
			name:      "unchanged slot needs nothing extra",
			reacted:   reacted,
			next:      newUpdate(3*time.Second, ReasonQueue, 4, 0),
			following: true,
			want: func(next Snapshot) []Effect {
				return []Effect{NotifyQueueChanged{Playlist: next.Playlist}}
			},
		},
		{
			name:      "nothing reacted to yet",
			next:      newUpdate(3*time.Second, ReasonQueue, 3, 1),
			following: true,
			want: func(next Snapshot) []Effect {
				return []Effect{NotifyQueueChanged{Playlist: next.Playlist}}
			},
		},
		{
			name:      "non-follower stays untouched",
			reacted:   reacted,
			next:      newUpdate(3*time.Second, ReasonMoveItem, 3, 1),
			following: false,
			want:      func(Snapshot) []Effect { return nil },
		},
		{
			name:              "skipped new playlist restarts playback",
			reacted:           reacted,
			next:              newUpdate(3*time.Second, ReasonNextItem, 3, 1),
			following:         true,
			missedNewPlaylist: true,
			want: func(next Snapshot) []Effect {
				return []Effect{NotifyQueueChanged{Playlist: next.Playlist}, StartPlayback{}}
			},
		},
		{
			name:              "skipped new playlist follows a non-follower",
			reacted:           reacted,
			next:              newUpdate(3*time.Second, ReasonQueue, 3, 1),
			following:         false,
			missedNewPlaylist: true,
			want:              func(Snapshot) []Effect { return []Effect{FollowGroup{}, StartPlayback{}} },
		},
		{
			name:              "new playlist plans as usual",
			reacted:           reacted,
			next:              newUpdate(3*time.Second, ReasonNewPlaylist, 2, 0),
			following:         true,
			missedNewPlaylist: true,
			want:              func(Snapshot) []Effect { return []Effect{StartPlayback{}} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev, next := snapshotsFor(tt.reacted, tt.next)

			got := PlanCatchUp(prev, next, tt.following, tt.missedNewPlaylist)
			want := tt.want(next)

			if !reflect.DeepEqual(got, want) {
				t.Errorf("expected effects %#v, got %#v", want, got)
			}
		})
	}
}
