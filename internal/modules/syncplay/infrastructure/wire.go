package infrastructure

import (
	"encoding/json"
	"time"

	"github.com/sglre6355/syncbot/internal/modules/syncplay/application/ports"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/domain"
)

// Message types exchanged with the group server.
const (
	msgGroupUpdate      = "SyncPlayGroupUpdate"
	msgCommand          = "SyncPlayCommand"
	msgJoinGroup        = "SyncPlayJoinGroup"
	msgLeaveGroup       = "SyncPlayLeaveGroup"
	msgReady            = "SyncPlayReady"
	msgTimeSyncRequest  = "TimeSyncRequest"
	msgTimeSyncResponse = "TimeSyncResponse"
	msgKeepAlive        = "KeepAlive"
)

// Group update types carried by msgGroupUpdate.
const (
	groupUpdatePlayQueue         = "PlayQueue"
	groupUpdateGroupJoined       = "GroupJoined"
	groupUpdateGroupLeft         = "GroupLeft"
	groupUpdateNotInGroup        = "NotInGroup"
	groupUpdateGroupDoesNotExist = "GroupDoesNotExist"
	groupUpdateLibraryAccess     = "LibraryAccessDenied"
)

type envelope struct {
	MessageID   string          `json:"MessageId"`
	MessageType string          `json:"MessageType"`
	Data        json.RawMessage `json:"Data,omitempty"`
}

type groupUpdateDTO struct {
	GroupID string          `json:"GroupId"`
	Type    string          `json:"Type"`
	Data    json.RawMessage `json:"Data"`
}

type queueEntryDTO struct {
	ItemID         domain.MediaItemID `json:"ItemId"`
	PlaylistItemID domain.SlotID      `json:"PlaylistItemId"`
}

type playQueueDTO struct {
	Reason             string          `json:"Reason"`
	LastUpdate         time.Time       `json:"LastUpdate"`
	Playlist           []queueEntryDTO `json:"Playlist"`
	PlayingItemIndex   int             `json:"PlayingItemIndex"`
	StartPositionTicks int64           `json:"StartPositionTicks"`
	IsPlaying          bool            `json:"IsPlaying"`
	ShuffleMode        string          `json:"ShuffleMode"`
	RepeatMode         string          `json:"RepeatMode"`
}

func (d playQueueDTO) toDomain() domain.PlayQueueUpdate {
	entries := make([]domain.QueueEntry, len(d.Playlist))
	for i, entry := range d.Playlist {
		entries[i] = domain.QueueEntry{
			SlotID:      entry.PlaylistItemID,
			MediaItemID: entry.ItemID,
		}
	}
	return domain.PlayQueueUpdate{
		LastUpdate:    d.LastUpdate,
		Entries:       entries,
		PlayingIndex:  d.PlayingItemIndex,
		Reason:        domain.Reason(d.Reason),
		StartPosition: domain.Ticks(d.StartPositionTicks),
		RepeatMode:    domain.ParseRepeatMode(d.RepeatMode),
		ShuffleMode:   domain.ParseShuffleMode(d.ShuffleMode),
	}
}

type commandDTO struct {
	GroupID        string        `json:"GroupId"`
	PlaylistItemID domain.SlotID `json:"PlaylistItemId"`
	When           time.Time     `json:"When"`
	PositionTicks  int64         `json:"PositionTicks"`
	Command        string        `json:"Command"`
	EmittedAt      time.Time     `json:"EmittedAt"`
}

func (d commandDTO) toDomain() domain.PlaybackCommand {
	return domain.PlaybackCommand{
		Kind:      domain.CommandKind(d.Command),
		Position:  domain.Ticks(d.PositionTicks),
		When:      d.When,
		EmittedAt: d.EmittedAt,
		SlotID:    d.PlaylistItemID,
	}
}

type joinGroupDTO struct {
	GroupID string `json:"GroupId"`
}

type readyDTO struct {
	When           time.Time     `json:"When"`
	PositionTicks  int64         `json:"PositionTicks"`
	IsPlaying      bool          `json:"IsPlaying"`
	PlaylistItemID domain.SlotID `json:"PlaylistItemId"`
}

func newReadyDTO(report ports.ReadyReport) readyDTO {
	return readyDTO{
		When:           report.GroupTime.UTC(),
		PositionTicks:  int64(report.Position),
		IsPlaying:      report.IsPlaying,
		PlaylistItemID: report.SlotID,
	}
}

type timeSyncRequestDTO struct {
	RequestSent time.Time `json:"RequestSent"`
}

type timeSyncResponseDTO struct {
	RequestSent          time.Time `json:"RequestSent"`
	RequestReception     time.Time `json:"RequestReception"`
	ResponseTransmission time.Time `json:"ResponseTransmission"`
}
