package infrastructure

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
)

func TestVoiceStateProvider_GetUserVoiceChannel(t *testing.T) {
	state := discordgo.NewState()
	err := state.GuildAdd(&discordgo.Guild{
		ID: "1",
		VoiceStates: []*discordgo.VoiceState{
			{GuildID: "1", UserID: "10", ChannelID: "20"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	provider := NewVoiceStateProvider(state)

	tests := []struct {
		name    string
		guildID snowflake.ID
		userID  snowflake.ID
		want    snowflake.ID
	}{
		{name: "user in voice", guildID: 1, userID: 10, want: 20},
		{name: "user not in voice", guildID: 1, userID: 11, want: 0},
		{name: "unknown guild", guildID: 2, userID: 10, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := provider.GetUserVoiceChannel(tt.guildID, tt.userID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected channel %d, got %d", tt.want, got)
			}
		})
	}
}

func TestVoiceEventBuffer(t *testing.T) {
	var buffer voiceEventBuffer
	channelID := snowflake.ID(20)

	if buffer.setVoiceState(&channelID, "session") {
		t.Fatal("expected buffer to wait for the voice server")
	}
	if !buffer.setVoiceServer("token", "endpoint") {
		t.Fatal("expected buffer to be complete")
	}

	gotChannel, sessionID, token, endpoint := buffer.drain()
	if gotChannel == nil || *gotChannel != channelID || sessionID != "session" ||
		token != "token" || endpoint != "endpoint" {
		t.Errorf("unexpected drained data: %v %q %q %q", gotChannel, sessionID, token, endpoint)
	}

	// A drained buffer waits for both events again.
	if buffer.setVoiceServer("token2", "endpoint2") {
		t.Error("expected drained buffer to wait for a voice state")
	}
}

func TestPendingVoiceConnection(t *testing.T) {
	pending := &pendingVoiceConnection{ready: make(chan struct{})}

	pending.onEvent(true)
	select {
	case <-pending.ready:
		t.Fatal("expected to wait for the voice server")
	default:
	}

	pending.onEvent(false)
	pending.onEvent(false) // closing twice must not panic

	select {
	case <-pending.ready:
	default:
		t.Fatal("expected ready after both events")
	}
}
