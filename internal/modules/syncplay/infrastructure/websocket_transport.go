package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/application/ports"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/domain"
)

const (
	// joinTimeout is the maximum time to wait for the server to confirm a join.
	joinTimeout = 10 * time.Second

	// timeSyncInterval is how often the clock offset is measured again.
	timeSyncInterval = 30 * time.Second

	writeTimeout = 5 * time.Second
)

var (
	// ErrGroupDoesNotExist is returned when joining a group the server does not know.
	ErrGroupDoesNotExist = errors.New("group does not exist")

	// ErrJoinRejected is returned when the server refuses to add this client to a group.
	ErrJoinRejected = errors.New("server rejected group join")

	// ErrTransportClosed is returned when using a closed transport.
	ErrTransportClosed = errors.New("group transport is closed")
)

// WebsocketDialer opens WebsocketTransports to the group server.
type WebsocketDialer struct {
	url       string
	token     string
	publisher ports.EventPublisher
	clock     *OffsetClock
	dialer    *websocket.Dialer
}

// NewWebsocketDialer creates a new WebsocketDialer.
func NewWebsocketDialer(
	url, token string,
	publisher ports.EventPublisher,
	clock *OffsetClock,
) *WebsocketDialer {
	return &WebsocketDialer{
		url:       url,
		token:     token,
		publisher: publisher,
		clock:     clock,
		dialer:    websocket.DefaultDialer,
	}
}

// Dial connects to the group server on behalf of a guild.
func (d *WebsocketDialer) Dial(
	ctx context.Context,
	guildID snowflake.ID,
) (ports.GroupTransport, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+d.token)

	conn, _, err := d.dialer.DialContext(ctx, d.url, header)
	if err != nil {
		return nil, fmt.Errorf("failed to dial group server: %w", err)
	}

	t := newWebsocketTransport(conn, guildID, d.publisher, d.clock)
	t.start()

	slog.Info("connected to group server", "guild", guildID, "url", d.url)

	return t, nil
}

// Ensure WebsocketDialer implements ports.TransportDialer.
var _ ports.TransportDialer = (*WebsocketDialer)(nil)

// pendingJoin tracks a join waiting for the server's answer.
type pendingJoin struct {
	groupID string
	result  chan error
}

// WebsocketTransport is one guild's connection to the group server.
// Inbound queue updates and playback commands are published on the event bus.
type WebsocketTransport struct {
	conn      *websocket.Conn
	guildID   snowflake.ID
	publisher ports.EventPublisher
	clock     *OffsetClock

	// gorilla/websocket allows a single concurrent writer.
	writeMu sync.Mutex

	joinMu sync.Mutex
	join   *pendingJoin

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func newWebsocketTransport(
	conn *websocket.Conn,
	guildID snowflake.ID,
	publisher ports.EventPublisher,
	clock *OffsetClock,
) *WebsocketTransport {
	return &WebsocketTransport{
		conn:      conn,
		guildID:   guildID,
		publisher: publisher,
		clock:     clock,
		done:      make(chan struct{}),
	}
}

func (t *WebsocketTransport) start() {
	t.wg.Add(2)
	go t.readLoop()
	go t.timeSyncLoop()
}

// Join asks the server to add this client to the group and waits for the answer.
func (t *WebsocketTransport) Join(ctx context.Context, groupID string) error {
	pending := &pendingJoin{
		groupID: groupID,
		result:  make(chan error, 1),
	}

	t.joinMu.Lock()
	t.join = pending
	t.joinMu.Unlock()

	defer func() {
		t.joinMu.Lock()
		if t.join == pending {
			t.join = nil
		}
		t.joinMu.Unlock()
	}()

	if err := t.send(msgJoinGroup, joinGroupDTO{GroupID: groupID}); err != nil {
		return err
	}

	select {
	case err := <-pending.result:
		return err
	case <-t.done:
		return ErrTransportClosed
	case <-ctx.Done():
		return fmt.Errorf("context cancelled while waiting for group join: %w", ctx.Err())
	case <-time.After(joinTimeout):
		return fmt.Errorf("timeout waiting for group join")
	}
}

// Leave removes this client from its group.
func (t *WebsocketTransport) Leave(_ context.Context) error {
	return t.send(msgLeaveGroup, nil)
}

// SendReady sends a readiness report.
func (t *WebsocketTransport) SendReady(_ context.Context, report ports.ReadyReport) error {
	return t.send(msgReady, newReadyDTO(report))
}

// Close closes the connection and waits for the background loops to exit.
func (t *WebsocketTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)

		t.writeMu.Lock()
		_ = t.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeTimeout),
		)
		t.writeMu.Unlock()

		err = t.conn.Close()
	})
	t.wg.Wait()
	return err
}

func (t *WebsocketTransport) send(messageType string, data any) error {
	select {
	case <-t.done:
		return ErrTransportClosed
	default:
	}

	msg := envelope{
		MessageID:   uuid.NewString(),
		MessageType: messageType,
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encode %s: %w", messageType, err)
		}
		msg.Data = raw
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if err := t.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	if err := t.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("send %s: %w", messageType, err)
	}
	return nil
}

func (t *WebsocketTransport) readLoop() {
	defer t.wg.Done()

	for {
		var msg envelope
		if err := t.conn.ReadJSON(&msg); err != nil {
			select {
			case <-t.done:
			default:
				slog.Warn("group server connection lost", "guild", t.guildID, "error", err)
				t.failJoin(ErrTransportClosed)
			}
			return
		}
		t.handle(msg)
	}
}

func (t *WebsocketTransport) handle(msg envelope) {
	switch msg.MessageType {
	case msgGroupUpdate:
		var update groupUpdateDTO
		if err := json.Unmarshal(msg.Data, &update); err != nil {
			slog.Warn("failed to decode group update", "guild", t.guildID, "error", err)
			return
		}
		t.handleGroupUpdate(update)

	case msgCommand:
		var cmd commandDTO
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			slog.Warn("failed to decode playback command", "guild", t.guildID, "error", err)
			return
		}
		t.publish(domain.PlaybackCommandReceivedEvent{
			GuildID: t.guildID,
			Command: cmd.toDomain(),
		})

	case msgTimeSyncResponse:
		var resp timeSyncResponseDTO
		if err := json.Unmarshal(msg.Data, &resp); err != nil {
			slog.Warn("failed to decode time sync response", "guild", t.guildID, "error", err)
			return
		}
		t.clock.Observe(resp.RequestSent, resp.RequestReception, resp.ResponseTransmission, time.Now())

	case msgKeepAlive:
		if err := t.send(msgKeepAlive, nil); err != nil {
			slog.Debug("failed to answer keep alive", "guild", t.guildID, "error", err)
		}

	default:
		slog.Debug("ignoring message", "guild", t.guildID, "type", msg.MessageType)
	}
}

func (t *WebsocketTransport) handleGroupUpdate(update groupUpdateDTO) {
	switch update.Type {
	case groupUpdatePlayQueue:
		var queue playQueueDTO
		if err := json.Unmarshal(update.Data, &queue); err != nil {
			slog.Warn("failed to decode play queue", "guild", t.guildID, "error", err)
			return
		}
		t.publish(domain.QueueUpdateReceivedEvent{
			GuildID: t.guildID,
			Update:  queue.toDomain(),
		})

	case groupUpdateGroupJoined:
		t.resolveJoin(update.GroupID, nil)

	case groupUpdateGroupDoesNotExist:
		t.resolveJoin(update.GroupID, ErrGroupDoesNotExist)

	case groupUpdateLibraryAccess:
		t.resolveJoin(update.GroupID, ErrJoinRejected)

	case groupUpdateGroupLeft, groupUpdateNotInGroup:
		slog.Info("group server reports client not in group", "guild", t.guildID, "type", update.Type)

	default:
		slog.Debug("ignoring group update", "guild", t.guildID, "type", update.Type)
	}
}

func (t *WebsocketTransport) resolveJoin(groupID string, err error) {
	t.joinMu.Lock()
	defer t.joinMu.Unlock()

	if t.join == nil {
		return
	}
	if groupID != "" && groupID != t.join.groupID {
		return
	}
	select {
	case t.join.result <- err:
	default:
	}
}

func (t *WebsocketTransport) failJoin(err error) {
	t.resolveJoin("", err)
}

func (t *WebsocketTransport) publish(event domain.Event) {
	if err := t.publisher.Publish(event); err != nil {
		slog.Warn("failed to publish inbound event", "guild", t.guildID, "error", err)
	}
}

func (t *WebsocketTransport) timeSyncLoop() {
	defer t.wg.Done()

	ticker := time.NewTicker(timeSyncInterval)
	defer ticker.Stop()

	for {
		if err := t.send(msgTimeSyncRequest, timeSyncRequestDTO{RequestSent: time.Now().UTC()}); err != nil {
			slog.Debug("failed to send time sync request", "guild", t.guildID, "error", err)
		}

		select {
		case <-t.done:
			return
		case <-ticker.C:
		}
	}
}

// Ensure WebsocketTransport implements ports.GroupTransport.
var _ ports.GroupTransport = (*WebsocketTransport)(nil)
