package usecases

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/application/ports"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/domain"
)

var baseTime = time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

const testGuildID = snowflake.ID(1)

func slot(n byte) domain.SlotID {
	return domain.SlotID(uuid.UUID{0: 0x51, 15: n})
}

func media(n byte) domain.MediaItemID {
	return domain.MediaItemID(uuid.UUID{0: 0x4d, 15: n})
}

// queueUpdate builds an update at baseTime+at whose entries are the given
// slot numbers, each holding the media item with the same number.
func queueUpdate(
	at time.Duration,
	reason domain.Reason,
	playingIndex int,
	slots ...byte,
) domain.PlayQueueUpdate {
	entries := make([]domain.QueueEntry, len(slots))
	for i, n := range slots {
		entries[i] = domain.QueueEntry{SlotID: slot(n), MediaItemID: media(n)}
	}
	return domain.PlayQueueUpdate{
		LastUpdate:    baseTime.Add(at),
		Entries:       entries,
		PlayingIndex:  playingIndex,
		Reason:        reason,
		StartPosition: domain.Ticks(10 * domain.TicksPerSecond),
		RepeatMode:    domain.RepeatNone,
		ShuffleMode:   domain.ShuffleSorted,
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type mockCatalog struct {
	mu    sync.Mutex
	err   error
	calls int
	// gates blocks the fetch of a media item until its channel is closed.
	gates map[domain.MediaItemID]chan struct{}
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{gates: make(map[domain.MediaItemID]chan struct{})}
}

func (m *mockCatalog) gate(id domain.MediaItemID) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan struct{})
	m.gates[id] = ch
	return ch
}

func (m *mockCatalog) ResolveItems(
	ctx context.Context,
	ids []domain.MediaItemID,
) ([]domain.Item, error) {
	m.mu.Lock()
	m.calls++
	err := m.err
	var gates []chan struct{}
	for _, id := range ids {
		if ch, ok := m.gates[id]; ok {
			gates = append(gates, ch)
		}
	}
	m.mu.Unlock()

	for _, ch := range gates {
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, err
	}

	items := make([]domain.Item, len(ids))
	for i, id := range ids {
		items[i] = domain.Item{
			ID:       id,
			Name:     "item " + id.String(),
			Source:   "source-" + id.String(),
			Duration: 3 * time.Minute,
		}
	}
	return items, nil
}

func (m *mockCatalog) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockPlayer struct {
	mu sync.Mutex

	calls    []string
	switches []domain.SlotID
	starts   []ports.PlaybackRequest
	seeks    []domain.Ticks

	startErr    error
	switchErr   error
	position    domain.Ticks
	positionErr error
	playing     bool
	repeatMode  domain.RepeatMode
	shuffleMode domain.ShuffleMode

	// onStart runs after a successful StartPlayback.
	onStart func()
	// switchGate, when set, holds SwitchToSlot until it is closed.
	switchGate chan struct{}
}

func (m *mockPlayer) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockPlayer) NotifyQueueChanged(_ context.Context, _ domain.Playlist) {
	m.record("notify")
}

func (m *mockPlayer) SwitchToSlot(_ context.Context, slotID domain.SlotID) error {
	m.mu.Lock()
	m.calls = append(m.calls, "switch")
	m.switches = append(m.switches, slotID)
	err := m.switchErr
	gate := m.switchGate
	m.switchGate = nil
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return err
}

func (m *mockPlayer) PauseLocally(_ context.Context) error {
	m.record("pause")
	return nil
}

func (m *mockPlayer) ResumeLocally(_ context.Context) error {
	m.record("resume")
	return nil
}

func (m *mockPlayer) SeekLocally(_ context.Context, position domain.Ticks) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "seek")
	m.seeks = append(m.seeks, position)
	return nil
}

func (m *mockPlayer) StopLocally(_ context.Context) error {
	m.record("stop")
	return nil
}

func (m *mockPlayer) StartPlayback(_ context.Context, req ports.PlaybackRequest) error {
	m.mu.Lock()
	m.calls = append(m.calls, "start")
	m.starts = append(m.starts, req)
	err := m.startErr
	onStart := m.onStart
	m.mu.Unlock()

	if err == nil && onStart != nil {
		onStart()
	}
	return err
}

func (m *mockPlayer) SetRepeatMode(_ context.Context, mode domain.RepeatMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "repeat:"+string(mode))
	m.repeatMode = mode
	return nil
}

func (m *mockPlayer) SetShuffleMode(_ context.Context, mode domain.ShuffleMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "shuffle:"+string(mode))
	m.shuffleMode = mode
	return nil
}

func (m *mockPlayer) Modes() (domain.RepeatMode, domain.ShuffleMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.repeatMode, m.shuffleMode
}

func (m *mockPlayer) CurrentPosition(_ context.Context) (domain.Ticks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "position")
	return m.position, m.positionErr
}

func (m *mockPlayer) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

func (m *mockPlayer) callLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

func (m *mockPlayer) count(call string) int {
	n := 0
	for _, c := range m.callLog() {
		if c == call {
			n++
		}
	}
	return n
}

func (m *mockPlayer) switchedTo() []domain.SlotID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.switches)
}

func (m *mockPlayer) startRequests() []ports.PlaybackRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.starts)
}

type mockSession struct {
	mu          sync.Mutex
	following   bool
	followErr   error
	follows     int
	halts       int
	lastCommand *domain.PlaybackCommand
}

func (m *mockSession) IsFollowing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.following
}

func (m *mockSession) Follow(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.follows++
	if m.followErr != nil {
		return m.followErr
	}
	m.following = true
	return nil
}

func (m *mockSession) Halt(_ context.Context, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.halts++
	m.following = false
}

func (m *mockSession) LastCommand() *domain.PlaybackCommand {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCommand
}

func (m *mockSession) haltCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.halts
}

// fakeClock places the group clock a fixed offset ahead of local time.
type fakeClock struct {
	offset time.Duration
}

func (c fakeClock) LocalToGroup(local time.Time) time.Time {
	return local.Add(c.offset)
}

func (c fakeClock) GroupToLocal(group time.Time) time.Time {
	return group.Add(-c.offset)
}

// fakeEstimator returns lastKnown plus a fixed advance and records its inputs.
type fakeEstimator struct {
	mu      sync.Mutex
	advance domain.Ticks
	calls   []estimateCall
}

type estimateCall struct {
	lastKnown domain.Ticks
	asOf      time.Time
}

func (e *fakeEstimator) EstimatePositionNow(lastKnown domain.Ticks, asOf time.Time) domain.Ticks {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, estimateCall{lastKnown: lastKnown, asOf: asOf})
	return lastKnown + e.advance
}

func (e *fakeEstimator) lastCall() (estimateCall, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.calls) == 0 {
		return estimateCall{}, false
	}
	return e.calls[len(e.calls)-1], true
}

type mockSender struct {
	mu      sync.Mutex
	reports []ports.ReadyReport
	err     error
	// log receives "ready" on every send so ordering against player calls can be checked.
	log func(string)
}

func (m *mockSender) SendReady(_ context.Context, report ports.ReadyReport) error {
	m.mu.Lock()
	m.reports = append(m.reports, report)
	log := m.log
	m.mu.Unlock()
	if log != nil {
		log("ready")
	}
	return m.err
}

func (m *mockSender) sent() []ports.ReadyReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.reports)
}

type mockNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (m *mockNotifier) NotifyFailure(_ snowflake.ID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, message)
	return nil
}

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

type coreFixture struct {
	core      *QueueCore
	catalog   *mockCatalog
	player    *mockPlayer
	session   *mockSession
	estimator *fakeEstimator
	sender    *mockSender
	notifier  *mockNotifier
}

// newCoreFixture creates a QueueCore following its group, closed on cleanup.
func newCoreFixture(t *testing.T, readyTimeout time.Duration) *coreFixture {
	t.Helper()

	f := &coreFixture{
		catalog:   newMockCatalog(),
		player:    &mockPlayer{position: domain.Ticks(12 * domain.TicksPerSecond)},
		session:   &mockSession{following: true},
		estimator: &fakeEstimator{advance: domain.Ticks(domain.TicksPerSecond)},
		sender:    &mockSender{},
		notifier:  &mockNotifier{},
	}
	f.sender.log = f.player.record

	f.core = NewQueueCore(
		QueueCoreConfig{
			GuildID:      testGuildID,
			ServerID:     "server-1",
			ReadyTimeout: readyTimeout,
		},
		QueueCoreDependencies{
			Catalog:   f.catalog,
			Player:    f.player,
			Session:   f.session,
			Clock:     fakeClock{offset: 250 * time.Millisecond},
			Estimator: f.estimator,
			Sender:    f.sender,
			Notifier:  f.notifier,
		},
	)
	t.Cleanup(f.core.Close)

	return f
}

func (f *coreFixture) apply(t *testing.T, update domain.PlayQueueUpdate) {
	t.Helper()
	if err := f.core.ApplyQueueUpdate(context.Background(), update); err != nil {
		t.Fatalf("unexpected error applying %s update: %v", update.Reason, err)
	}
}

type mockTransport struct {
	mu       sync.Mutex
	joinErr  error
	joins    []string
	leaves   int
	closed   int
	reports  []ports.ReadyReport
	joinGate chan struct{}
}

func (m *mockTransport) Join(ctx context.Context, groupID string) error {
	m.mu.Lock()
	m.joins = append(m.joins, groupID)
	gate := m.joinGate
	err := m.joinErr
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (m *mockTransport) Leave(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaves++
	return nil
}

func (m *mockTransport) SendReady(_ context.Context, report ports.ReadyReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, report)
	return nil
}

func (m *mockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return nil
}

func (m *mockTransport) joinCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.joins)
}

type mockEventPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (m *mockEventPublisher) Publish(event domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockEventPublisher) published() []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.events)
}

type mockRepository struct {
	mu      sync.Mutex
	records map[snowflake.ID]domain.SessionRecord
	saveErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{records: make(map[snowflake.ID]domain.SessionRecord)}
}

var errRecordNotFound = errors.New("record not found")

func (m *mockRepository) Get(_ context.Context, guildID snowflake.ID) (domain.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[guildID]
	if !ok {
		return domain.SessionRecord{}, errRecordNotFound
	}
	return record, nil
}

func (m *mockRepository) Save(_ context.Context, record domain.SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records[record.GuildID] = record
	return nil
}

func (m *mockRepository) Delete(_ context.Context, guildID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, guildID)
	return nil
}

type mockVoiceConnection struct {
	mu       sync.Mutex
	joinErr  error
	joined   []snowflake.ID
	leftFrom []snowflake.ID
}

func (m *mockVoiceConnection) JoinChannel(_ context.Context, _, channelID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.joinErr != nil {
		return m.joinErr
	}
	m.joined = append(m.joined, channelID)
	return nil
}

func (m *mockVoiceConnection) LeaveChannel(_ context.Context, guildID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leftFrom = append(m.leftFrom, guildID)
	return nil
}

type mockVoiceStateProvider struct {
	channels map[snowflake.ID]snowflake.ID // userID -> channelID
	err      error
}

func (m *mockVoiceStateProvider) GetUserVoiceChannel(
	_, userID snowflake.ID,
) (snowflake.ID, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.channels[userID], nil
}

type mockDialer struct {
	transport *mockTransport
	err       error
	dials     int
}

func (m *mockDialer) Dial(_ context.Context, _ snowflake.ID) (ports.GroupTransport, error) {
	m.dials++
	if m.err != nil {
		return nil, m.err
	}
	return m.transport, nil
}

type mockPlayerProvider struct {
	player *mockPlayer
}

func (m *mockPlayerProvider) Player(_ snowflake.ID) ports.PlayerAdapter {
	return m.player
}

// Compile-time checks that the mocks satisfy their ports.
var (
	_ ports.ItemCatalog        = (*mockCatalog)(nil)
	_ ports.PlayerAdapter      = (*mockPlayer)(nil)
	_ ports.SessionController  = (*mockSession)(nil)
	_ ports.ClockSync          = fakeClock{}
	_ ports.PositionEstimator  = (*fakeEstimator)(nil)
	_ ports.ReadySender        = (*mockSender)(nil)
	_ ports.Notifier           = (*mockNotifier)(nil)
	_ ports.GroupTransport     = (*mockTransport)(nil)
	_ ports.EventPublisher     = (*mockEventPublisher)(nil)
	_ domain.SessionRepository = (*mockRepository)(nil)
	_ ports.VoiceConnection    = (*mockVoiceConnection)(nil)
	_ ports.VoiceStateProvider = (*mockVoiceStateProvider)(nil)
	_ ports.TransportDialer    = (*mockDialer)(nil)
	_ ports.PlayerProvider     = (*mockPlayerProvider)(nil)
)

