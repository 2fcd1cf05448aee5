package infrastructure

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"sync"

	"github.com/sglre6355/syncbot/internal/modules/syncplay/application/ports"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/domain"
)

// DefaultEventBufferSize is the default buffer size for the event channel.
const DefaultEventBufferSize = 100

var (
	// ErrEventBusClosed is returned when publishing to a closed bus.
	ErrEventBusClosed = errors.New("event bus is closed")

	// ErrEventBufferFull is returned when the event buffer is full and the event was dropped.
	ErrEventBufferFull = errors.New("event buffer full")
)

// Compile-time checks that ChannelEventBus implements ports interfaces.
var (
	_ ports.EventPublisher  = (*ChannelEventBus)(nil)
	_ ports.EventSubscriber = (*ChannelEventBus)(nil)
)

// ChannelEventBus provides a channel-based event bus for async event handling.
// Events are delivered in publish order by a single dispatcher goroutine.
type ChannelEventBus struct {
	events   chan domain.Event
	handlers map[reflect.Type][]func(context.Context, domain.Event)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	mu     sync.RWMutex
}

// NewChannelEventBus creates a new ChannelEventBus with the given buffer size.
func NewChannelEventBus(bufferSize int) *ChannelEventBus {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	bus := &ChannelEventBus{
		events:   make(chan domain.Event, bufferSize),
		handlers: make(map[reflect.Type][]func(context.Context, domain.Event)),
		ctx:      ctx,
		cancel:   cancel,
	}

	bus.wg.Add(1)
	go bus.dispatch()

	return bus
}

func (b *ChannelEventBus) dispatch() {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-b.events:
			if !ok {
				return
			}
			b.mu.RLock()
			handlers := b.handlers[reflect.TypeOf(event)]
			b.mu.RUnlock()
			for _, handler := range handlers {
				handler(b.ctx, event)
			}
		}
	}
}

// Publish publishes an event.
// Non-blocking: if the channel buffer is full, the event is dropped with a warning.
func (b *ChannelEventBus) Publish(event domain.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	eventType := reflect.TypeOf(event)

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", eventType)
		return ErrEventBusClosed
	}

	select {
	case b.events <- event:
		slog.Debug("published event", "type", eventType, "guild", event.Guild())
		return nil
	default:
		slog.Warn("event buffer full, dropping event", "type", eventType)
		return ErrEventBufferFull
	}
}

// Subscribe registers a handler for events of the given type.
func (b *ChannelEventBus) Subscribe(
	eventType reflect.Type,
	handler func(context.Context, domain.Event),
) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// Close stops the dispatcher. Events still buffered are discarded.
// After calling Close, publishing will no longer send events.
func (b *ChannelEventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.events)
	b.mu.Unlock()

	b.cancel()
	b.wg.Wait()

	slog.Debug("channel event bus closed")
}
