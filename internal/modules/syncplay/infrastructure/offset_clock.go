package infrastructure

import (
	"sync"
	"time"

	"github.com/sglre6355/syncbot/internal/modules/syncplay/application/ports"
)

// OffsetClock maps local time to group time using an offset measured
// against the authority.
type OffsetClock struct {
	mu     sync.RWMutex
	offset time.Duration
	rtt    time.Duration
}

// NewOffsetClock creates an OffsetClock with a zero offset.
func NewOffsetClock() *OffsetClock {
	return &OffsetClock{}
}

// LocalToGroup converts a local time to group time.
func (c *OffsetClock) LocalToGroup(local time.Time) time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return local.Add(c.offset)
}

// GroupToLocal converts a group time to local time.
func (c *OffsetClock) GroupToLocal(group time.Time) time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return group.Add(-c.offset)
}

// Offset returns the current offset and the round trip of the measurement it came from.
func (c *OffsetClock) Offset() (offset, rtt time.Duration) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offset, c.rtt
}

// Observe records one ping exchange: the local send and receive times and the
// server's receive and transmit times. A measurement whose round trip is more
// than twice the current one is discarded.
func (c *OffsetClock) Observe(sent, serverReceived, serverSent, received time.Time) {
	rtt := received.Sub(sent) - serverSent.Sub(serverReceived)
	if rtt < 0 {
		rtt = 0
	}
	offset := (serverReceived.Sub(sent) + serverSent.Sub(received)) / 2

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rtt == 0 || rtt <= c.rtt*2 {
		c.offset = offset
		c.rtt = rtt
	}
}

// Ensure OffsetClock implements ports.ClockSync.
var _ ports.ClockSync = (*OffsetClock)(nil)
