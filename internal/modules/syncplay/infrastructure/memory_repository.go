package infrastructure

import (
	"context"
	"errors"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/domain"
)

// ErrSessionNotFound is returned when a session record is not found.
var ErrSessionNotFound = errors.New("session not found")

// MemoryRepository is an in-memory implementation of SessionRepository.
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[snowflake.ID]domain.SessionRecord
}

// NewMemoryRepository creates a new MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		sessions: make(map[snowflake.ID]domain.SessionRecord),
	}
}

// Get returns the session for the given guild, or error if not exists.
func (r *MemoryRepository) Get(
	_ context.Context,
	guildID snowflake.ID,
) (domain.SessionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.sessions[guildID]
	if !ok {
		return domain.SessionRecord{}, ErrSessionNotFound
	}
	return record, nil
}

// Save stores the session.
func (r *MemoryRepository) Save(_ context.Context, record domain.SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[record.GuildID] = record
	return nil
}

// Delete removes the session for the given guild.
func (r *MemoryRepository) Delete(_ context.Context, guildID snowflake.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, guildID)
	return nil
}

// Count returns the number of sessions (for testing/monitoring).
func (r *MemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

// Ensure MemoryRepository implements SessionRepository.
var _ domain.SessionRepository = (*MemoryRepository)(nil)
