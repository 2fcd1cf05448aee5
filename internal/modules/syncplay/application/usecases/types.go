package usecases

import (
	"github.com/sglre6355/syncbot/internal/modules/syncplay/domain"
)

// Re-export domain types for presentation layer use.
// This allows presentation to depend only on usecases without importing domain directly.

// Snapshot is an alias for domain.Snapshot.
type Snapshot = domain.Snapshot

// PlaylistItem is an alias for domain.PlaylistItem.
type PlaylistItem = domain.PlaylistItem

// SessionRepository is an alias for domain.SessionRepository.
type SessionRepository = domain.SessionRepository
