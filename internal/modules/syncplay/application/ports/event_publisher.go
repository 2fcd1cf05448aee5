package ports

import "github.com/sglre6355/syncbot/internal/modules/syncplay/domain"

// EventPublisher defines the interface for publishing events asynchronously.
type EventPublisher interface {
	Publish(event domain.Event) error
}
