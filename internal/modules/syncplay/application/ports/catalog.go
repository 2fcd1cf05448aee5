package ports

import (
	"context"

	"github.com/sglre6355/syncbot/internal/modules/syncplay/domain"
)

// ItemCatalog resolves media item ids to playable metadata.
type ItemCatalog interface {
	// ResolveItems returns one Item per id, in the order of ids.
	ResolveItems(ctx context.Context, ids []domain.MediaItemID) ([]domain.Item, error)
}
