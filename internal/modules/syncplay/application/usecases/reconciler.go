package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/sglre6355/syncbot/internal/modules/syncplay/domain"
)

// Reconcile accepts update into the queue state and returns the snapshot it
// replaced.
//
// The ordering check runs twice: before resolving items and again when
// committing, because a newer update may have been committed while the
// catalog fetch was in flight. In that case the fetched items are discarded
// and ErrSuperseded is returned.
func (c *QueueCore) Reconcile(
	ctx context.Context,
	update *domain.PlayQueueUpdate,
) (domain.Snapshot, error) {
	c.mu.Lock()
	accepts := c.state.Accepts(update)
	c.mu.Unlock()

	if !accepts {
		return domain.Snapshot{}, ErrStaleUpdate
	}

	var items []domain.Item
	if len(update.Entries) > 0 {
		resolved, err := c.catalog.ResolveItems(ctx, update.MediaItemIDs())
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("%w: %w", ErrCatalogResolution, err)
		}
		items = resolved
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next, prev, err := c.state.Commit(update, items)
	switch {
	case errors.Is(err, domain.ErrStaleUpdate):
		return domain.Snapshot{}, ErrSuperseded
	case err != nil:
		return domain.Snapshot{}, fmt.Errorf("%w: %w", ErrCatalogResolution, err)
	}

	c.state = next
	if update.Reason == domain.ReasonNewPlaylist {
		c.newPlaylistAt = update.LastUpdate
	}
	return prev, nil
}
