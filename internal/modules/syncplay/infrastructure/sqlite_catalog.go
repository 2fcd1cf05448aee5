package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sglre6355/syncbot/internal/modules/syncplay/application/ports"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/domain"

	_ "modernc.org/sqlite"
)

var (
	// ErrItemNotFound is returned when a media item is in neither the cache nor the upstream catalog.
	ErrItemNotFound = errors.New("media item not found")
	// ErrItemUnplayable is returned for an item the player has nothing to load for.
	ErrItemUnplayable = errors.New("media item is not playable")
)

// StreamSource builds the URL the audio player loads an item from.
type StreamSource interface {
	StreamURL(id domain.MediaItemID) string
}

// SQLiteCatalogConfig configures a SQLiteCatalog.
type SQLiteCatalogConfig struct {
	Path string
	// TTL is how long cached metadata is served before it is fetched again.
	// Zero keeps it forever.
	TTL time.Duration
}

// SQLiteCatalog resolves media items from a local SQLite cache and fetches
// missing or expired ones from an upstream catalog. Only metadata is cached;
// stream URLs carry credentials and are built at resolve time.
type SQLiteCatalog struct {
	db       *sql.DB
	ttl      time.Duration
	upstream ports.ItemCatalog
	sources  StreamSource
	now      func() time.Time
}

// NewSQLiteCatalog opens (or creates) the catalog database at cfg.Path.
// upstream may be nil, in which case only cached items resolve.
func NewSQLiteCatalog(
	cfg SQLiteCatalogConfig,
	upstream ports.ItemCatalog,
	sources StreamSource,
) (*SQLiteCatalog, error) {
	if sources == nil {
		return nil, errors.New("stream source is required")
	}

	dsn := cfg.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	if cfg.Path == ":memory:" {
		dsn = cfg.Path
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	// A single connection keeps an in-memory database shared and serializes writes.
	db.SetMaxOpenConns(1)

	c := &SQLiteCatalog{
		db:       db,
		ttl:      cfg.TTL,
		upstream: upstream,
		sources:  sources,
		now:      time.Now,
	}
	if err := c.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate catalog db: %w", err)
	}
	return c, nil
}

// Close closes the database connection.
func (c *SQLiteCatalog) Close() error { return c.db.Close() }

func (c *SQLiteCatalog) migrate() error {
	// The items table of earlier versions stored stream URLs with the api key.
	_, err := c.db.Exec(`
	DROP TABLE IF EXISTS items;
	CREATE TABLE IF NOT EXISTS item_metadata (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		artist      TEXT NOT NULL DEFAULT '',
		album       TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL DEFAULT 0,
		is_stream   INTEGER NOT NULL DEFAULT 0,
		updated_at  INTEGER NOT NULL
	);`)
	return err
}

// ResolveItems returns one item per id, in the order of ids.
//
// When the upstream catalog fails, expired entries are still served; items
// that were never cached make the call fail.
func (c *SQLiteCatalog) ResolveItems(
	ctx context.Context,
	ids []domain.MediaItemID,
) ([]domain.Item, error) {
	found := make(map[domain.MediaItemID]domain.Item, len(ids))
	expired := make(map[domain.MediaItemID]domain.Item)
	var missing []domain.MediaItemID

	for _, id := range ids {
		if _, ok := found[id]; ok {
			continue
		}
		item, updatedAt, err := c.get(ctx, id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			missing = append(missing, id)
			// Placeholder so duplicates are only requested once.
			found[id] = domain.Item{}
		case err != nil:
			return nil, fmt.Errorf("read item %s: %w", id, err)
		case c.expired(updatedAt):
			missing = append(missing, id)
			found[id] = item
			expired[id] = item
		default:
			found[id] = item
		}
	}

	if len(missing) > 0 {
		if err := c.fetch(ctx, missing, found); err != nil {
			if len(expired) < len(missing) {
				return nil, err
			}
			slog.Warn("serving expired media items", "count", len(expired), "error", err)
		}
	}

	items := make([]domain.Item, len(ids))
	for i, id := range ids {
		items[i] = found[id]
	}
	return items, nil
}

// fetch resolves missing upstream, stores the results in found and caches them.
func (c *SQLiteCatalog) fetch(
	ctx context.Context,
	missing []domain.MediaItemID,
	found map[domain.MediaItemID]domain.Item,
) error {
	if c.upstream == nil {
		return fmt.Errorf("%w: %s", ErrItemNotFound, missing[0])
	}
	fetched, err := c.upstream.ResolveItems(ctx, missing)
	if err != nil {
		return err
	}
	if len(fetched) != len(missing) {
		return fmt.Errorf("%w: upstream returned %d of %d items",
			ErrItemNotFound, len(fetched), len(missing))
	}
	for i, item := range fetched {
		item.ID = missing[i]
		item.Source = c.sources.StreamURL(item.ID)
		found[item.ID] = item
		if err := c.Put(ctx, item); err != nil {
			slog.Warn("failed to cache media item", "item", item.ID, "error", err)
		}
	}
	return nil
}

func (c *SQLiteCatalog) expired(updatedAt time.Time) bool {
	return c.ttl > 0 && c.now().Sub(updatedAt) > c.ttl
}

// Put inserts or replaces the metadata of an item. The item's Source is not stored.
func (c *SQLiteCatalog) Put(ctx context.Context, item domain.Item) error {
	isStream := 0
	if item.IsStream {
		isStream = 1
	}
	_, err := c.db.ExecContext(ctx, `
	INSERT INTO item_metadata (id, name, artist, album, duration_ms, is_stream, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		artist = excluded.artist,
		album = excluded.album,
		duration_ms = excluded.duration_ms,
		is_stream = excluded.is_stream,
		updated_at = excluded.updated_at`,
		item.ID.String(),
		item.Name,
		item.Artist,
		item.Album,
		item.Duration.Milliseconds(),
		isStream,
		c.now().Unix(),
	)
	return err
}

func (c *SQLiteCatalog) get(
	ctx context.Context,
	id domain.MediaItemID,
) (domain.Item, time.Time, error) {
	var (
		item       domain.Item
		durationMs int64
		isStream   int
		updatedAt  int64
	)
	err := c.db.QueryRowContext(ctx, `
	SELECT name, artist, album, duration_ms, is_stream, updated_at
	FROM item_metadata WHERE id = ?`, id.String()).Scan(
		&item.Name,
		&item.Artist,
		&item.Album,
		&durationMs,
		&isStream,
		&updatedAt,
	)
	if err != nil {
		return domain.Item{}, time.Time{}, err
	}
	item.ID = id
	item.Duration = time.Duration(durationMs) * time.Millisecond
	item.IsStream = isStream != 0
	item.Source = c.sources.StreamURL(id)
	return item, time.Unix(updatedAt, 0), nil
}

// Ensure SQLiteCatalog implements ports.ItemCatalog.
var _ ports.ItemCatalog = (*SQLiteCatalog)(nil)
