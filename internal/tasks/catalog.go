package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/singsync/internal/cache"
	"github.com/desertthunder/singsync/internal/models"
	"github.com/desertthunder/singsync/internal/repositories"
	"github.com/desertthunder/singsync/internal/shared"
)

// SongReader reads the catalog. Implemented by repositories.SongRepository.
type SongReader interface {
	Get(id string) (*models.Song, error)
	Page(page, limit int) ([]*models.Song, error)
	Search(query string, limit int) ([]*models.Song, error)
}

// Catalog serves song listings and single songs through a read-through cache.
type Catalog struct {
	songs       SongReader
	cache       cache.Cache
	pageSize    int
	searchLimit int
	logger      *log.Logger
}

// NewCatalog creates a catalog reader. A nil cache disables caching; non-positive sizes fall
// back to [repositories.DefaultPageSize].
func NewCatalog(songs SongReader, c cache.Cache, cfg shared.CatalogConfig, logger *log.Logger) *Catalog {
	if c == nil {
		c = cache.Nop{}
	}
	if logger == nil {
		logger = log.Default()
	}
	if cfg.PageSize < 1 {
		cfg.PageSize = repositories.DefaultPageSize
	}
	if cfg.SearchLimit < 1 {
		cfg.SearchLimit = repositories.DefaultPageSize
	}
	return &Catalog{songs: songs, cache: c, pageSize: cfg.PageSize, searchLimit: cfg.SearchLimit, logger: logger}
}

// PageSize is the limit used when a caller passes none.
func (c *Catalog) PageSize() int { return c.pageSize }

// Songs returns one page of songs, newest first. page is 1-based.
func (c *Catalog) Songs(ctx context.Context, page, limit int) ([]*models.Song, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = c.pageSize
	}

	return c.readThrough(ctx, cache.PageKey(page, limit), func() ([]*models.Song, error) {
		return c.songs.Page(page, limit)
	})
}

// Search matches query against titles and artists; an empty query yields no songs.
func (c *Catalog) Search(ctx context.Context, query string) ([]*models.Song, error) {
	if shared.NormalizeSearchKey(query) == "" {
		return []*models.Song{}, nil
	}

	return c.readThrough(ctx, cache.SearchKey(query, c.searchLimit), func() ([]*models.Song, error) {
		return c.songs.Search(query, c.searchLimit)
	})
}

// Song returns one song by ID through the cache. Lookups that fail are not cached.
func (c *Catalog) Song(ctx context.Context, id string) (*models.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := cache.SongKey(id)
	var record models.SongRecord
	switch err := c.cache.Get(ctx, key, &record); {
	case err == nil:
		c.logger.Debug("catalog cache hit", "key", key)
		return record.Song(), nil
	case !errors.Is(err, cache.ErrMiss):
		c.logger.Warn("catalog cache read failed", "key", key, "error", err)
	}

	song, err := c.songs.Get(id)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, song.Record()); err != nil {
		c.logger.Warn("catalog cache write failed", "key", key, "error", err)
	}
	return song, nil
}

// readThrough serves key from the cache or loads and stores it.
//
// A load that overlaps a catalog write may store a result from before the write after the
// writer invalidated the prefix. Cache entries expire, which bounds how long that lasts.
func (c *Catalog) readThrough(ctx context.Context, key string, load func() ([]*models.Song, error)) ([]*models.Song, error) {
	var records []models.SongRecord
	switch err := c.cache.Get(ctx, key, &records); {
	case err == nil:
		c.logger.Debug("catalog cache hit", "key", key)
		return fromRecords(records), nil
	case !errors.Is(err, cache.ErrMiss):
		c.logger.Warn("catalog cache read failed", "key", key, "error", err)
	}

	songs, err := load()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	records = make([]models.SongRecord, len(songs))
	for i, s := range songs {
		records[i] = s.Record()
	}
	if err := c.cache.Set(ctx, key, records); err != nil {
		c.logger.Warn("catalog cache write failed", "key", key, "error", err)
	}
	return songs, nil
}

func fromRecords(records []models.SongRecord) []*models.Song {
	songs := make([]*models.Song, len(records))
	for i, r := range records {
		songs[i] = r.Song()
	}
	return songs
}
