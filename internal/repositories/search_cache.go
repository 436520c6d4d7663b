package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/snaptunes/internal/shared"
)

// CachedTrack is one stored catalog match.
type CachedTrack struct {
	ID          string
	QueryKey    string
	TrackID     string
	TrackName   string
	ArtistNames string
	AlbumArt    string
	Hits        int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CacheStats summarizes the cache table.
type CacheStats struct {
	Entries int
	Hits    int
	Oldest  time.Time
	Newest  time.Time
}

// SearchCacheRepository stores catalog matches by normalized query.
type SearchCacheRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSearchCacheRepository creates a repository on a migrated database.
func NewSearchCacheRepository(db *sql.DB) *SearchCacheRepository {
	return &SearchCacheRepository{db: db, now: time.Now}
}

const cacheColumns = `id, query_key, track_id, track_name, artist_names, album_art, hits, created_at, updated_at`

// Get returns the entry for key updated within maxAge and counts the hit.
// maxAge <= 0 disables the age check. A missing or stale entry returns [ErrCacheMiss].
func (r *SearchCacheRepository) Get(ctx context.Context, key string, maxAge time.Duration) (*CachedTrack, error) {
	query := `SELECT ` + cacheColumns + ` FROM search_cache WHERE query_key = ?`
	args := []any{key}
	if maxAge > 0 {
		query += ` AND updated_at >= ?`
		args = append(args, unix(r.now().Add(-maxAge)))
	}

	entry, err := scanCachedTrack(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, `UPDATE search_cache SET hits = hits + 1 WHERE id = ?`, entry.ID); err != nil {
		return nil, fmt.Errorf("failed to record cache hit: %w", err)
	}
	entry.Hits++
	return entry, nil
}

// Put inserts or refreshes the entry for entry.QueryKey. A new row gets a generated id.
func (r *SearchCacheRepository) Put(ctx context.Context, entry *CachedTrack) error {
	if entry.QueryKey == "" || entry.TrackID == "" {
		return fmt.Errorf("%w: cache entry needs a query key and track id", shared.ErrInvalidInput)
	}

	now := r.now()
	if entry.ID == "" {
		entry.ID = shared.GenerateID()
	}

	query := `
		INSERT INTO search_cache (` + cacheColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT(query_key) DO UPDATE SET
			track_id = excluded.track_id,
			track_name = excluded.track_name,
			artist_names = excluded.artist_names,
			album_art = excluded.album_art,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.QueryKey,
		entry.TrackID,
		entry.TrackName,
		entry.ArtistNames,
		entry.AlbumArt,
		unix(now),
		unix(now),
	)
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}

	entry.UpdatedAt = fromUnix(unix(now))
	return nil
}

// Purge deletes entries not updated within maxAge and returns how many were removed.
func (r *SearchCacheRepository) Purge(ctx context.Context, maxAge time.Duration) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM search_cache WHERE updated_at < ?`, unix(r.now().Add(-maxAge)))
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	return rowsAffected(res)
}

// Clear deletes every entry.
func (r *SearchCacheRepository) Clear(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM search_cache`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}
	return rowsAffected(res)
}

// Stats reports entry and hit counts with the oldest and newest update times.
func (r *SearchCacheRepository) Stats(ctx context.Context) (CacheStats, error) {
	var (
		stats          CacheStats
		oldest, newest sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(hits), 0), MIN(updated_at), MAX(updated_at) FROM search_cache`,
	).Scan(&stats.Entries, &stats.Hits, &oldest, &newest)
	if err != nil {
		return CacheStats{}, fmt.Errorf("failed to read cache stats: %w", err)
	}

	if oldest.Valid {
		stats.Oldest = fromUnix(oldest.Int64)
	}
	if newest.Valid {
		stats.Newest = fromUnix(newest.Int64)
	}
	return stats, nil
}

func scanCachedTrack(row scanner) (*CachedTrack, error) {
	var (
		t                CachedTrack
		created, updated int64
	)
	err := row.Scan(&t.ID, &t.QueryKey, &t.TrackID, &t.TrackName, &t.ArtistNames, &t.AlbumArt, &t.Hits, &created, &updated)
	if err != nil {
		return nil, err
	}
	t.CreatedAt, t.UpdatedAt = fromUnix(created), fromUnix(updated)
	return &t, nil
}
