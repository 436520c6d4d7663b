package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/desertthunder/snaptunes/internal/models"
)

// TrackCacheAdapter implements tasks.TrackCacher using [SearchCacheRepository].
//
// Entries older than ttl are treated as misses; only found matches are stored.
type TrackCacheAdapter struct {
	repo *SearchCacheRepository
	ttl  time.Duration
}

// NewTrackCacheAdapter creates a new TrackCacheAdapter with the given repository
func NewTrackCacheAdapter(repo *SearchCacheRepository, ttl time.Duration) *TrackCacheAdapter {
	return &TrackCacheAdapter{repo: repo, ttl: ttl}
}

// CachedMatch returns the stored match for key.
func (a *TrackCacheAdapter) CachedMatch(ctx context.Context, key string) (models.MatchedTrack, bool, error) {
	entry, err := a.repo.Get(ctx, key, a.ttl)
	if errors.Is(err, ErrCacheMiss) {
		return models.MatchedTrack{}, false, nil
	}
	if err != nil {
		return models.MatchedTrack{}, false, err
	}

	return models.MatchedTrack{
		ID:       entry.TrackID,
		Title:    entry.TrackName,
		Artist:   entry.ArtistNames,
		AlbumArt: entry.AlbumArt,
		Found:    true,
	}, true, nil
}

// CacheMatch stores track under key. Unresolved tracks are ignored.
func (a *TrackCacheAdapter) CacheMatch(ctx context.Context, key string, track models.MatchedTrack) error {
	if !track.Found || track.ID == "" {
		return nil
	}
	return a.repo.Put(ctx, &CachedTrack{
		QueryKey:    key,
		TrackID:     track.ID,
		TrackName:   track.Title,
		ArtistNames: track.Artist,
		AlbumArt:    track.AlbumArt,
	})
}
