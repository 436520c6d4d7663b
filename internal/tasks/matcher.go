package tasks

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/desertthunder/snaptunes/internal/models"
	"github.com/desertthunder/snaptunes/internal/services"
	"github.com/desertthunder/snaptunes/internal/shared"
)

// TrackCacher stores found catalog matches by normalized query.
//
// Cache failures never fail a match; the matcher logs them and searches the catalog.
type TrackCacher interface {
	CachedMatch(ctx context.Context, key string) (models.MatchedTrack, bool, error)
	CacheMatch(ctx context.Context, key string, track models.MatchedTrack) error
}

// MatcherOptions configures [NewMatcher]. The zero value matches sequentially with no cache or limit.
type MatcherOptions struct {
	Cache       TrackCacher
	Limiter     *rate.Limiter
	Concurrency int
	Logger      *log.Logger
}

// Matcher resolves song candidates against the catalog.
type Matcher struct {
	catalog     services.CatalogService
	cache       TrackCacher
	limiter     *rate.Limiter
	concurrency int
	logger      *log.Logger
}

// NewMatcher creates a matcher for catalog.
func NewMatcher(catalog services.CatalogService, opts MatcherOptions) *Matcher {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Matcher{
		catalog:     catalog,
		cache:       opts.Cache,
		limiter:     opts.Limiter,
		concurrency: opts.Concurrency,
		logger:      opts.Logger,
	}
}

// NewLimiter returns a token bucket allowing rps lookups per second, or nil when rps <= 0.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// Match resolves every candidate, returning one [models.MatchedTrack] per input in input order.
//
// Individual lookup failures yield found=false entries. Only a missing credential or a
// cancelled context fails the whole call.
func (m *Matcher) Match(ctx context.Context, candidates []models.SongCandidate, cred models.Credential) ([]models.MatchedTrack, error) {
	if !cred.Valid() {
		return nil, fmt.Errorf("%w: an access token is required to search", shared.ErrNotAuthenticated)
	}
	if cred.Expired(time.Now()) {
		return nil, shared.ErrTokenExpired
	}

	results := make([]models.MatchedTrack, len(candidates))
	if len(candidates) == 0 {
		return results, nil
	}

	if m.concurrency == 1 {
		for i, c := range candidates {
			r, err := m.matchOne(ctx, c, cred)
			if err != nil {
				return nil, err
			}
			results[i] = r
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for i, c := range candidates {
		g.Go(func() error {
			r, err := m.matchOne(gctx, c, cred)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// matchOne returns an error only when ctx is done.
func (m *Matcher) matchOne(ctx context.Context, c models.SongCandidate, cred models.Credential) (models.MatchedTrack, error) {
	if err := ctx.Err(); err != nil {
		return models.MatchedTrack{}, err
	}

	query := c.Query()
	if query == "" {
		return models.NotFound(c), nil
	}
	key := shared.NormalizeQuery(query)

	if m.cache != nil {
		cached, ok, err := m.cache.CachedMatch(ctx, key)
		switch {
		case err != nil:
			m.logger.Warn("search cache lookup failed", "error", err)
		case ok:
			return cached, nil
		}
	}

	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return models.MatchedTrack{}, err
		}
	}

	track, err := m.catalog.SearchTrack(ctx, cred, query)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return models.MatchedTrack{}, ctxErr
		}
		m.logger.Warn("catalog search failed", "query", query, "error", err)
		return models.NotFound(c), nil
	}
	if track == nil || track.ID == "" {
		return models.NotFound(c), nil
	}

	matched := models.MatchedTrack{
		ID:       track.ID,
		Title:    track.Name,
		Artist:   track.ArtistNames(),
		AlbumArt: track.ArtworkURL(),
		Found:    true,
	}

	if m.cache != nil {
		if err := m.cache.CacheMatch(ctx, key, matched); err != nil {
			m.logger.Warn("search cache store failed", "error", err)
		}
	}
	return matched, nil
}

// MatchSummary counts the outcome of a match.
type MatchSummary struct {
	Total   int `json:"total"`
	Found   int `json:"found"`
	Missing int `json:"missing"`
}

// Summarize counts found and missing tracks.
func Summarize(tracks []models.MatchedTrack) MatchSummary {
	s := MatchSummary{Total: len(tracks)}
	for _, t := range tracks {
		if t.Found {
			s.Found++
		}
	}
	s.Missing = s.Total - s.Found
	return s
}

// FoundIDs returns the catalog ids of found tracks in order, optionally dropping repeats.
func FoundIDs(tracks []models.MatchedTrack, dedupe bool) []string {
	ids := make([]string, 0, len(tracks))
	seen := make(map[string]struct{})
	for _, t := range tracks {
		if !t.Found || t.ID == "" {
			continue
		}
		if dedupe {
			if _, ok := seen[t.ID]; ok {
				continue
			}
			seen[t.ID] = struct{}{}
		}
		ids = append(ids, t.ID)
	}
	return ids
}
