package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/snaptunes/internal/repositories"
)

func (r *Runner) searchCache(ctx context.Context) (*repositories.SearchCacheRepository, error) {
	db, err := r.database(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	return repositories.NewSearchCacheRepository(db), nil
}

// CacheStats prints the number of cached searches and their hit counts.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.searchCache(ctx)
	if err != nil {
		return err
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}

	r.writePlain("Entries: %d\n", stats.Entries)
	r.writePlain("Hits:    %d\n", stats.Hits)
	if stats.Entries > 0 {
		r.writePlain("Oldest:  %s\n", stats.Oldest.Local().Format(time.RFC3339))
		r.writePlain("Newest:  %s\n", stats.Newest.Local().Format(time.RFC3339))
	}
	return nil
}

// CacheClear deletes every cached search.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.searchCache(ctx)
	if err != nil {
		return err
	}

	n, err := repo.Clear(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("cache cleared", "entries", n)
	return r.writePlain("✓ Removed %d cached searches\n", n)
}

// CachePurge deletes cached searches older than cache.ttl.
func (r *Runner) CachePurge(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.searchCache(ctx)
	if err != nil {
		return err
	}

	n, err := repo.Purge(ctx, r.config.Cache.TTL.Duration)
	if err != nil {
		return err
	}

	r.logger.Info("cache purged", "entries", n, "ttl", r.config.Cache.TTL.Duration)
	return r.writePlain("✓ Removed %d expired searches\n", n)
}
