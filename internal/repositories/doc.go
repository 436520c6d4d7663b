// Package repositories implements SQLite persistence for the catalog search cache.
//
// Credentials and playlists are never stored; the only table is search_cache, created by the
// embedded migrations in the shared package.
//
// Key Implementations:
//   - [SearchCacheRepository] : upsert, TTL-bounded lookup with hit counting, purge, clear and stats
//   - [TrackCacheAdapter] : adapts the repository to the matcher's cache interface
//
// Timestamps are stored as unix seconds so age comparisons happen in SQL.
package repositories
