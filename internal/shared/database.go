package shared

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// NewDatabase opens a SQLite database at path and verifies the connection.
// The path can be ":memory:" for an in-memory database.
func NewDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ConfigureDatabase applies pool limits from cfg. SQLite only tolerates a single
// writer, so zero or negative limits fall back to one connection.
func ConfigureDatabase(db *sql.DB, cfg DatabaseConfig) {
	open, idle := cfg.MaxOpenConns, cfg.MaxIdleConns
	if open <= 0 {
		open = 1
	}
	if idle <= 0 {
		idle = 1
	}
	db.SetMaxOpenConns(open)
	db.SetMaxIdleConns(idle)
}

// OpenCacheDatabase opens the database named in cfg, configures its pool, and
// brings the schema up to date.
func OpenCacheDatabase(ctx context.Context, cfg DatabaseConfig) (*sql.DB, error) {
	db, err := NewDatabase(cfg.Path)
	if err != nil {
		return nil, err
	}
	ConfigureDatabase(db, cfg)

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}
