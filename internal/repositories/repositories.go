// package repositories provides SQLite persistence for the catalog search cache.
package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrCacheMiss is returned when no fresh entry exists for a key.
var ErrCacheMiss = errors.New("cache miss")

// scanner is satisfied by [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

func unix(t time.Time) int64 {
	return t.UTC().Unix()
}

func fromUnix(s int64) time.Time {
	return time.Unix(s, 0).UTC()
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n, nil
}
