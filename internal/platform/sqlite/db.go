package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/jmoiron/sqlx"

	// Register the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"
)

// DriverName is the database/sql driver name registered by modernc.org/sqlite.
const DriverName = "sqlite"

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// DSN builds a modernc connection string for path with foreign keys enforced,
// a busy timeout, and times written in SQLite's own sortable layout.
func DSN(path string) string {
	params := url.Values{}
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "busy_timeout(5000)")
	if path != MemoryPath && !strings.Contains(path, "mode=memory") {
		params.Add("_pragma", "journal_mode(WAL)")
	}
	params.Set("_time_format", "sqlite")

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + params.Encode()
}

// Open connects to the database at path and verifies the connection.
// SQLite allows a single writer, so the pool is pinned to one connection;
// this also keeps every caller on the same ":memory:" database.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sqlx.ConnectContext(ctx, DriverName, DSN(path))
	if err != nil {
		return nil, fmt.Errorf("connecting to sqlite %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	return db.DB, nil
}
