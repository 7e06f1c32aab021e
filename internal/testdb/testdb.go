// Package testdb provides database fixtures for tests.
//
// NewSQLite returns a migrated in-memory database and needs no external
// services. Postgres connects to the database named by TASKMAN_TEST_DATABASE_URL
// and skips the calling test when the variable is unset. WithTx runs a test body
// inside a transaction that is always rolled back, so parallel tests sharing
// one Postgres database never see each other's rows.
package testdb

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/taskman/internal/platform/migrations"
	"github.com/phrazzld/taskman/internal/platform/sqlite"
	"github.com/stretchr/testify/require"
)

// DatabaseURLEnv names the variable holding the Postgres test database URL.
const DatabaseURLEnv = "TASKMAN_TEST_DATABASE_URL"

// TestTimeout bounds setup operations against the test database.
const TestTimeout = 10 * time.Second

// GetTestDatabaseURL returns the Postgres URL for integration tests, or "".
func GetTestDatabaseURL() string {
	return os.Getenv(DatabaseURLEnv)
}

// ShouldSkipDatabaseTest reports whether Postgres integration tests cannot run.
func ShouldSkipDatabaseTest() bool {
	return GetTestDatabaseURL() == ""
}

// NewSQLite opens a private in-memory SQLite database with the schema applied.
// The database is closed when the test ends.
func NewSQLite(t testing.TB) *sql.DB {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	db, err := sqlite.Open(ctx, sqlite.MemoryPath)
	require.NoError(t, err, "open sqlite")
	t.Cleanup(func() { _ = db.Close() })

	migrate(ctx, t, migrations.DriverSQLite, db)
	return db
}

// Postgres connects to the integration database and applies pending migrations.
// It skips the test when no database is configured.
func Postgres(t testing.TB) *sql.DB {
	t.Helper()
	if ShouldSkipDatabaseTest() {
		t.Skip(DatabaseURLEnv + " not set - skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	db, err := sql.Open("pgx", GetTestDatabaseURL())
	require.NoError(t, err, "open postgres")
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.PingContext(ctx), "ping postgres")

	migrate(ctx, t, migrations.DriverPostgres, db)
	return db
}

func migrate(ctx context.Context, t testing.TB, driver string, db *sql.DB) {
	t.Helper()
	m, err := migrations.New(driver, db, nil)
	require.NoError(t, err, "create migrator")
	_, err = m.Up(ctx)
	require.NoError(t, err, "apply migrations")
}

// WithTx runs fn inside a transaction that is rolled back afterwards.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err, "begin transaction")
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			t.Errorf("rollback: %v", err)
		}
	}()

	fn(t, tx)
}
