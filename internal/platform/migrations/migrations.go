// Package migrations embeds the schema for each supported database and applies
// it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql sqlite/*.sql
var embedded embed.FS

// Supported driver names, matching config.DatabaseConfig.Driver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Migrator applies the embedded migrations for one database.
type Migrator struct {
	provider *goose.Provider
	logger   *slog.Logger
}

// Status describes one migration and whether it has been applied.
type Status struct {
	Version int64
	Path    string
	Applied bool
}

// New creates a Migrator for driver on db.
func New(driver string, db *sql.DB, logger *slog.Logger) (*Migrator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "migrations"), slog.String("driver", driver))

	var dialect goose.Dialect
	switch driver {
	case DriverPostgres:
		dialect = goose.DialectPostgres
	case DriverSQLite:
		dialect = goose.DialectSQLite3
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	fsys, err := fs.Sub(embedded, driver)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(dialect, db, fsys, goose.WithLogger(&slogGooseLogger{logger: logger}))
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}

	return &Migrator{provider: provider, logger: logger}, nil
}

// Up applies every pending migration and returns how many ran.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	results, err := m.provider.Up(ctx)
	for _, r := range results {
		m.logResult(r)
	}
	if err != nil {
		return len(results), fmt.Errorf("failed to apply migrations: %w", err)
	}
	return len(results), nil
}

// Down rolls back the most recent migration.
func (m *Migrator) Down(ctx context.Context) error {
	result, err := m.provider.Down(ctx)
	if result != nil {
		m.logResult(result)
	}
	if err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	return nil
}

// Reset rolls back every applied migration.
func (m *Migrator) Reset(ctx context.Context) error {
	results, err := m.provider.DownTo(ctx, 0)
	for _, r := range results {
		m.logResult(r)
	}
	if err != nil {
		return fmt.Errorf("failed to reset migrations: %w", err)
	}
	return nil
}

// Version returns the current schema version, 0 for an empty database.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	v, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

// Status lists every known migration in version order.
func (m *Migrator) Status(ctx context.Context) ([]Status, error) {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration status: %w", err)
	}

	out := make([]Status, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, Status{
			Version: s.Source.Version,
			Path:    s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}

func (m *Migrator) logResult(r *goose.MigrationResult) {
	if r == nil || r.Source == nil {
		return
	}
	if r.Error != nil {
		m.logger.Error("migration failed",
			slog.Int64("version", r.Source.Version),
			slog.String("direction", r.Direction),
			slog.String("error", r.Error.Error()))
		return
	}
	m.logger.Info("migration applied",
		slog.Int64("version", r.Source.Version),
		slog.String("direction", r.Direction),
		slog.Int64("duration_ms", r.Duration.Milliseconds()))
}

// slogGooseLogger adapts the goose logger interface to slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

func (l *slogGooseLogger) Printf(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}

// Fatalf logs at error level without exiting.
func (l *slogGooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...))
}
