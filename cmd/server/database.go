package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/taskman/internal/config"
	"github.com/phrazzld/taskman/internal/platform/migrations"
	"github.com/phrazzld/taskman/internal/platform/sqlite"
)

// connectTimeout bounds the initial connection and ping.
const connectTimeout = 5 * time.Second

// setupAppDatabase opens the configured database and verifies the connection.
// Postgres uses the pgx stdlib driver with the configured pool limits; SQLite
// keeps its single-connection pool.
func setupAppDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	switch cfg.Driver {
	case migrations.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database connection: %w", err)
		}
		logger.Info("database connection established", slog.String("driver", cfg.Driver))
		return db, nil

	case migrations.DriverPostgres:
		db, err := sql.Open("pgx", cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database connection: %w", err)
		}

		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		logger.Info("database connection established", slog.String("driver", cfg.Driver))
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
