package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskman/internal/config"
	"github.com/phrazzld/taskman/internal/platform/logger"
)

// loadAppConfig loads the application configuration from the config file and
// environment variables.
func loadAppConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// bootstrap loads configuration, sets up logging and opens the database.
// Every subcommand starts here.
func bootstrap(ctx context.Context, opts *rootOptions) (*config.Config, *slog.Logger, *sql.DB, error) {
	cfg, err := loadAppConfig(opts.configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver))

	db, err := setupAppDatabase(ctx, cfg.Database, log)
	if err != nil {
		return nil, nil, nil, err
	}

	return cfg, log, db, nil
}
