package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskman/internal/config"
	"github.com/phrazzld/taskman/internal/jobs"
	"github.com/phrazzld/taskman/internal/platform/migrations"
	"github.com/phrazzld/taskman/internal/platform/postgres"
	"github.com/phrazzld/taskman/internal/platform/sqlite"
	"github.com/phrazzld/taskman/internal/service"
	"github.com/phrazzld/taskman/internal/service/auth"
	"github.com/phrazzld/taskman/internal/store"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore    store.UserStore
	taskStore    store.TaskStore
	sessionStore store.SessionStore

	jwtService  auth.JWTService
	passwords   *auth.BcryptVerifier
	authService service.AuthService
	taskService service.TaskService
	userService service.UserService

	jobRunner *jobs.Runner
}

// stores bundles the three store implementations for one database driver.
type stores struct {
	users    store.UserStore
	tasks    store.TaskStore
	sessions store.SessionStore
}

// newStores picks the store implementations matching driver.
func newStores(driver string, db *sql.DB, logger *slog.Logger) (stores, error) {
	switch driver {
	case migrations.DriverPostgres:
		return stores{
			users:    postgres.NewPostgresUserStore(db, logger),
			tasks:    postgres.NewPostgresTaskStore(db, logger),
			sessions: postgres.NewPostgresSessionStore(db, logger),
		}, nil
	case migrations.DriverSQLite:
		return stores{
			users:    sqlite.NewUserStore(db, logger),
			tasks:    sqlite.NewTaskStore(db, logger),
			sessions: sqlite.NewSessionStore(db, logger),
		}, nil
	default:
		return stores{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// newApplication creates a new application instance with all dependencies initialized.
// The job runner is created but not started; Run starts it.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	st, err := newStores(cfg.Database.Driver, db, logger)
	if err != nil {
		return nil, err
	}
	app.userStore, app.taskStore, app.sessionStore = st.users, st.tasks, st.sessions

	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes),
		slog.Int("idle_timeout_minutes", cfg.Auth.IdleTimeoutMinutes))

	app.passwords = auth.NewBcryptVerifier(cfg.Auth.BCryptCost)

	app.authService, err = service.NewAuthService(
		db,
		app.userStore,
		app.sessionStore,
		app.jwtService,
		app.passwords,
		cfg.Auth,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth service: %w", err)
	}

	app.taskService, err = service.NewTaskService(db, app.taskStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	app.userService = service.NewUserService(app.userStore, logger)

	app.jobRunner = jobs.NewRunner(jobs.Config{
		WorkerCount: cfg.Jobs.WorkerCount,
		QueueSize:   cfg.Jobs.QueueSize,
	}, logger)
	sweepEvery := time.Duration(cfg.Jobs.SweepIntervalMinutes) * time.Minute
	if err := app.jobRunner.Every(jobs.TypeSessionSweep, sweepEvery,
		jobs.SessionSweepFactory(app.authService, logger)); err != nil {
		return nil, fmt.Errorf("failed to schedule session sweep: %w", err)
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// Run starts the job runner and the HTTP server and blocks until ctx is
// cancelled or either fails.
func (app *application) Run(ctx context.Context) error {
	if err := app.jobRunner.Start(); err != nil {
		return fmt.Errorf("failed to start job runner: %w", err)
	}

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup(ctx context.Context) {
	if app.jobRunner != nil {
		if err := app.jobRunner.Stop(ctx); err != nil {
			app.logger.Error("job runner did not stop cleanly", slog.String("error", err.Error()))
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}

	app.logger.Info("application shutdown completed")
}
