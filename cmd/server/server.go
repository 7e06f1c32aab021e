package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, log, db, err := bootstrap(ctx, opts)
			if err != nil {
				return err
			}

			if migrate {
				if err := migrateUp(ctx, cfg.Database.Driver, db, log); err != nil {
					_ = db.Close()
					return err
				}
			}

			app, err := newApplication(cfg, log, db)
			if err != nil {
				_ = db.Close()
				return err
			}

			runErr := app.Run(ctx)

			cleanupCtx, cancel := context.WithTimeout(context.Background(), app.shutdownTimeout())
			defer cancel()
			app.cleanup(cleanupCtx)

			return runErr
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func (app *application) shutdownTimeout() time.Duration {
	return time.Duration(app.config.Server.ShutdownTimeoutSeconds) * time.Second
}

// startHTTPServer serves router until ctx is cancelled, then shuts down gracefully
// within the configured shutdown timeout.
func (app *application) startHTTPServer(ctx context.Context, router http.Handler) error {
	cfg := app.config.Server
	server := app.newHTTPServer(ctx, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Info("starting server", slog.Int("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.shutdownTimeout())
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		app.logger.Info("server stopped")
		return nil
	})

	return g.Wait()
}

// newHTTPServer builds the server for router. Request contexts keep ctx's
// values but not its cancellation, so Shutdown can drain in-flight requests
// after a signal.
func (app *application) newHTTPServer(ctx context.Context, router http.Handler) *http.Server {
	cfg := app.config.Server
	base := context.WithoutCancel(ctx)
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeoutSeconds) * time.Second,
		BaseContext:  func(net.Listener) context.Context { return base },
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
	}
}
