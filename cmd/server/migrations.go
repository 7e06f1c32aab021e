package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/phrazzld/taskman/internal/platform/migrations"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		migrateSubcommand(opts, "up", "Apply all pending migrations", func(ctx context.Context, m *migrations.Migrator, out io.Writer) error {
			n, err := m.Up(ctx)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "applied %d migration(s)\n", n)
			return err
		}),
		migrateSubcommand(opts, "down", "Roll back the most recent migration", func(ctx context.Context, m *migrations.Migrator, out io.Writer) error {
			return m.Down(ctx)
		}),
		migrateSubcommand(opts, "reset", "Roll back every migration", func(ctx context.Context, m *migrations.Migrator, out io.Writer) error {
			return m.Reset(ctx)
		}),
		migrateSubcommand(opts, "status", "Show applied and pending migrations", printMigrationStatus),
		migrateSubcommand(opts, "version", "Print the current schema version", func(ctx context.Context, m *migrations.Migrator, out io.Writer) error {
			v, err := m.Version(ctx)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, v)
			return err
		}),
	)
	return cmd
}

type migrateFunc func(ctx context.Context, m *migrations.Migrator, out io.Writer) error

// migrateSubcommand wraps fn with config loading, database setup and cleanup.
func migrateSubcommand(opts *rootOptions, use, short string, fn migrateFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, log, db, err := bootstrap(ctx, opts)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			m, err := migrations.New(cfg.Database.Driver, db, log)
			if err != nil {
				return err
			}
			if err := fn(ctx, m, cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("migrate %s: %w", use, err)
			}
			return nil
		},
	}
}

func printMigrationStatus(ctx context.Context, m *migrations.Migrator, out io.Writer) error {
	statuses, err := m.Status(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "VERSION\tSTATE\tFILE")
	for _, s := range statuses {
		state := "pending"
		if s.Applied {
			state = "applied"
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", s.Version, state, s.Path)
	}
	return tw.Flush()
}

// migrateUp applies pending migrations; used by serve --migrate.
func migrateUp(ctx context.Context, driver string, db *sql.DB, log *slog.Logger) error {
	m, err := migrations.New(driver, db, log)
	if err != nil {
		return err
	}
	if _, err := m.Up(ctx); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}
