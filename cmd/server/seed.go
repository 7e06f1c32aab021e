package main

import (
	"fmt"
	"os"

	"github.com/phrazzld/taskman/internal/seed"
	"github.com/phrazzld/taskman/internal/service/auth"
	"github.com/spf13/cobra"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo users and tasks",
		Long: `seed inserts demo users and tasks. Without --file it uses the built-in
fixtures (admin@example.com / admin123 and user@example.com / user123).
Users that already exist are skipped together with their tasks.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fx, err := loadFixtures(file)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			cfg, log, db, err := bootstrap(ctx, opts)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			st, err := newStores(cfg.Database.Driver, db, log)
			if err != nil {
				return err
			}

			seeder := seed.New(db, st.users, st.tasks, auth.NewBcryptVerifier(cfg.Auth.BCryptCost), log)
			res, err := seeder.Run(ctx, fx)
			if err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "created %d user(s), skipped %d, created %d task(s)\n",
				res.UsersCreated, res.UsersSkipped, res.TasksCreated)
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML fixtures file (default: built-in demo data)")
	return cmd
}

func loadFixtures(path string) (*seed.Fixtures, error) {
	if path == "" {
		return seed.DefaultFixtures()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	return seed.ParseFixtures(data)
}
