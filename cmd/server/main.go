// Package main implements the taskman API server. Besides serving HTTP it
// applies database migrations and loads demo data.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is reported by the API root and --version. Overridden at build time
// with -ldflags "-X main.version=...".
var version = "1.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "taskman-server",
		Short: "Task management API server",
		Long: `taskman-server serves the task management REST API.

Configuration is read from config.yaml in the working directory (or --config)
and from TASKMAN_* environment variables, e.g. TASKMAN_AUTH_JWT_SECRET.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a config file (default ./config.yaml)")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newSeedCmd(opts),
		newHashPasswordCmd(opts),
	)
	return cmd
}
