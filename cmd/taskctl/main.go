// Package main implements taskctl, a command-line client for the taskman API.
//
// Credentials are kept in an age-encrypted file; the passphrase comes from
// TASKCTL_PASSPHRASE or an interactive prompt.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phrazzld/taskman/internal/client/tokenstore"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultServer = "http://localhost:8080"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// app carries resolved global settings into the subcommands.
type app struct {
	v      *viper.Viper
	now    func() time.Time
	logger *slog.Logger
	stdin  *bufio.Reader

	storeOpts []tokenstore.Option
}

func newApp() *app {
	return &app{
		v:      viper.New(),
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (a *app) server() string     { return a.v.GetString("server") }
func (a *app) jsonOutput() bool   { return a.v.GetBool("json") }
func (a *app) storePath() string  { return a.v.GetString("store") }
func (a *app) passphrase() string { return a.v.GetString("passphrase") }

func newRootCmd() *cobra.Command {
	return buildRootCmd(newApp())
}

func buildRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "taskctl",
		Short:         "Command-line client for the taskman API",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if a.v.GetBool("verbose") {
				a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
			}
			if a.storePath() == "" {
				path, err := tokenstore.DefaultPath()
				if err != nil {
					return err
				}
				a.v.Set("store", path)
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("server", defaultServer, "API base URL (env TASKCTL_SERVER)")
	flags.String("store", "", "credentials file (default <user config dir>/taskman/credentials.age, env TASKCTL_STORE)")
	flags.Bool("json", false, "print raw JSON")
	flags.BoolP("verbose", "v", false, "log HTTP activity to stderr")

	// Explicit flags win over TASKCTL_* variables, which win over flag defaults.
	a.v.SetEnvPrefix("taskctl")
	_ = a.v.BindPFlags(flags)
	for _, key := range []string{"server", "store", "passphrase"} {
		_ = a.v.BindEnv(key)
	}

	cmd.AddCommand(
		newLoginCmd(a),
		newRegisterCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newTasksCmd(a),
		newAdminCmd(a),
	)
	return cmd
}

func printf(cmd *cobra.Command, format string, args ...any) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
