package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/phrazzld/taskman/internal/client"
	"github.com/phrazzld/taskman/internal/client/tokenstore"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	errNotLoggedIn = errors.New("not logged in; run 'taskctl login'")
	errIdleExpired = errors.New("session expired due to inactivity; run 'taskctl login'")
)

// openStore returns the credentials store, prompting for the passphrase when
// TASKCTL_PASSPHRASE is unset.
func (a *app) openStore(cmd *cobra.Command) (*tokenstore.Store, error) {
	pass := a.passphrase()
	if pass == "" {
		var err error
		pass, err = a.readSecret(cmd, "Credentials passphrase: ")
		if err != nil {
			return nil, err
		}
		a.v.Set("passphrase", pass)
	}
	return tokenstore.New(a.storePath(), pass, a.storeOpts...)
}

// newClient builds an API client whose token changes are written back to store.
func (a *app) newClient(store *tokenstore.Store, creds *tokenstore.Credentials) (*client.Client, error) {
	return client.New(client.Config{
		BaseURL: creds.Server,
		Tokens:  creds.Tokens(),
		Logger:  a.logger,
		OnTokens: func(t client.Tokens) {
			if t.AccessToken == "" {
				if err := store.Clear(); err != nil {
					a.logger.Warn("failed to clear credentials", "error", err)
				}
				return
			}
			creds.SetTokens(t)
			if err := store.Save(creds); err != nil {
				a.logger.Warn("failed to save credentials", "error", err)
			}
		},
	})
}

// withSession loads the saved credentials and runs fn with a logged-in client.
// The server's idle deadline is recorded after every successful call.
func (a *app) withSession(cmd *cobra.Command, fn func(ctx context.Context, c *client.Client) error) error {
	store, err := a.openStore(cmd)
	if err != nil {
		return err
	}

	creds, err := store.Load()
	if errors.Is(err, tokenstore.ErrNoCredentials) {
		return errNotLoggedIn
	}
	if err != nil {
		return err
	}
	if creds.IdleExpired(a.now()) {
		_ = store.Clear()
		return errIdleExpired
	}

	c, err := a.newClient(store, creds)
	if err != nil {
		return err
	}
	defer c.Close()

	err = fn(cmd.Context(), c)

	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.IsIdleTimeout() {
		_ = store.Clear()
		return errIdleExpired
	}
	if err != nil {
		return err
	}

	if idle := c.IdleExpiresAt(); !idle.IsZero() && c.Tokens().AccessToken != "" {
		creds.IdleExpiresAt = idle
		creds.SetTokens(c.Tokens())
		if err := store.Save(creds); err != nil {
			return fmt.Errorf("failed to save credentials: %w", err)
		}
	}
	return nil
}

// readSecret prompts without echo on a terminal and reads one line otherwise.
func (a *app) readSecret(cmd *cobra.Command, prompt string) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("reading secret: %w", err)
		}
		return string(b), nil
	}
	return a.readLine(cmd)
}

// readLine reads one line of piped input. The buffered reader is shared so
// consecutive reads each get their own line.
func (a *app) readLine(cmd *cobra.Command) (string, error) {
	if a.stdin == nil {
		a.stdin = bufio.NewReader(cmd.InOrStdin())
	}
	line, err := a.stdin.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
