package main

import (
	"context"
	"errors"

	"github.com/phrazzld/taskman/internal/client"
	"github.com/phrazzld/taskman/internal/client/tokenstore"
	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save encrypted credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.authenticate(cmd, email, func(ctx context.Context, c *client.Client, password string) (*client.Session, error) {
				return c.Login(ctx, email, password)
			})
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.authenticate(cmd, email, func(ctx context.Context, c *client.Client, password string) (*client.Session, error) {
				return c.Register(ctx, name, email, password)
			})
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "display name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

type authFunc func(ctx context.Context, c *client.Client, password string) (*client.Session, error)

// authenticate runs login or register and persists the resulting tokens.
func (a *app) authenticate(cmd *cobra.Command, email string, fn authFunc) error {
	store, err := a.openStore(cmd)
	if err != nil {
		return err
	}

	password, err := a.readSecret(cmd, "Password: ")
	if err != nil {
		return err
	}

	c, err := client.New(client.Config{BaseURL: a.server(), Logger: a.logger})
	if err != nil {
		return err
	}
	defer c.Close()

	sess, err := fn(cmd.Context(), c, password)
	if err != nil {
		return err
	}

	creds := &tokenstore.Credentials{Server: a.server(), Email: sess.User.Email}
	creds.SetTokens(sess.Tokens)
	if err := store.Save(creds); err != nil {
		return err
	}

	if a.jsonOutput() {
		return printJSON(cmd, sess.User)
	}
	printf(cmd, "Logged in as %s <%s> (%s)\n", sess.User.Name, sess.User.Email, sess.User.Role)
	return nil
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and delete saved credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := a.withSession(cmd, func(ctx context.Context, c *client.Client) error {
				return c.Logout(ctx)
			})
			if errors.Is(err, errNotLoggedIn) || errors.Is(err, errIdleExpired) {
				printf(cmd, "Not logged in\n")
				return nil
			}
			if err != nil {
				return err
			}
			printf(cmd, "Logged out\n")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd, func(ctx context.Context, c *client.Client) error {
				user, err := c.Me(ctx)
				if err != nil {
					return err
				}
				if a.jsonOutput() {
					return printJSON(cmd, user)
				}
				printf(cmd, "%s <%s> (%s)\n", user.Name, user.Email, user.Role)
				return nil
			})
		},
	}
}
