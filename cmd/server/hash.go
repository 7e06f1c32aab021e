package main

import (
	"fmt"
	"strings"

	"github.com/phrazzld/taskman/internal/service/auth"
	"github.com/spf13/cobra"
)

// newHashPasswordCmd prints bcrypt hashes for manually provisioned accounts.
// It reads only the config file, not the database.
func newHashPasswordCmd(opts *rootOptions) *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-password <password>...",
		Short: "Print bcrypt hashes for the given passwords",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("cost") {
				cfg, err := loadAppConfig(opts.configPath)
				if err != nil {
					return err
				}
				cost = cfg.Auth.BCryptCost
			}

			hasher := auth.NewBcryptVerifier(cost)
			for _, password := range args {
				if strings.TrimSpace(password) == "" {
					return fmt.Errorf("password must not be blank")
				}
				hash, err := hasher.Hash(password)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), hash)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&cost, "cost", 0, "bcrypt cost (default from auth.bcrypt_cost)")
	return cmd
}
