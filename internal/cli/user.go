package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sjohnston82/tome-tracker1/internal/config"
)

func newUserCommand() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage catalog users and their API tokens",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDatabasePath, "path to the catalog database")

	var email string
	create := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user and print its API token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := openCatalog(dbPath)
			if err != nil {
				return err
			}
			defer catalog.Close()

			user, err := catalog.users.Create(cmd.Context(), args[0], email)
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", user.Username, user.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Token: %s\n", user.Token)
			return nil
		},
	}
	create.Flags().StringVar(&email, "email", "", "optional email address")

	token := &cobra.Command{
		Use:   "token <username>",
		Short: "Print an existing user's API token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := openCatalog(dbPath)
			if err != nil {
				return err
			}
			defer catalog.Close()

			user, err := catalog.users.GetByUsername(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("user %q: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), user.Token)
			return nil
		},
	}

	cmd.AddCommand(create, token)
	return cmd
}
