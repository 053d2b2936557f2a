// Package cli implements the tome command line: the catalog server, local
// imports and lookups, and the offline mirror client.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/sjohnston82/tome-tracker1/internal/config"
)

// NewRootCommand assembles every subcommand. version is reported by
// "tome --version" and the server's health endpoint.
func NewRootCommand(version string) *cobra.Command {
	var profilePath string

	root := &cobra.Command{
		Use:           "tome",
		Short:         "Personal book catalog with barcode lookup and an offline mirror",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&profilePath, "profile", config.DefaultProfilePath, "path to the mirror client INI profile")

	root.AddCommand(
		newServeCommand(version),
		newImportCommand(),
		newLookupCommand(),
		newUserCommand(),
		newMirrorCommand(&profilePath),
	)
	return root
}
