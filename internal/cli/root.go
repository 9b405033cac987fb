// Package cli holds the tvk command line: the API server plus maintenance commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is stamped at build time with -ldflags "-X github.com/tvkcanada/tvk-be/internal/cli.Version=...".
var Version = "dev"

var rootCmd *cobra.Command

func init() {
	rootCmd = &cobra.Command{
		Use:   "tvk",
		Short: "TVK Canada membership API",
		Long: `tvk runs the TVK Canada fan club backend: accounts, memberships, payments,
invoices, the contact form and site content.

Without a subcommand it starts the HTTP server.`,
		RunE:          runServe, // Default action is serve
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// Execute runs the root command.
func Execute() error {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createAdminCmd)
	rootCmd.AddCommand(runJobCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.Version = Version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tvk %s\n", Version)
	},
}
