// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "warga-server",
	Short: "warga-server is the backend for the Warga community platform",
	Long: `warga-server is the backend for the Warga community platform.
It serves the JSON API for user accounts, communities, roles and
permissions, posts, comments, and notifications.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
