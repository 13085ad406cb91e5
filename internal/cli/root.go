// Package cli implements the eserbisyo command line interface.
// The serve command runs the daemon; every other command is a thin client
// over the daemon's HTTP API.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "eserbisyo",
	Short: "E-Serbisyo community engagement service",
	Long: `E-Serbisyo tracks community engagement: points for civic activities,
levels, badges, daily login bonuses, and QR-validated event awards.

Run 'eserbisyo serve' to start the daemon, then use the other commands
to award points, inspect profiles, and validate QR award scans.`,
}

func init() {
	rootCmd.PersistentFlags().String("server", "", "Daemon API base URL (default http://127.0.0.1:8090)")
	rootCmd.PersistentFlags().String("config", "", "Path to config.toml")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
