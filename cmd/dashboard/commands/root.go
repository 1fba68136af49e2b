package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	apiURL  string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "MMM dashboard client",
	Long: `MMM Dashboard CLI

Signs in to the MMM API, keeps the session, and derives channel
rankings, spend shares and insights from the MMM summary.

Usage:
  go run ./cmd/dashboard [command]

Examples:
  go run ./cmd/dashboard login --email alice@example.com
  go run ./cmd/dashboard report
  go run ./cmd/dashboard serve --port 8090`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "MMM API base URL (default MMM_API_BASE_URL)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
