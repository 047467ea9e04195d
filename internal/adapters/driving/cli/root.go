// Package cli provides the specsync command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/tessera-labs/specsync/internal/logger"
)

// version is set from main at build time.
var version = "dev"

var (
	flagVerbose bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "specsync",
	Short: "Real-time API specification change monitoring",
	Long: `Specsync watches API specification sources - git repositories,
local directories and provider webhooks - and broadcasts detected
changes to connected listeners and websocket subscribers.`,
	SilenceUsage: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		logger.SetVerbose(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false,
		"enable verbose diagnostic output")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "",
		"config file (default ~/.specsync/config.toml)")
}

// SetVersion records the build version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
