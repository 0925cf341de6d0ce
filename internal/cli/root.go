// Package cli implements the cogload command-line interface: starting the
// daemon, inspecting the timeline and derived analytics, and editing the
// user-tunable settings — all without requiring the HTTP API to be up.
// Command structure and RunE/flag conventions follow the teacher's agent
// command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var dataDir string
var configPath string

// rootCmd is the entrypoint cobra.Command; cmd/cogload/main.go calls Execute.
var rootCmd = &cobra.Command{
	Use:   "cogload",
	Short: "Local-first cognitive load inference daemon",
	Long: `cogload ingests telemetry from the browser, IDE, desktop, and LMS
connectors, maintains a sliding feature window, and turns it into a
cognitive load score, a discrete context label, and prioritized action
directives on an adaptive cadence — persisting every tick to a durable
timeline so sessions and daily trends can be derived on demand.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Override the configured data directory")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a TOML or YAML config file")
}

// Execute runs the CLI, exiting the process on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "cogload: %v\n", err)
		os.Exit(1)
	}
}
