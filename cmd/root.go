package cmd

import (
	"github.com/spf13/cobra"
)

var (
	dataDir string
	rootCmd = &cobra.Command{
		Use:   "mliatlas",
		Short: "MLI Atlas - Explore state market livability data",
		Long: `MLI Atlas is a CLI/TUI application for exploring the Market Livability
Index (MLI) across US states: median household income divided by cost of
living, tracked per state per year.

When run without commands, it launches an interactive TUI.
Use subcommands for CLI mode with JSON output.`,
		Run: func(cmd *cobra.Command, args []string) {
			// No subcommand specified - launch TUI
			LaunchTUI(dataDir)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "data/", "Directory containing JSON data files")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
