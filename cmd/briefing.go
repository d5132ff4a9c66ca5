package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var briefingCmd = &cobra.Command{
	Use:   "briefing",
	Short: "Generate an AI briefing on the market divergence analysis",
	Long: `Generate a narrative briefing on the market divergence analysis using
Claude AI: which states pulled ahead, which fell behind, and what the
savings timeline shows. Briefings are cached in the local database.

Requires ANTHROPIC_API_KEY environment variable to be set.

Example:
  mliatlas briefing`,
	Run: func(cmd *cobra.Command, args []string) {
		store, cleanup, err := InitStore(dataDir)
		if err != nil {
			HandleError(err, "Failed to initialize database")
		}
		defer cleanup()

		analyst, err := InitAnalyst(store)
		if err != nil {
			HandleError(err, "Failed to initialize analyst")
		}

		briefing, err := analyst.GenerateBriefing(context.Background())
		if err != nil {
			HandleError(err, "Failed to generate briefing")
		}

		fmt.Println(briefing)
	},
}

func init() {
	rootCmd.AddCommand(briefingCmd)
}
