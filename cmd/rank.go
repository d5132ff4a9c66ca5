package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"mliatlas/internal/mli"
)

var (
	rankYear   int
	rankTop    int
	rankBottom int
)

var rankCmd = &cobra.Command{
	Use:   "rank [metric]",
	Short: "Rank all states by a metric",
	Long: `Rank all states by a metric for a given year. Rank 1 is the highest
value; ties break alphabetically. Valid metrics: mli, surplus, income,
costOfLiving. States without data for the year are omitted.

Results are returned as JSON.

Examples:
  mliatlas rank mli
  mliatlas rank surplus --year 2018
  mliatlas rank costOfLiving --top 10`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		metric, err := mli.ParseMetric(args[0])
		if err != nil {
			HandleError(err, "Invalid metric")
		}

		ds, err := LoadData(dataDir)
		if err != nil {
			HandleError(err, "Failed to load dataset")
		}

		year := rankYear
		if year == 0 {
			year = ds.LatestYear()
		}

		rankings := mli.Rank(ds, year, metric)
		if rankTop > 0 {
			rankings = rankings[:min(rankTop, len(rankings))]
		} else if rankBottom > 0 {
			n := min(rankBottom, len(rankings))
			tail := rankings[len(rankings)-n:]
			reversed := make([]mli.Ranking, n)
			for i, r := range tail {
				reversed[n-1-i] = r
			}
			rankings = reversed
		}

		output, err := json.MarshalIndent(rankings, "", "  ")
		if err != nil {
			HandleError(err, "Failed to encode JSON")
		}

		fmt.Println(string(output))
	},
}

func init() {
	rankCmd.Flags().IntVarP(&rankYear, "year", "y", 0, "Year to rank (default: latest)")
	rankCmd.Flags().IntVarP(&rankTop, "top", "t", 0, "Show only the top N states")
	rankCmd.Flags().IntVarP(&rankBottom, "bottom", "b", 0, "Show only the bottom N states, worst first")
	rootCmd.AddCommand(rankCmd)
}
