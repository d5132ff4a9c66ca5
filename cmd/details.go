package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"mliatlas/internal/mli"
)

var detailsYear int

// stateDetail is the JSON output for the details command.
type stateDetail struct {
	State      string          `json:"state"`
	Year       int             `json:"year"`
	Metrics    mli.YearMetrics `json:"metrics"`
	Bucket     string          `json:"bucket"`
	Rank       int             `json:"rank,omitempty"`
	StateCount int             `json:"state_count"`
	Change     *float64        `json:"change,omitempty"`
	Change5Yr  *float64        `json:"change_5yr,omitempty"`
}

var detailsCmd = &cobra.Command{
	Use:   "details [state]",
	Short: "Get detailed information about a state",
	Long: `Get detailed MLI information about a specific state for a year:
metrics, MLI bucket, national rank, and 1-year/5-year MLI changes.
Returns the data as JSON.

Example:
  mliatlas details "New Hampshire"
  mliatlas details Texas --year 2019`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		stateName := args[0]

		ds, err := LoadData(dataDir)
		if err != nil {
			HandleError(err, "Failed to load dataset")
		}

		rec, ok := ds.States[stateName]
		if !ok {
			fmt.Fprintf(cmd.ErrOrStderr(), "No state found with name: %s\n", stateName)
			return
		}

		year := detailsYear
		if year == 0 {
			year = ds.LatestYear()
		} else {
			year = ds.ClampYear(year)
		}

		ym, ok := rec.Timeseries[year]
		if !ok {
			fmt.Fprintf(cmd.ErrOrStderr(), "No data for %s in %d\n", stateName, year)
			return
		}

		detail := stateDetail{
			State:      stateName,
			Year:       year,
			Metrics:    ym,
			StateCount: len(ds.States),
		}

		bucket, err := ds.ClassifyState(stateName, year, mli.MetricMLI)
		if err == nil {
			detail.Bucket = bucket.String()
		}

		rank, err := mli.RankOf(ds, year, mli.MetricMLI, stateName)
		if err != nil && !errors.Is(err, mli.ErrMissingYear) {
			HandleError(err, "Failed to rank state")
		}
		detail.Rank = rank

		if change, err := mli.Delta(ds, stateName, mli.MetricMLI, year-1, year); err == nil {
			detail.Change = &change
		}
		if change, err := mli.Delta(ds, stateName, mli.MetricMLI, year-5, year); err == nil {
			detail.Change5Yr = &change
		}

		output, err := json.MarshalIndent(detail, "", "  ")
		if err != nil {
			HandleError(err, "Failed to encode JSON")
		}

		fmt.Println(string(output))
	},
}

func init() {
	detailsCmd.Flags().IntVarP(&detailsYear, "year", "y", 0, "Year to inspect (default: latest)")
	rootCmd.AddCommand(detailsCmd)
}
