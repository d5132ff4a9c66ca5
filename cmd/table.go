package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"mliatlas/internal/mli"
)

var (
	tableYear   int
	tableSort   string
	tableAsc    bool
	tableFilter string
	tableTop    int
	tableBottom int
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Print the full dashboard table",
	Long: `Print the dashboard table for a year: every state with its MLI, income,
cost of living, surplus, 1-year and 5-year MLI changes, and MLI bucket.
Filtering happens after sorting, so a filtered table keeps the sort order.

Results are returned as JSON.

Examples:
  mliatlas table
  mliatlas table --sort income --asc
  mliatlas table --filter "new" --year 2020
  mliatlas table --sort change5yr --top 10`,
	Run: func(cmd *cobra.Command, args []string) {
		key, err := mli.ParseSortKey(tableSort)
		if err != nil {
			HandleError(err, "Invalid sort key")
		}

		ds, err := LoadData(dataDir)
		if err != nil {
			HandleError(err, "Failed to load dataset")
		}

		year := tableYear
		if year == 0 {
			year = ds.LatestYear()
		}

		dir := mli.Descending
		if tableAsc {
			dir = mli.Ascending
		}

		rows := mli.SortRows(mli.BuildRows(ds, year), key, dir)
		rows = mli.FilterRows(rows, tableFilter)
		if tableTop > 0 {
			rows = mli.TopN(rows, tableTop)
		} else if tableBottom > 0 {
			rows = mli.BottomN(rows, tableBottom)
		}

		output, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			HandleError(err, "Failed to encode JSON")
		}

		fmt.Println(string(output))
	},
}

func init() {
	tableCmd.Flags().IntVarP(&tableYear, "year", "y", 0, "Year to display (default: latest)")
	tableCmd.Flags().StringVarP(&tableSort, "sort", "s", "mli", "Sort key: name, mli, surplus, income, costOfLiving, change, change5yr")
	tableCmd.Flags().BoolVarP(&tableAsc, "asc", "a", false, "Sort ascending instead of descending")
	tableCmd.Flags().StringVarP(&tableFilter, "filter", "f", "", "Case-insensitive substring filter on state names")
	tableCmd.Flags().IntVarP(&tableTop, "top", "t", 0, "Show only the first N rows")
	tableCmd.Flags().IntVarP(&tableBottom, "bottom", "b", 0, "Show only the last N rows, worst first")
	rootCmd.AddCommand(tableCmd)
}
