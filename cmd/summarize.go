package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var queryOrTable string

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize the contents of a table or query",
	Long: `The SUMMARIZE command can be used to easily compute a number of aggregates over a table or a query.
The SUMMARIZE command launches a query that computes a number of aggregates over all columns
(min, max, approx_unique, avg, std, q25, q50, q75, count), and returns these along with the column name,
column type, and the percentage of NULL values in the column.
Note that the quantiles and percentiles are approximate values.

To summarize the contents of a table, pass a table name:
  mliatlas summarize --table metrics

To summarize a query, pass a query:
  mliatlas summarize --query "SELECT * FROM metrics WHERE year = 2023"

Examples:
  mliatlas summarize --table metrics
  mliatlas summarize --table savings_timeline
  mliatlas summarize --query "SELECT * FROM metrics WHERE mli < 1.0"`,
	Run: func(cmd *cobra.Command, args []string) {
		if queryOrTable == "" {
			HandleError(fmt.Errorf("table or query is required"), "Missing parameter")
		}

		store, cleanup, err := InitStore(dataDir)
		if err != nil {
			HandleError(err, "Failed to initialize database")
		}
		defer cleanup()

		summarizeQuery := fmt.Sprintf("SUMMARIZE %s", queryOrTable)

		result, err := store.ExecuteQuery(summarizeQuery, 1000)
		if err != nil {
			HandleError(err, "Failed to execute summarize query")
		}

		output, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			HandleError(err, "Failed to encode JSON")
		}

		fmt.Println(string(output))
	},
}

func init() {
	summarizeCmd.Flags().StringVarP(&queryOrTable, "table", "t", "", "Table name or query to summarize (required)")
	summarizeCmd.Flags().StringVarP(&queryOrTable, "query", "q", "", "Query to summarize (alias for --table)")
	summarizeCmd.MarkFlagRequired("table")
	rootCmd.AddCommand(summarizeCmd)
}
