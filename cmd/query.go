package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	queryString string
	queryLimit  int
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the database (DuckDB SQL)",
	Long: `Execute the requested QUERY against the DuckDB database.
The query can be any valid DuckDB SQL query, including SELECT, DESCRIBE, SHOW TABLES, etc.

Examples:
  mliatlas query --sql "SELECT * FROM metrics WHERE year = 2023 ORDER BY mli DESC LIMIT 5"
  mliatlas query --sql "SELECT COUNT(*) as total FROM metrics"
  mliatlas query --sql "SHOW TABLES"`,
	Run: func(cmd *cobra.Command, args []string) {
		if queryString == "" {
			HandleError(fmt.Errorf("query is required"), "Missing query parameter")
		}

		store, cleanup, err := InitStore(dataDir)
		if err != nil {
			HandleError(err, "Failed to initialize database")
		}
		defer cleanup()

		result, err := store.ExecuteQuery(queryString, queryLimit)
		if err != nil {
			HandleError(err, "Failed to execute query")
		}

		output, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			HandleError(err, "Failed to encode JSON")
		}

		fmt.Println(string(output))
	},
}

func init() {
	queryCmd.Flags().StringVarP(&queryString, "sql", "q", "", "SQL query to execute (required)")
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "l", 1000, "Maximum number of rows to return")
	_ = queryCmd.MarkFlagRequired("sql")
	rootCmd.AddCommand(queryCmd)
}
