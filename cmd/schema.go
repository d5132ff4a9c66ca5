package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Retrieve a summary of the DuckDB database schema",
	Long: `Retrieve a summary of the local DuckDB database schema.
This command returns information about all tables and their columns in the database.

Examples:
  mliatlas schema`,
	Run: func(cmd *cobra.Command, args []string) {
		store, cleanup, err := InitStore(dataDir)
		if err != nil {
			HandleError(err, "Failed to initialize database")
		}
		defer cleanup()

		schemas, err := store.DescribeTables()
		if err != nil {
			HandleError(err, "Failed to describe tables")
		}

		output, err := json.MarshalIndent(schemas, "", "  ")
		if err != nil {
			HandleError(err, "Failed to encode JSON")
		}

		fmt.Println(string(output))
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
