package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	exportYear int
	exportOut  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the dashboard data to an XLSX workbook",
	Long: `Export the rankings table, national averages, and divergence analysis
to an XLSX workbook.

Examples:
  mliatlas export
  mliatlas export --year 2020 --output mli_2020.xlsx`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := ExportXLSX(dataDir, exportYear, exportOut); err != nil {
			HandleError(err, "Failed to export workbook")
		}
		fmt.Printf("Exported to %s\n", exportOut)
	},
}

func init() {
	exportCmd.Flags().IntVarP(&exportYear, "year", "y", 0, "Year to export (default: latest)")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "mli_atlas.xlsx", "Output file path")
	rootCmd.AddCommand(exportCmd)
}
