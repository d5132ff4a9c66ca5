package cmd

import (
	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download missing data files",
	Long: `Check the data directory for the required JSON data files and download
any that are missing. Already-present files are left untouched.

Example:
  mliatlas download --data-dir data/`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := DownloadData(dataDir); err != nil {
			HandleError(err, "Failed to download data files")
		}
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)
}
