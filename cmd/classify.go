package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"mliatlas/internal/mli"
)

var classifyYear int

// classification is the JSON output row for the classify command.
type classification struct {
	State  string  `json:"state"`
	Value  float64 `json:"value"`
	Bucket string  `json:"bucket"`
	Label  string  `json:"label"`
}

var classifyCmd = &cobra.Command{
	Use:   "classify [metric]",
	Short: "Classify every state into a performance bucket",
	Long: `Classify every state's metric value into one of six buckets for a given
year. MLI uses fixed thresholds (0.90, 0.95, 1.00, 1.10, 1.20); the other
metrics are binned against that year's spread, with costOfLiving inverted
so cheaper states land in better buckets.

Results are returned as JSON.

Examples:
  mliatlas classify mli
  mliatlas classify income --year 2020`,
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

		year := classifyYear
		if year == 0 {
			year = ds.LatestYear()
		}

		yearValues := ds.ValuesForYear(year, metric)
		results := make([]classification, 0, len(ds.States))
		for _, name := range ds.StateNames() {
			v, err := ds.Value(name, year, metric)
			if err != nil {
				continue
			}
			bucket := mli.Classify(metric, v, yearValues)
			results = append(results, classification{
				State:  name,
				Value:  v,
				Bucket: bucket.String(),
				Label:  bucket.Label(),
			})
		}

		output, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			HandleError(err, "Failed to encode JSON")
		}

		fmt.Println(string(output))
	},
}

func init() {
	classifyCmd.Flags().IntVarP(&classifyYear, "year", "y", 0, "Year to classify (default: latest)")
	rootCmd.AddCommand(classifyCmd)
}
