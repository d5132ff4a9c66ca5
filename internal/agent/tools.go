package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"charm.land/fantasy"
	"github.com/spf13/cobra"
	"mliatlas/internal/mli"
)

// LoadDataFunc loads the MLI dataset for a data directory.
type LoadDataFunc func(dataDir string) (*mli.Dataset, error)

// QueryRunner executes SQL against the local DuckDB database.
type QueryRunner interface {
	RunQuery(sql string) (interface{}, error)
}

// InitQueryFunc opens a QueryRunner and returns a cleanup function.
type InitQueryFunc func(dataDir string) (QueryRunner, func(), error)

// CreateToolsFromCommands creates Fantasy tools from all registered Cobra commands
// except for the specified exclusions (e.g., "serve", "ask")
func CreateToolsFromCommands(rootCmd *cobra.Command, dataDir string, exclusions []string, loadData LoadDataFunc, initQuery InitQueryFunc) []fantasy.AgentTool {
	var tools []fantasy.AgentTool

	// Iterate through all registered commands
	for _, cobraCmd := range rootCmd.Commands() {
		// Check if command should be excluded
		skip := false
		for _, excl := range exclusions {
			if cobraCmd.Use == excl || strings.HasPrefix(cobraCmd.Use, excl) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}

		// Create a tool for this command
		tool := createToolForCommand(cobraCmd, dataDir, loadData, initQuery)
		if tool != nil {
			tools = append(tools, tool)
		}
	}

	return tools
}

// createToolForCommand creates a Fantasy tool from a Cobra command
func createToolForCommand(cobraCmd *cobra.Command, dataDir string, loadData LoadDataFunc, initQuery InitQueryFunc) fantasy.AgentTool {
	// Extract the command name (first word in Use)
	cmdName := strings.Split(cobraCmd.Use, " ")[0]

	// Create tool description from command's Short description
	description := cobraCmd.Short
	if description == "" {
		description = fmt.Sprintf("Execute the %s command", cmdName)
	}

	// Create the tool function that calls the underlying functionality directly
	toolFunc := func(ctx context.Context, params map[string]interface{}) (string, error) {
		var result interface{}

		switch cmdName {
		case "rank":
			metricName, ok := params["metric"].(string)
			if !ok || metricName == "" {
				return "", fmt.Errorf("metric parameter is required")
			}
			metric, err := mli.ParseMetric(metricName)
			if err != nil {
				return "", err
			}

			ds, err := loadData(dataDir)
			if err != nil {
				return "", fmt.Errorf("failed to load dataset: %v", err)
			}

			year := ds.LatestYear()
			if y, ok := params["year"].(float64); ok {
				year = ds.ClampYear(int(y))
			}

			rankings := mli.Rank(ds, year, metric)
			if t, ok := params["top"].(float64); ok && int(t) > 0 && int(t) < len(rankings) {
				rankings = rankings[:int(t)]
			}

			result = rankings

		case "classify":
			metricName, ok := params["metric"].(string)
			if !ok || metricName == "" {
				return "", fmt.Errorf("metric parameter is required")
			}
			metric, err := mli.ParseMetric(metricName)
			if err != nil {
				return "", err
			}

			ds, err := loadData(dataDir)
			if err != nil {
				return "", fmt.Errorf("failed to load dataset: %v", err)
			}

			year := ds.LatestYear()
			if y, ok := params["year"].(float64); ok {
				year = ds.ClampYear(int(y))
			}

			yearValues := ds.ValuesForYear(year, metric)
			buckets := make(map[string]string)
			for _, name := range ds.StateNames() {
				v, err := ds.Value(name, year, metric)
				if err != nil {
					continue
				}
				buckets[name] = mli.Classify(metric, v, yearValues).String()
			}

			result = buckets

		case "details":
			stateName, ok := params["state"].(string)
			if !ok || stateName == "" {
				return "", fmt.Errorf("state parameter is required")
			}

			ds, err := loadData(dataDir)
			if err != nil {
				return "", fmt.Errorf("failed to load dataset: %v", err)
			}

			rec, ok := ds.States[stateName]
			if !ok {
				return "", fmt.Errorf("no state found with name: %s", stateName)
			}

			year := ds.LatestYear()
			if y, ok := params["year"].(float64); ok {
				year = ds.ClampYear(int(y))
			}

			ym, ok := rec.Timeseries[year]
			if !ok {
				return "", fmt.Errorf("no data for %s in %d", stateName, year)
			}

			detail := map[string]interface{}{
				"state":   stateName,
				"year":    year,
				"metrics": ym,
			}
			if rank, err := mli.RankOf(ds, year, mli.MetricMLI, stateName); err == nil {
				detail["rank"] = rank
				detail["state_count"] = len(ds.States)
			}
			if bucket, err := ds.ClassifyState(stateName, year, mli.MetricMLI); err == nil {
				detail["bucket"] = bucket.String()
			}

			result = detail

		case "query":
			sqlQuery, ok := params["sql"].(string)
			if !ok || sqlQuery == "" {
				return "", fmt.Errorf("sql parameter is required")
			}

			runner, cleanup, err := initQuery(dataDir)
			if err != nil {
				return "", fmt.Errorf("failed to initialize database: %v", err)
			}
			defer cleanup()

			rows, err := runner.RunQuery(sqlQuery)
			if err != nil {
				return "", fmt.Errorf("failed to execute query: %v", err)
			}

			result = rows

		default:
			return "", fmt.Errorf("unsupported command: %s", cmdName)
		}

		// Convert result to JSON
		jsonBytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode result as JSON: %v", err)
		}

		return string(jsonBytes), nil
	}

	// Create parameter schema based on command
	var paramSchema map[string]interface{}

	switch cmdName {
	case "rank":
		paramSchema = map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"metric": map[string]interface{}{
					"type":        "string",
					"description": "Metric to rank by: mli, surplus, income, or costOfLiving",
				},
				"year": map[string]interface{}{
					"type":        "integer",
					"description": "Optional year (default: latest available)",
				},
				"top": map[string]interface{}{
					"type":        "integer",
					"description": "Optional limit to the top N states",
				},
			},
			"required": []string{"metric"},
		}
	case "classify":
		paramSchema = map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"metric": map[string]interface{}{
					"type":        "string",
					"description": "Metric to classify: mli, surplus, income, or costOfLiving",
				},
				"year": map[string]interface{}{
					"type":        "integer",
					"description": "Optional year (default: latest available)",
				},
			},
			"required": []string{"metric"},
		}
	case "details":
		paramSchema = map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"state": map[string]interface{}{
					"type":        "string",
					"description": "Full state name, e.g. \"New Hampshire\"",
				},
				"year": map[string]interface{}{
					"type":        "integer",
					"description": "Optional year (default: latest available)",
				},
			},
			"required": []string{"state"},
		}
	case "query":
		paramSchema = map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"sql": map[string]interface{}{
					"type":        "string",
					"description": "DuckDB SQL query against the metrics, national, categories, state_changes, savings_timeline, and market_comparison tables",
				},
			},
			"required": []string{"sql"},
		}
	default:
		// Generic schema for other commands
		paramSchema = map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"args": map[string]interface{}{
					"type":        "string",
					"description": "Arguments for the command",
				},
			},
		}
	}

	return fantasy.NewAgentTool(
		cmdName,
		description,
		toolFunc,
		fantasy.WithParameters(paramSchema),
	)
}
