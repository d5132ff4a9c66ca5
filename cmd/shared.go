package cmd

import (
	"context"
	"fmt"
	"os"

	"mliatlas/internal/mli"
)

// QueryOutput is the JSON shape shared by the query and summarize commands.
type QueryOutput struct {
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

// TableSchema describes one DuckDB table for the schema command.
type TableSchema struct {
	TableName string         `json:"table_name"`
	RowCount  int64          `json:"row_count"`
	Columns   []ColumnDetail `json:"columns"`
}

// ColumnDetail describes a single column within a table.
type ColumnDetail struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// StoreInterface wraps the DuckDB-backed store for CLI commands.
type StoreInterface interface {
	ExecuteQuery(query string, maxRows int) (QueryOutput, error)
	DescribeTables() ([]TableSchema, error)
	Close() error
}

// AnalystInterface wraps the Claude-backed analyst for CLI commands.
type AnalystInterface interface {
	AskDataQuestion(ctx context.Context, question string) (string, error)
	GenerateBriefing(ctx context.Context) (string, error)
}

// These variables are set by the main package before Execute runs.
var (
	LaunchTUI    func(dataDir string)
	LoadData     func(dataDir string) (*mli.Dataset, error)
	InitStore    func(dataDir string) (StoreInterface, func(), error)
	InitAnalyst  func(store StoreInterface) (AnalystInterface, error)
	StartServer  func(port int, dataDir string) error
	ExportXLSX   func(dataDir string, year int, outPath string) error
	DownloadData func(dataDir string) error
)

// HandleError prints error and exits
func HandleError(err error, message string) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, err)
	os.Exit(1)
}
