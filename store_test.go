package main

import (
	"strings"
	"testing"
	"time"
)

func TestExecuteQuery(t *testing.T) {
	store, cleanup := SetupTestStore(t)
	defer cleanup()

	testCases := []struct {
		name          string
		query         string
		maxRows       int
		expectedCols  []string
		expectedRows  int
	}{
		{
			name:         "CountMetricsRows",
			query:        `SELECT COUNT(*) AS n FROM metrics`,
			maxRows:      10,
			expectedCols: []string{"n"},
			expectedRows: 1,
		},
		{
			name:         "AllMetricsForLatestYear",
			query:        `SELECT state, mli FROM metrics WHERE year = 2023 ORDER BY mli DESC`,
			maxRows:      100,
			expectedCols: []string{"state", "mli"},
			expectedRows: 4,
		},
		{
			name:         "MaxRowsCapsResult",
			query:        `SELECT state, year FROM metrics ORDER BY state, year`,
			maxRows:      5,
			expectedCols: []string{"state", "year"},
			expectedRows: 5,
		},
		{
			name:         "ZeroMaxRowsMeansUnlimited",
			query:        `SELECT year FROM national ORDER BY year`,
			maxRows:      0,
			expectedCols: []string{"year"},
			expectedRows: 6,
		},
		{
			name:         "SavingsTimelineLoaded",
			query:        `SELECT year, states_can_save FROM savings_timeline ORDER BY year`,
			maxRows:      10,
			expectedCols: []string{"year", "states_can_save"},
			expectedRows: 2,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := store.ExecuteQuery(tc.query, tc.maxRows)
			if err != nil {
				t.Fatalf("ExecuteQuery failed: %v", err)
			}
			if len(result.Columns) != len(tc.expectedCols) {
				t.Fatalf("Expected %d columns, got %d", len(tc.expectedCols), len(result.Columns))
			}
			for i, col := range tc.expectedCols {
				if result.Columns[i] != col {
					t.Errorf("Column %d: expected %q, got %q", i, col, result.Columns[i])
				}
			}
			if len(result.Rows) != tc.expectedRows {
				t.Errorf("Expected %d rows, got %d", tc.expectedRows, len(result.Rows))
			}
		})
	}
}

func TestExecuteQueryTopStateByMLI(t *testing.T) {
	store, cleanup := SetupTestStore(t)
	defer cleanup()

	result, err := store.ExecuteQuery(
		`SELECT state FROM metrics WHERE year = 2023 ORDER BY mli DESC LIMIT 1`, 10)
	if err != nil {
		t.Fatalf("ExecuteQuery failed: %v", err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(result.Rows))
	}
	if got := result.Rows[0][0]; got != "Utah" {
		t.Errorf("Expected Utah as top state, got %v", got)
	}
}

func TestExecuteQueryInvalidSQL(t *testing.T) {
	store, cleanup := SetupTestStore(t)
	defer cleanup()

	if _, err := store.ExecuteQuery(`SELECT * FROM no_such_table`, 10); err == nil {
		t.Error("Expected error for query against missing table, got nil")
	}
}

func TestDescribeTables(t *testing.T) {
	store, cleanup := SetupTestStore(t)
	defer cleanup()

	tables, err := store.DescribeTables()
	if err != nil {
		t.Fatalf("DescribeTables failed: %v", err)
	}

	byName := make(map[string]TableInfo, len(tables))
	for _, info := range tables {
		byName[info.Name] = info
	}

	expectedCounts := map[string]int64{
		"metrics":           24, // 4 states x 6 years
		"categories":        3,
		"national":          6,
		"state_changes":     4,
		"savings_timeline":  2,
		"market_comparison": 3,
	}
	for name, want := range expectedCounts {
		info, ok := byName[name]
		if !ok {
			t.Errorf("Table %s missing from schema", name)
			continue
		}
		if info.RowCount != want {
			t.Errorf("Table %s: expected %d rows, got %d", name, want, info.RowCount)
		}
		if len(info.Columns) == 0 {
			t.Errorf("Table %s: no columns reported", name)
		}
	}

	metrics := byName["metrics"]
	if len(metrics.Columns) != 7 {
		t.Fatalf("Expected 7 metrics columns, got %d", len(metrics.Columns))
	}
	if metrics.Columns[0].Name != "state" {
		t.Errorf("Expected first metrics column to be state, got %s", metrics.Columns[0].Name)
	}
	if !strings.Contains(strings.ToUpper(metrics.Columns[0].Type), "VARCHAR") {
		t.Errorf("Expected VARCHAR state column, got %s", metrics.Columns[0].Type)
	}
}

func TestInsightCacheRoundTrip(t *testing.T) {
	store, cleanup := SetupTestStore(t)
	defer cleanup()

	question := "Which state has the highest MLI?"
	answer := "Utah leads at 1.22."
	sqlQuery := "SELECT state FROM metrics WHERE year = 2023 ORDER BY mli DESC LIMIT 1"

	if err := store.SaveInsight(question, answer, sqlQuery, time.Now()); err != nil {
		t.Fatalf("SaveInsight failed: %v", err)
	}

	gotAnswer, gotSQL, _, err := store.LoadInsight(question, time.Hour)
	if err != nil {
		t.Fatalf("LoadInsight failed: %v", err)
	}
	if gotAnswer != answer {
		t.Errorf("Expected answer %q, got %q", answer, gotAnswer)
	}
	if gotSQL != sqlQuery {
		t.Errorf("Expected sql %q, got %q", sqlQuery, gotSQL)
	}
}

func TestInsightCacheUpsert(t *testing.T) {
	store, cleanup := SetupTestStore(t)
	defer cleanup()

	question := "How many states run a deficit?"

	if err := store.SaveInsight(question, "one", "SELECT 1", time.Now()); err != nil {
		t.Fatalf("First SaveInsight failed: %v", err)
	}
	if err := store.SaveInsight(question, "still one", "SELECT 2", time.Now()); err != nil {
		t.Fatalf("Second SaveInsight failed: %v", err)
	}

	answer, _, _, err := store.LoadInsight(question, time.Hour)
	if err != nil {
		t.Fatalf("LoadInsight failed: %v", err)
	}
	if answer != "still one" {
		t.Errorf("Expected upserted answer, got %q", answer)
	}
}

func TestInsightCacheExpiry(t *testing.T) {
	store, cleanup := SetupTestStore(t)
	defer cleanup()

	question := "What happened in 2020?"
	stale := time.Now().Add(-48 * time.Hour)

	if err := store.SaveInsight(question, "markets dipped", "SELECT 1", stale); err != nil {
		t.Fatalf("SaveInsight failed: %v", err)
	}

	if _, _, _, err := store.LoadInsight(question, 24*time.Hour); err == nil {
		t.Error("Expected expired cache entry to error, got nil")
	}

	if _, _, _, err := store.LoadInsight("never asked", time.Hour); err == nil {
		t.Error("Expected missing cache entry to error, got nil")
	}
}
