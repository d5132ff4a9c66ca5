package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"mliatlas/internal/mli"
)

func TestLoadDataset(t *testing.T) {
	tmpDir := t.TempDir()
	WriteTestDataFiles(t, tmpDir)

	ds, err := LoadDataset(tmpDir)
	if err != nil {
		t.Fatalf("LoadDataset failed: %v", err)
	}

	if len(ds.States) != 4 {
		t.Errorf("Expected 4 states, got %d", len(ds.States))
	}
	if len(ds.Years) != 6 {
		t.Fatalf("Expected 6 years, got %d", len(ds.Years))
	}
	if ds.EarliestYear() != 2018 || ds.LatestYear() != 2023 {
		t.Errorf("Expected year range 2018-2023, got %d-%d", ds.EarliestYear(), ds.LatestYear())
	}

	// String-keyed year maps must come back as ints.
	utah, ok := ds.States["Utah"]
	if !ok {
		t.Fatal("Utah missing from loaded dataset")
	}
	ym, ok := utah.Timeseries[2023]
	if !ok {
		t.Fatal("Utah missing 2023 observation")
	}
	if math.Abs(ym.MLI-1.22) > 1e-9 {
		t.Errorf("Expected Utah 2023 MLI 1.22, got %f", ym.MLI)
	}
	if utah.Name != "Utah" {
		t.Errorf("Expected record name Utah, got %q", utah.Name)
	}
	if utah.Latest.Year != 2023 {
		t.Errorf("Expected latest snapshot year 2023, got %d", utah.Latest.Year)
	}
	if len(utah.Latest.Categories) != 3 {
		t.Errorf("Expected 3 cost categories, got %d", len(utah.Latest.Categories))
	}

	if _, ok := ds.National[2023]; !ok {
		t.Error("National averages missing 2023 entry")
	}
}

func TestLoadDatasetMissingFile(t *testing.T) {
	if _, err := LoadDataset(t.TempDir()); err == nil {
		t.Error("Expected error for missing dataset file, got nil")
	}
}

func TestLoadDatasetMalformedJSON(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, mliDataFile)
	if err := os.WriteFile(path, []byte(`{"years": [2023,`), 0644); err != nil {
		t.Fatalf("Failed to write malformed fixture: %v", err)
	}

	if _, err := LoadDataset(tmpDir); err == nil {
		t.Error("Expected error for malformed JSON, got nil")
	}
}

func TestLoadDatasetBadYearKey(t *testing.T) {
	tmpDir := t.TempDir()
	doc := `{
		"years": [2023],
		"states": {
			"Utah": {"timeseries": {"not-a-year": {"mli": 1.2}}, "latest": {"year": 2023}}
		},
		"national": {}
	}`
	if err := os.WriteFile(filepath.Join(tmpDir, mliDataFile), []byte(doc), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	if _, err := LoadDataset(tmpDir); err == nil {
		t.Error("Expected error for non-numeric year key, got nil")
	}
}

func TestLoadDivergence(t *testing.T) {
	tmpDir := t.TempDir()
	WriteTestDataFiles(t, tmpDir)

	div, err := LoadDivergence(tmpDir)
	if err != nil {
		t.Fatalf("LoadDivergence failed: %v", err)
	}

	if len(div.StateChanges) != 4 {
		t.Errorf("Expected 4 state changes, got %d", len(div.StateChanges))
	}
	if len(div.SavingsTimeline) != 2 {
		t.Errorf("Expected 2 timeline points, got %d", len(div.SavingsTimeline))
	}
	if div.Summary20182023.SP500Gain != 86.1 {
		t.Errorf("Expected SP500 gain 86.1, got %f", div.Summary20182023.SP500Gain)
	}
}

// TestLoadDivergenceGeneratorShape decodes a document with the exact
// key shapes the analysis pipeline emits: object-valued headlines,
// *_total_gain summary keys, per-year gain fields alongside the indexed
// ones, and state changes listed in state order.
func TestLoadDivergenceGeneratorShape(t *testing.T) {
	doc := `{
		"metadata": {
			"generated": "2024-01-15T10:00:00",
			"title": "Wall Street vs Main Street: The Real Story"
		},
		"summary_2012_2023": {
			"baseline_year": 2012,
			"final_year": 2023,
			"sp500_total_gain": 234.7,
			"income_total_gain": 41.2,
			"col_total_gain": 38.9,
			"mli_total_gain": 1.7,
			"middle_class_capture": 0.7
		},
		"summary_2018_2023": {
			"baseline_year": 2018,
			"final_year": 2023,
			"sp500_total_gain": 90.3,
			"income_total_gain": 21.9,
			"col_total_gain": 21.4,
			"mli_total_gain": 0.4,
			"middle_class_capture": 0.4
		},
		"key_findings": {
			"from_2018": {"period": "2018-2023 (COVID/Inflation Era)", "sp500_gain": 90.3}
		},
		"market_comparison_2018": [
			{"year": 2018, "sp500_indexed": 100.0, "income_indexed": 100.0, "col_indexed": 100.0, "mli_indexed": 100.0, "sp500_gain": 0.0, "income_gain": 0.0, "col_gain": 0.0, "mli_gain": 0.0},
			{"year": 2023, "sp500_indexed": 190.3, "income_indexed": 121.9, "col_indexed": 121.4, "mli_indexed": 100.4, "sp500_gain": 90.3, "income_gain": 21.9, "col_gain": 21.4, "mli_gain": 0.4}
		],
		"savings_timeline": [
			{"year": 2018, "states_can_save": 14, "states_paycheck": 27, "states_deficit": 10, "avg_surplus": 1823.5, "median_surplus": 1104.0},
			{"year": 2023, "states_can_save": 11, "states_paycheck": 28, "states_deficit": 12, "avg_surplus": 1542.1, "median_surplus": 987.3}
		],
		"inflation_analysis": [
			{"period": "2018-2023", "housing_inflation": 28.4, "goods_inflation": 19.1, "gap": 9.3}
		],
		"state_changes_2018_2023": [
			{"state": "Alabama", "mli_2018": 1.11, "annual_surplus_2018": 6200.0, "mli_2023": 1.06, "annual_surplus_2023": 3400.0, "mli_change": -0.05, "surplus_change": -2800.0},
			{"state": "Utah", "mli_2018": 1.12, "annual_surplus_2018": 7100.0, "mli_2023": 1.22, "annual_surplus_2023": 13900.0, "mli_change": 0.10, "surplus_change": 6800.0}
		],
		"current_snapshot_2023": [
			{"state": "Utah", "year": 2023, "mli": 1.22, "annual_surplus": 13900.0, "status": "Surplus", "monthly_surplus": 1158.3}
		],
		"headlines": {
			"main_2012": "Since 2012: S&P +235%, Middle Class Purchasing Power +1.7%",
			"main_2018": "Since 2018: S&P +90%, Middle Class Purchasing Power +0.4%",
			"inflation": "Housing Costs Up 28% Since 2018, Goods Up 19%",
			"states_worse": "29 States Became Less Affordable in Last 5 Years"
		},
		"media_hooks": [
			"Why 'Economic Recovery' Feels Like Decline"
		]
	}`

	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, divergenceFile), []byte(doc), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	div, err := LoadDivergence(tmpDir)
	if err != nil {
		t.Fatalf("LoadDivergence failed: %v", err)
	}

	s := div.Summary20182023
	if s.SP500Gain != 90.3 {
		t.Errorf("Expected SP500 gain 90.3, got %f", s.SP500Gain)
	}
	if s.IncomeGain != 21.9 || s.ColGain != 21.4 {
		t.Errorf("Expected income/CoL gains 21.9/21.4, got %f/%f", s.IncomeGain, s.ColGain)
	}
	if s.MLIGain != 0.4 {
		t.Errorf("Expected MLI gain 0.4, got %f", s.MLIGain)
	}
	if s.MiddleClassCapture != 0.4 {
		t.Errorf("Expected capture rate 0.4, got %f", s.MiddleClassCapture)
	}
	if s.BaselineYear != 2018 || s.FinalYear != 2023 {
		t.Errorf("Expected window 2018-2023, got %d-%d", s.BaselineYear, s.FinalYear)
	}
	if div.Summary20122023.SP500Gain != 234.7 {
		t.Errorf("Expected 2012 SP500 gain 234.7, got %f", div.Summary20122023.SP500Gain)
	}

	if div.Headlines.Main2018 == "" || div.Headlines.StatesWorse == "" {
		t.Errorf("Expected headline fields decoded, got %+v", div.Headlines)
	}
	if lines := div.Headlines.Lines(); len(lines) != 4 {
		t.Errorf("Expected 4 headline lines, got %v", lines)
	}

	if len(div.Comparison2018) != 2 || div.Comparison2018[1].SP500Indexed != 190.3 {
		t.Errorf("Unexpected market comparison decode: %+v", div.Comparison2018)
	}
	if len(div.SavingsTimeline) != 2 || div.SavingsTimeline[1].StatesCanSave != 11 {
		t.Errorf("Unexpected savings timeline decode: %+v", div.SavingsTimeline)
	}
	if len(div.CurrentSnapshot) != 1 || div.CurrentSnapshot[0].Status != "Surplus" {
		t.Errorf("Unexpected snapshot decode: %+v", div.CurrentSnapshot)
	}

	// Alabama is listed first; the movers must still sort by change.
	gainers, decliners := div.TopMovers(1)
	if gainers[0].State != "Utah" {
		t.Errorf("Expected Utah as top gainer, got %s", gainers[0].State)
	}
	if decliners[0].State != "Alabama" {
		t.Errorf("Expected Alabama as worst decliner, got %s", decliners[0].State)
	}
}

func TestTopMovers(t *testing.T) {
	div := MockDivergence()

	gainers, decliners := div.TopMovers(2)

	if len(gainers) != 2 || len(decliners) != 2 {
		t.Fatalf("Expected 2 gainers and 2 decliners, got %d and %d", len(gainers), len(decliners))
	}
	// The fixture lists changes in state order; TopMovers must sort.
	if gainers[0].State != "Utah" {
		t.Errorf("Expected Utah as top gainer, got %s", gainers[0].State)
	}
	// Decliners come back worst-first.
	if decliners[0].State != "Hawaii" {
		t.Errorf("Expected Hawaii as worst decliner, got %s", decliners[0].State)
	}
	if decliners[1].State != "Maine" {
		t.Errorf("Expected Maine as second decliner, got %s", decliners[1].State)
	}
}

func TestTopMoversClampsToAvailable(t *testing.T) {
	div := MockDivergence()

	gainers, decliners := div.TopMovers(50)
	if len(gainers) != 4 || len(decliners) != 4 {
		t.Errorf("Expected counts clamped to 4, got %d and %d", len(gainers), len(decliners))
	}
}

func TestMockDatasetIsValid(t *testing.T) {
	ds := MockDataset()
	if err := ds.Validate(); err != nil {
		t.Fatalf("Fixture dataset failed validation: %v", err)
	}

	values := ds.ValuesForYear(2023, mli.MetricMLI)
	if len(values) != 4 {
		t.Errorf("Expected 4 MLI values for 2023, got %d", len(values))
	}
}
