package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DivergenceSummary describes how market returns outran paychecks over
// one analysis window. MiddleClassCapture is the share of the S&P gain
// the MLI gain captured, as a percentage.
type DivergenceSummary struct {
	BaselineYear       int     `json:"baseline_year"`
	FinalYear          int     `json:"final_year"`
	SP500Gain          float64 `json:"sp500_total_gain"`
	IncomeGain         float64 `json:"income_total_gain"`
	ColGain            float64 `json:"col_total_gain"`
	MLIGain            float64 `json:"mli_total_gain"`
	MiddleClassCapture float64 `json:"middle_class_capture"`
}

// MarketPoint is one year of indexed market-vs-household trajectories,
// all series rebased to 100 at the window start.
type MarketPoint struct {
	Year          int     `json:"year"`
	SP500Indexed  float64 `json:"sp500_indexed"`
	IncomeIndexed float64 `json:"income_indexed"`
	ColIndexed    float64 `json:"col_indexed"`
	MLIIndexed    float64 `json:"mli_indexed"`
}

// SavingsPoint counts states by household outcome for one year:
// can-save (MLI > 1.05), paycheck-to-paycheck (0.95..1.05), deficit
// (< 0.95).
type SavingsPoint struct {
	Year           int `json:"year"`
	StatesCanSave  int `json:"states_can_save"`
	StatesPaycheck int `json:"states_paycheck"`
	StatesDeficit  int `json:"states_deficit"`
}

// InflationPoint compares housing inflation with general goods
// inflation over one period.
type InflationPoint struct {
	Period           string  `json:"period"`
	HousingInflation float64 `json:"housing_inflation"`
	GoodsInflation   float64 `json:"goods_inflation"`
}

// StateChange is one state's MLI movement between 2018 and 2023.
type StateChange struct {
	State     string  `json:"state"`
	MLIChange float64 `json:"mli_change"`
	MLI2018   float64 `json:"mli_2018"`
	MLI2023   float64 `json:"mli_2023"`
}

// SnapshotEntry is one state's current status line.
type SnapshotEntry struct {
	State  string  `json:"state"`
	MLI    float64 `json:"mli"`
	Status string  `json:"status"`
}

// Headlines holds the generated headline strings, one per story angle.
type Headlines struct {
	Main2012    string `json:"main_2012"`
	Main2018    string `json:"main_2018"`
	Inflation   string `json:"inflation"`
	StatesWorse string `json:"states_worse"`
}

// Lines returns the non-empty headlines in display order.
func (h Headlines) Lines() []string {
	var lines []string
	for _, s := range []string{h.Main2012, h.Main2018, h.Inflation, h.StatesWorse} {
		if s != "" {
			lines = append(lines, s)
		}
	}
	return lines
}

// Divergence is the decoded market_divergence_corrected.json document,
// the pre-computed analysis feeding the insights panel.
type Divergence struct {
	Summary20122023  DivergenceSummary `json:"summary_2012_2023"`
	Summary20182023  DivergenceSummary `json:"summary_2018_2023"`
	Comparison2012   []MarketPoint     `json:"market_comparison_2012"`
	Comparison2018   []MarketPoint     `json:"market_comparison_2018"`
	SavingsTimeline  []SavingsPoint    `json:"savings_timeline"`
	Inflation        []InflationPoint  `json:"inflation_analysis"`
	StateChanges     []StateChange     `json:"state_changes_2018_2023"`
	CurrentSnapshot  []SnapshotEntry   `json:"current_snapshot_2023"`
	Headlines        Headlines         `json:"headlines"`
	MediaHooks       []string          `json:"media_hooks"`
}

// LoadDivergence reads and decodes market_divergence_corrected.json.
func LoadDivergence(dataDir string) (*Divergence, error) {
	path := filepath.Join(dataDir, divergenceFile)

	raw, err := os.ReadFile(path)
	if err != nil {
		if logger != nil {
			logger.Error("Failed to read divergence file", "error", err, "path", path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc Divergence
	if err := json.Unmarshal(raw, &doc); err != nil {
		if logger != nil {
			logger.Error("Failed to parse divergence file", "error", err, "path", path)
		}
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if logger != nil {
		logger.Info("Divergence analysis loaded", "path", path, "state_changes", len(doc.StateChanges), "timeline_points", len(doc.SavingsTimeline))
	}

	return &doc, nil
}

// TopMovers returns the n largest MLI gains and the n largest declines
// from the 2018-2023 window. StateChanges arrives in state order, so
// the window is sorted by change here; the declines are returned
// worst-first. Equal changes fall back to state order.
func (d *Divergence) TopMovers(n int) (gainers, decliners []StateChange) {
	if n > len(d.StateChanges) {
		n = len(d.StateChanges)
	}

	sorted := make([]StateChange, len(d.StateChanges))
	copy(sorted, d.StateChanges)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MLIChange > sorted[j].MLIChange
	})

	gainers = sorted[:n]
	for i := 0; i < n; i++ {
		decliners = append(decliners, sorted[len(sorted)-1-i])
	}
	return gainers, decliners
}
