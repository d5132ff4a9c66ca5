package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"mliatlas/internal/mli"
)

func TestInitialModel(t *testing.T) {
	m := initialModel(MockDataset(), MockDivergence(), nil, 0)

	if m.currentView != dashboardView {
		t.Errorf("Expected initial view to be dashboardView, got %v", m.currentView)
	}
	if m.year != 2023 {
		t.Errorf("Expected initial year 2023, got %d", m.year)
	}
	if m.metric != mli.MetricMLI {
		t.Errorf("Expected initial metric mli, got %s", m.metric)
	}
	if m.filterInput.Focused() {
		t.Error("Expected filter input to start blurred")
	}
	if len(m.rows) != 4 {
		t.Fatalf("Expected 4 rows, got %d", len(m.rows))
	}
	if m.rows[0].Name != "Utah" {
		t.Errorf("Expected Utah ranked first by MLI, got %s", m.rows[0].Name)
	}
	if m.selectedRow != nil {
		t.Error("Expected no selected row initially")
	}
}

func TestInitialModelDefaultYear(t *testing.T) {
	ds := MockDataset()

	m := initialModel(ds, nil, nil, 2020)
	if m.year != 2020 {
		t.Errorf("Expected configured default year 2020, got %d", m.year)
	}

	// A configured year outside the dataset falls back to the latest.
	m = initialModel(ds, nil, nil, 1999)
	if m.year != 2023 {
		t.Errorf("Expected fallback to 2023 for unknown year, got %d", m.year)
	}
}

func TestDashboardViewKeyHandling(t *testing.T) {
	testCases := []struct {
		name  string
		setup func(m *model)
		key   tea.KeyMsg
		check func(t *testing.T, m model, cmd tea.Cmd)
	}{
		{
			name: "TabFocusesFilter",
			key:  tea.KeyMsg{Type: tea.KeyTab},
			check: func(t *testing.T, m model, cmd tea.Cmd) {
				if !m.filterInput.Focused() {
					t.Error("Expected Tab to focus the filter input")
				}
			},
		},
		{
			name:  "TabBlursFocusedFilter",
			setup: func(m *model) { m.filterInput.Focus() },
			key:   tea.KeyMsg{Type: tea.KeyTab},
			check: func(t *testing.T, m model, cmd tea.Cmd) {
				if m.filterInput.Focused() {
					t.Error("Expected Tab to blur the focused filter input")
				}
			},
		},
		{
			name: "CtrlSCyclesMetric",
			key:  tea.KeyMsg{Type: tea.KeyCtrlS},
			check: func(t *testing.T, m model, cmd tea.Cmd) {
				if m.metric != mli.MetricSurplus {
					t.Errorf("Expected metric to cycle to surplus, got %s", m.metric)
				}
			},
		},
		{
			name: "LeftArrowStepsYearBack",
			key:  tea.KeyMsg{Type: tea.KeyLeft},
			check: func(t *testing.T, m model, cmd tea.Cmd) {
				if m.year != 2022 {
					t.Errorf("Expected year 2022 after left arrow, got %d", m.year)
				}
			},
		},
		{
			name: "RightArrowAtLatestYearStays",
			key:  tea.KeyMsg{Type: tea.KeyRight},
			check: func(t *testing.T, m model, cmd tea.Cmd) {
				if m.year != 2023 {
					t.Errorf("Expected year to stay at 2023, got %d", m.year)
				}
			},
		},
		{
			name:  "ArrowsIgnoredWhileFiltering",
			setup: func(m *model) { m.filterInput.Focus() },
			key:   tea.KeyMsg{Type: tea.KeyLeft},
			check: func(t *testing.T, m model, cmd tea.Cmd) {
				if m.year != 2023 {
					t.Errorf("Expected year unchanged while filter focused, got %d", m.year)
				}
			},
		},
		{
			name: "EnterOpensDetailView",
			key:  tea.KeyMsg{Type: tea.KeyEnter},
			check: func(t *testing.T, m model, cmd tea.Cmd) {
				if m.currentView != detailView {
					t.Errorf("Expected detail view after Enter, got %v", m.currentView)
				}
				if m.selectedRow == nil {
					t.Fatal("Expected a selected row after Enter")
				}
				if m.selectedRow.Name != "Utah" {
					t.Errorf("Expected first-ranked Utah selected, got %s", m.selectedRow.Name)
				}
			},
		},
		{
			name:  "EnterBlursFocusedFilter",
			setup: func(m *model) { m.filterInput.Focus() },
			key:   tea.KeyMsg{Type: tea.KeyEnter},
			check: func(t *testing.T, m model, cmd tea.Cmd) {
				if m.filterInput.Focused() {
					t.Error("Expected Enter to blur the filter input")
				}
				if m.currentView != dashboardView {
					t.Error("Expected Enter on focused filter to stay on dashboard")
				}
			},
		},
		{
			name: "CtrlBOpensInsights",
			key:  tea.KeyMsg{Type: tea.KeyCtrlB},
			check: func(t *testing.T, m model, cmd tea.Cmd) {
				if m.currentView != insightsView {
					t.Errorf("Expected insights view after Ctrl+B, got %v", m.currentView)
				}
			},
		},
		{
			name: "EscQuits",
			key:  tea.KeyMsg{Type: tea.KeyEsc},
			check: func(t *testing.T, m model, cmd tea.Cmd) {
				if cmd == nil {
					t.Fatal("Expected quit command")
				}
				if _, ok := cmd().(tea.QuitMsg); !ok {
					t.Error("Expected Esc to quit")
				}
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := initialModel(MockDataset(), MockDivergence(), nil, 0)
			if tc.setup != nil {
				tc.setup(&m)
			}

			newModel, cmd := m.handleDashboardKeys(tc.key)
			tc.check(t, newModel.(model), cmd)
		})
	}
}

func TestCtrlBWithoutDivergenceStaysOnDashboard(t *testing.T) {
	m := initialModel(MockDataset(), nil, nil, 0)

	newModel, _ := m.handleDashboardKeys(tea.KeyMsg{Type: tea.KeyCtrlB})
	m = newModel.(model)

	if m.currentView != dashboardView {
		t.Errorf("Expected dashboard view without divergence data, got %v", m.currentView)
	}
}

func TestMetricCycleWrapsAround(t *testing.T) {
	m := initialModel(MockDataset(), nil, nil, 0)

	for i := 0; i < len(mli.Metrics); i++ {
		newModel, _ := m.handleDashboardKeys(tea.KeyMsg{Type: tea.KeyCtrlS})
		m = newModel.(model)
	}

	if m.metric != mli.MetricMLI {
		t.Errorf("Expected metric to wrap back to mli, got %s", m.metric)
	}
}

func TestRefreshRowsFilterKeepsOrder(t *testing.T) {
	m := initialModel(MockDataset(), nil, nil, 0)

	m.filterInput.SetValue("a")
	m.refreshRows()

	// "a" matches Utah, Maine, and Hawaii; MLI order must survive the
	// filter.
	want := []string{"Utah", "Maine", "Hawaii"}
	if len(m.rows) != len(want) {
		t.Fatalf("Expected %d filtered rows, got %d", len(want), len(m.rows))
	}
	for i, name := range want {
		if m.rows[i].Name != name {
			t.Errorf("Row %d: expected %s, got %s", i, name, m.rows[i].Name)
		}
	}

	m.filterInput.SetValue("")
	m.refreshRows()
	if len(m.rows) != 4 {
		t.Errorf("Expected all 4 rows after clearing filter, got %d", len(m.rows))
	}
}

func TestRefreshRowsMetricSort(t *testing.T) {
	m := initialModel(MockDataset(), nil, nil, 0)

	m.metric = mli.MetricCostOfLiving
	m.refreshRows()

	// All fixture states share the same cost of living, so the name
	// tie-break decides the order.
	if m.rows[0].Name != "Hawaii" {
		t.Errorf("Expected Hawaii first on cost-of-living tie-break, got %s", m.rows[0].Name)
	}
}

func TestSortKeyFor(t *testing.T) {
	testCases := []struct {
		metric   mli.Metric
		expected mli.SortKey
	}{
		{mli.MetricMLI, mli.SortByMLI},
		{mli.MetricSurplus, mli.SortBySurplus},
		{mli.MetricIncome, mli.SortByIncome},
		{mli.MetricCostOfLiving, mli.SortByCostOfLiving},
	}

	for _, tc := range testCases {
		if got := sortKeyFor(tc.metric); got != tc.expected {
			t.Errorf("sortKeyFor(%s): expected %s, got %s", tc.metric, tc.expected, got)
		}
	}
}

func TestFormatThousands(t *testing.T) {
	testCases := []struct {
		value    float64
		expected string
	}{
		{0, "0"},
		{950, "950"},
		{1000, "1,000"},
		{80000, "80,000"},
		{1234567, "1,234,567"},
	}

	for _, tc := range testCases {
		if got := formatThousands(tc.value); got != tc.expected {
			t.Errorf("formatThousands(%v): expected %s, got %s", tc.value, tc.expected, got)
		}
	}
}

func TestStateItem(t *testing.T) {
	row := mli.Row{
		Name:   "Utah",
		MLI:    1.22,
		Income: 97600,
		Rank:   1,
		Bucket: mli.BucketLargeSurplus,
	}
	item := stateItem{row: row}

	if item.FilterValue() != "Utah" {
		t.Errorf("Expected filter value Utah, got %s", item.FilterValue())
	}
	if !strings.Contains(item.Title(), "Utah") {
		t.Errorf("Expected title to contain the state name, got %q", item.Title())
	}
	if !strings.Contains(item.Description(), "1.220") {
		t.Errorf("Expected description to contain the MLI, got %q", item.Description())
	}
}

func TestSaveStateData(t *testing.T) {
	ds := MockDataset()
	rows := mli.BuildRows(ds, 2023)
	row := rows[0]

	path := filepath.Join(t.TempDir(), "utah.json")
	msg := saveStateData(ds, &row, 2023, path)()

	saved, ok := msg.(saveMsg)
	if !ok {
		t.Fatalf("Expected saveMsg, got %T", msg)
	}
	if saved.err != nil {
		t.Fatalf("Save failed: %v", saved.err)
	}
	if saved.filename != path {
		t.Errorf("Expected filename %s, got %s", path, saved.filename)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read saved file: %v", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Saved file is not valid JSON: %v", err)
	}
	if doc["state"] != "Utah" {
		t.Errorf("Expected saved state Utah, got %v", doc["state"])
	}
	if doc["year"] != float64(2023) {
		t.Errorf("Expected saved year 2023, got %v", doc["year"])
	}
}

func TestSaveStateDataUnknownState(t *testing.T) {
	row := mli.Row{Name: "Atlantis"}
	msg := saveStateData(MockDataset(), &row, 2023, "unused.json")()

	saved, ok := msg.(saveMsg)
	if !ok {
		t.Fatalf("Expected saveMsg, got %T", msg)
	}
	if saved.err == nil {
		t.Error("Expected error for unknown state, got nil")
	}
}
