// Package mli holds the data model and the ranking/classification engine
// for the Market Livability Index dataset. Everything here is pure: the
// dataset is loaded once, treated as immutable, and all derived values
// (buckets, rankings, table rows) are recomputed from it on demand.
package mli

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrStateNotFound is returned when a state name is not in the dataset.
	ErrStateNotFound = errors.New("state not found")
	// ErrMissingYear is returned when a state has no timeseries entry for
	// the requested year. Callers rendering tables should skip the row
	// rather than abort; zero is a legitimate surplus value and must not
	// be used as a stand-in for "missing".
	ErrMissingYear = errors.New("no data for year")
)

// YearMetrics is one state-year observation from mli_data.json.
type YearMetrics struct {
	MLI        float64 `json:"mli"`
	Income     float64 `json:"income"`
	Col        float64 `json:"col"`
	Surplus    float64 `json:"surplus"`
	SurplusPct float64 `json:"surplus_pct"`
}

// CategoryCost is the latest-year cost for one spending category.
type CategoryCost struct {
	Cost float64 `json:"cost"`
}

// LatestSnapshot is the most recent year's metrics plus the category
// cost breakdown that only exists for that year.
type LatestSnapshot struct {
	Year       int                     `json:"year"`
	MLI        float64                 `json:"mli"`
	Income     float64                 `json:"income"`
	Col        float64                 `json:"col"`
	Surplus    float64                 `json:"surplus"`
	SurplusPct float64                 `json:"surplus_pct"`
	Categories map[string]CategoryCost `json:"categories"`
}

// StateRecord is one state's full history. State name is the unique key.
type StateRecord struct {
	Name       string              `json:"name"`
	Timeseries map[int]YearMetrics `json:"timeseries"`
	Latest     LatestSnapshot      `json:"latest"`
}

// NationalAverages is the per-year national summary block.
type NationalAverages struct {
	AvgMLI     float64 `json:"avg_mli"`
	AvgIncome  float64 `json:"avg_income"`
	AvgCol     float64 `json:"avg_col"`
	AvgSurplus float64 `json:"avg_surplus"`
}

// Dataset is the decoded mli_data.json document. Read-only after load.
type Dataset struct {
	Years    []int                       `json:"years"`
	States   map[string]StateRecord      `json:"states"`
	National map[int]NationalAverages    `json:"national"`
	Metadata map[string]any              `json:"metadata,omitempty"`
}

// Validate checks the dataset invariants: at least one year, years sorted
// ascending, and every state carrying an entry for every listed year.
// Gaps are reported rather than silently defaulted, since downstream code
// degrades per-row when a year is missing.
func (d *Dataset) Validate() error {
	if len(d.Years) == 0 {
		return errors.New("dataset has no years")
	}
	if len(d.States) == 0 {
		return errors.New("dataset has no states")
	}
	for i := 1; i < len(d.Years); i++ {
		if d.Years[i] <= d.Years[i-1] {
			return fmt.Errorf("years not strictly ascending at index %d (%d after %d)", i, d.Years[i], d.Years[i-1])
		}
	}

	var gaps []string
	for _, name := range d.StateNames() {
		st := d.States[name]
		for _, year := range d.Years {
			if _, ok := st.Timeseries[year]; !ok {
				gaps = append(gaps, fmt.Sprintf("%s/%d", name, year))
			}
		}
	}
	if len(gaps) > 0 {
		return fmt.Errorf("timeseries gaps: %v", gaps)
	}
	return nil
}

// StateNames returns all state names sorted ascending.
func (d *Dataset) StateNames() []string {
	names := make([]string, 0, len(d.States))
	for name := range d.States {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EarliestYear returns the first year in the series.
func (d *Dataset) EarliestYear() int { return d.Years[0] }

// LatestYear returns the last year in the series.
func (d *Dataset) LatestYear() int { return d.Years[len(d.Years)-1] }

// HasYear reports whether year is part of the series.
func (d *Dataset) HasYear(year int) bool {
	for _, y := range d.Years {
		if y == year {
			return true
		}
	}
	return false
}

// ClampYear clamps year into the available range. Fixed-offset lookbacks
// (e.g. "5 years before") are not guaranteed to exist for early years.
func (d *Dataset) ClampYear(year int) int {
	if year < d.EarliestYear() {
		return d.EarliestYear()
	}
	if year > d.LatestYear() {
		return d.LatestYear()
	}
	return year
}

// Value returns one state's reading of a metric for a year.
func (d *Dataset) Value(state string, year int, metric Metric) (float64, error) {
	st, ok := d.States[state]
	if !ok {
		return 0, fmt.Errorf("%q: %w", state, ErrStateNotFound)
	}
	ym, ok := st.Timeseries[year]
	if !ok {
		return 0, fmt.Errorf("%s/%d: %w", state, year, ErrMissingYear)
	}
	return metric.From(ym), nil
}

// ValuesForYear collects a metric's readings across all states for one
// year, skipping states that lack the year. The result feeds dynamic
// binning in Classify and is not sorted.
func (d *Dataset) ValuesForYear(year int, metric Metric) []float64 {
	values := make([]float64, 0, len(d.States))
	for _, st := range d.States {
		if ym, ok := st.Timeseries[year]; ok {
			values = append(values, metric.From(ym))
		}
	}
	return values
}
