package mli

import (
	"fmt"
	"sort"
	"strings"
)

// SortKey names a sortable column of the rankings table. The two change
// columns are year-over-year and five-year deltas of the MLI.
type SortKey string

const (
	SortByName         SortKey = "name"
	SortByMLI          SortKey = "mli"
	SortBySurplus      SortKey = "surplus"
	SortByIncome       SortKey = "income"
	SortByCostOfLiving SortKey = "costOfLiving"
	SortByChange       SortKey = "change"
	SortByChange5yr    SortKey = "change5yr"
)

// ParseSortKey maps user input to a SortKey.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(s) {
	case SortByName, SortByMLI, SortBySurplus, SortByIncome, SortByCostOfLiving, SortByChange, SortByChange5yr:
		return SortKey(s), nil
	case "col", "cost":
		return SortByCostOfLiving, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// Direction is a sort direction.
type Direction int

const (
	Descending Direction = iota
	Ascending
)

// Row is one state's derived table entry for a selected year. Rows are
// produced fresh on every interaction and never persisted.
type Row struct {
	Name         string  `json:"name"`
	MLI          float64 `json:"mli"`
	Surplus      float64 `json:"surplus"`
	Income       float64 `json:"income"`
	CostOfLiving float64 `json:"costOfLiving"`
	Change       float64 `json:"change"`
	Change5yr    float64 `json:"change5yr"`
	Rank         int     `json:"rank"`
	Bucket       Bucket  `json:"-"`
	BucketName   string  `json:"bucket"`
}

// BuildRows derives the full table for one year: all metric values, the
// MLI rank, one-year and five-year MLI changes (lookbacks clamped to
// the earliest year), and the state's MLI bucket. States lacking the
// year are dropped from the table rather than rendered with zeros.
func BuildRows(d *Dataset, year int) []Row {
	rankByState := make(map[string]int, len(d.States))
	for _, r := range Rank(d, year, MetricMLI) {
		rankByState[r.State] = r.Rank
	}

	rows := make([]Row, 0, len(d.States))
	for name, st := range d.States {
		ym, ok := st.Timeseries[year]
		if !ok {
			continue
		}
		change, _ := Delta(d, name, MetricMLI, year-1, year)
		change5, _ := Delta(d, name, MetricMLI, year-5, year)
		bucket := classifyMLI(ym.MLI)
		rows = append(rows, Row{
			Name:         name,
			MLI:          ym.MLI,
			Surplus:      ym.Surplus,
			Income:       ym.Income,
			CostOfLiving: ym.Col,
			Change:       change,
			Change5yr:    change5,
			Rank:         rankByState[name],
			Bucket:       bucket,
			BucketName:   bucket.String(),
		})
	}
	return SortRows(rows, SortByMLI, Descending)
}

func (r Row) value(key SortKey) float64 {
	switch key {
	case SortByMLI:
		return r.MLI
	case SortBySurplus:
		return r.Surplus
	case SortByIncome:
		return r.Income
	case SortByCostOfLiving:
		return r.CostOfLiving
	case SortByChange:
		return r.Change
	case SortByChange5yr:
		return r.Change5yr
	}
	return 0
}

// SortRows returns a new slice ordered by key and direction. Name
// comparison is lexicographic (case-folded); every other key compares
// numerically with name ascending as the tie-break. The input slice is
// left untouched.
func SortRows(rows []Row, key SortKey, dir Direction) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		if key == SortByName {
			if dir == Ascending {
				return nameLess(out[i].Name, out[j].Name)
			}
			return nameLess(out[j].Name, out[i].Name)
		}
		vi, vj := out[i].value(key), out[j].value(key)
		if vi != vj {
			if dir == Ascending {
				return vi < vj
			}
			return vi > vj
		}
		return nameLess(out[i].Name, out[j].Name)
	})
	return out
}

// ToggleSort implements the table-header click behavior: clicking the
// active column flips its direction, clicking a new column selects it
// descending.
func ToggleSort(current SortKey, currentDir Direction, clicked SortKey) (SortKey, Direction) {
	if clicked == current {
		if currentDir == Descending {
			return clicked, Ascending
		}
		return clicked, Descending
	}
	return clicked, Descending
}

// FilterRows keeps rows whose state name contains the query,
// case-insensitively. It filters the already-sorted sequence without
// reordering it; an empty query returns the input unchanged.
func FilterRows(rows []Row, query string) []Row {
	if query == "" {
		return rows
	}
	q := strings.ToLower(query)
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.Name), q) {
			out = append(out, r)
		}
	}
	return out
}

// TopN returns the first n rows of the current ordering.
func TopN(rows []Row, n int) []Row {
	if n > len(rows) {
		n = len(rows)
	}
	if n < 0 {
		n = 0
	}
	return rows[:n]
}

// BottomN returns the last n rows with the worst-ranked entry first.
func BottomN(rows []Row, n int) []Row {
	if n > len(rows) {
		n = len(rows)
	}
	if n < 0 {
		n = 0
	}
	out := make([]Row, n)
	for i := 0; i < n; i++ {
		out[i] = rows[len(rows)-1-i]
	}
	return out
}
