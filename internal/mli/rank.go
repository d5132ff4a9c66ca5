package mli

import (
	"fmt"
	"sort"
	"strings"
)

// Ranking is one entry in a year's ordering of states by a metric.
type Ranking struct {
	State string  `json:"state"`
	Value float64 `json:"value"`
	Rank  int     `json:"rank"`
}

// nameLess compares state names ascending, case-insensitively. State
// names are plain ASCII so folded byte order is sufficient.
func nameLess(a, b string) bool {
	return strings.ToLower(a) < strings.ToLower(b)
}

// Rank orders all states by a metric's value for one year, descending
// (rank 1 is the highest value), with ties broken by state name
// ascending so equal values always produce the same ordering. States
// lacking the year are omitted rather than ranked at a default value.
func Rank(d *Dataset, year int, metric Metric) []Ranking {
	out := make([]Ranking, 0, len(d.States))
	for name, st := range d.States {
		ym, ok := st.Timeseries[year]
		if !ok {
			continue
		}
		out = append(out, Ranking{State: name, Value: metric.From(ym)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return nameLess(out[i].State, out[j].State)
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// RankOf returns one state's 1-based position in the Rank ordering.
func RankOf(d *Dataset, year int, metric Metric, state string) (int, error) {
	if _, ok := d.States[state]; !ok {
		return 0, fmt.Errorf("%q: %w", state, ErrStateNotFound)
	}
	for _, r := range Rank(d, year, metric) {
		if r.State == state {
			return r.Rank, nil
		}
	}
	return 0, fmt.Errorf("%s/%d: %w", state, year, ErrMissingYear)
}

// Delta returns value(toYear) - value(fromYear) for one state's metric.
// Both years are clamped into the dataset's range: fixed-offset
// lookbacks ("5 years before") underflow for early years and must fall
// back to the earliest available year instead of reading nothing.
func Delta(d *Dataset, state string, metric Metric, fromYear, toYear int) (float64, error) {
	from, err := d.Value(state, d.ClampYear(fromYear), metric)
	if err != nil {
		return 0, err
	}
	to, err := d.Value(state, d.ClampYear(toYear), metric)
	if err != nil {
		return 0, err
	}
	return to - from, nil
}
