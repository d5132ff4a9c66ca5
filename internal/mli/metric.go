package mli

import "fmt"

// Metric identifies one of the four per-state values a view can rank,
// sort, or color by.
type Metric string

const (
	MetricMLI          Metric = "mli"
	MetricSurplus      Metric = "surplus"
	MetricIncome       Metric = "income"
	MetricCostOfLiving Metric = "costOfLiving"
)

// Metrics lists all metrics in display order.
var Metrics = []Metric{MetricMLI, MetricSurplus, MetricIncome, MetricCostOfLiving}

// ParseMetric maps user input to a Metric. Accepts the canonical names
// plus the short aliases used on the CLI and in query strings.
func ParseMetric(s string) (Metric, error) {
	switch s {
	case "mli":
		return MetricMLI, nil
	case "surplus":
		return MetricSurplus, nil
	case "income":
		return MetricIncome, nil
	case "costOfLiving", "col", "cost":
		return MetricCostOfLiving, nil
	}
	return "", fmt.Errorf("unknown metric %q (want mli, surplus, income, or costOfLiving)", s)
}

// From extracts this metric's value from a year's observation.
func (m Metric) From(ym YearMetrics) float64 {
	switch m {
	case MetricMLI:
		return ym.MLI
	case MetricSurplus:
		return ym.Surplus
	case MetricIncome:
		return ym.Income
	case MetricCostOfLiving:
		return ym.Col
	}
	return 0
}

// HigherIsBetter reports the metric's polarity. Cost of living is the
// only metric where a lower value is the better outcome; classification
// inverts its bucket order so green always means favorable.
func (m Metric) HigherIsBetter() bool {
	return m != MetricCostOfLiving
}

// Label returns the human-facing column header for the metric.
func (m Metric) Label() string {
	switch m {
	case MetricMLI:
		return "MLI"
	case MetricSurplus:
		return "Surplus"
	case MetricIncome:
		return "Income"
	case MetricCostOfLiving:
		return "Cost of Living"
	}
	return string(m)
}
