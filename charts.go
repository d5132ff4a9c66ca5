package main

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"mliatlas/internal/mli"
)

// BucketColor maps a bucket to its terminal color, red for deep
// deficit through green for large surplus.
func BucketColor(b mli.Bucket) lipgloss.Color {
	switch b {
	case mli.BucketDeepDeficit:
		return lipgloss.Color("196")
	case mli.BucketDeficit:
		return lipgloss.Color("214")
	case mli.BucketNearBreakEven:
		return lipgloss.Color("226")
	case mli.BucketSmallSurplus:
		return lipgloss.Color("112")
	case mli.BucketGoodSurplus:
		return lipgloss.Color("82")
	case mli.BucketLargeSurplus:
		return lipgloss.Color("46")
	}
	return lipgloss.Color("240")
}

// BucketBadge renders a bucket's label in its color.
func BucketBadge(b mli.Bucket) string {
	return lipgloss.NewStyle().Bold(true).Foreground(BucketColor(b)).Render(b.Label())
}

// BarChart creates a horizontal bar chart.
func BarChart(label string, value, max float64, width int, color lipgloss.Color) string {
	if max == 0 {
		max = value
	}

	percentage := value / max
	if percentage > 1 {
		percentage = 1
	}
	if percentage < 0 {
		percentage = 0
	}

	filledWidth := int(float64(width) * percentage)
	if filledWidth > width {
		filledWidth = width
	}

	filled := strings.Repeat("█", filledWidth)
	empty := strings.Repeat("░", width-filledWidth)

	barStyle := lipgloss.NewStyle().Foreground(color)
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	return fmt.Sprintf("%s %s%s %.0f",
		label,
		barStyle.Render(filled),
		emptyStyle.Render(empty),
		value,
	)
}

// MLIGauge renders an MLI value on a fixed scale from 0.80 to 1.30 with
// the break-even anchor marked. The marker takes the bucket's color.
func MLIGauge(value float64, width int) string {
	const lo, hi = 0.80, 1.30

	clamped := value
	if clamped < lo {
		clamped = lo
	}
	if clamped > hi {
		clamped = hi
	}

	position := int((clamped - lo) / (hi - lo) * float64(width-1))
	anchor := int((1.00 - lo) / (hi - lo) * float64(width-1))

	gauge := make([]rune, width)
	for i := range gauge {
		gauge[i] = '─'
	}
	gauge[anchor] = '┼'
	gauge[position] = '●'

	style := lipgloss.NewStyle().Foreground(BucketColor(mli.Classify(mli.MetricMLI, value, nil)))
	return fmt.Sprintf("│%s│ %.3f", style.Render(string(gauge)), value)
}

// Sparkline compresses a series into one line of block characters.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	var result strings.Builder
	for _, v := range values {
		var idx int
		if max == min {
			idx = len(chars) / 2
		} else {
			normalized := (v - min) / (max - min)
			idx = int(normalized * float64(len(chars)-1))
		}
		result.WriteRune(chars[idx])
	}

	return result.String()
}

// DeltaIndicator renders a signed change with a direction arrow,
// colored green for gains and red for losses.
func DeltaIndicator(delta float64) string {
	var arrow string
	var color lipgloss.Color
	switch {
	case delta > 0.0005:
		arrow, color = "↑", lipgloss.Color("82")
	case delta < -0.0005:
		arrow, color = "↓", lipgloss.Color("196")
	default:
		arrow, color = "→", lipgloss.Color("240")
	}
	return lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf("%s %+.3f", arrow, delta))
}

// BucketDistributionBar renders how many states fall into each bucket
// as one segmented bar with a count legend.
func BucketDistributionBar(counts map[mli.Bucket]int, width int) string {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return "No data"
	}

	buckets := []mli.Bucket{
		mli.BucketDeepDeficit, mli.BucketDeficit, mli.BucketNearBreakEven,
		mli.BucketSmallSurplus, mli.BucketGoodSurplus, mli.BucketLargeSurplus,
	}

	var bar strings.Builder
	remaining := width
	for i, b := range buckets {
		segWidth := int(math.Round(float64(counts[b]) / float64(total) * float64(width)))
		if i == len(buckets)-1 {
			segWidth = remaining
		}
		if segWidth > remaining {
			segWidth = remaining
		}
		if segWidth > 0 {
			style := lipgloss.NewStyle().Foreground(BucketColor(b))
			bar.WriteString(style.Render(strings.Repeat("█", segWidth)))
			remaining -= segWidth
		}
	}

	var legend strings.Builder
	for _, b := range buckets {
		if counts[b] == 0 {
			continue
		}
		style := lipgloss.NewStyle().Foreground(BucketColor(b))
		legend.WriteString(style.Render(fmt.Sprintf("■ %s: %d  ", b.Label(), counts[b])))
	}

	return bar.String() + "\n" + legend.String()
}

// SavingsTimelineChart renders the per-year counts of can-save,
// paycheck-to-paycheck, and deficit states as stacked rows.
func SavingsTimelineChart(timeline []SavingsPoint, width int) string {
	if len(timeline) == 0 {
		return "No data"
	}

	saveStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	paycheckStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	deficitStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	var b strings.Builder
	for _, sp := range timeline {
		total := sp.StatesCanSave + sp.StatesPaycheck + sp.StatesDeficit
		if total == 0 {
			continue
		}
		saveW := sp.StatesCanSave * width / total
		payW := sp.StatesPaycheck * width / total
		defW := width - saveW - payW

		b.WriteString(fmt.Sprintf("%d %s%s%s  %2d save / %2d paycheck / %2d deficit\n",
			sp.Year,
			saveStyle.Render(strings.Repeat("█", saveW)),
			paycheckStyle.Render(strings.Repeat("█", payW)),
			deficitStyle.Render(strings.Repeat("█", defW)),
			sp.StatesCanSave, sp.StatesPaycheck, sp.StatesDeficit,
		))
	}

	return b.String()
}

// MarketComparisonChart renders the indexed market-vs-household series
// as labeled sparklines sharing one scale legend.
func MarketComparisonChart(points []MarketPoint) string {
	if len(points) == 0 {
		return "No data"
	}

	var sp500, income, col, mliSeries []float64
	for _, p := range points {
		sp500 = append(sp500, p.SP500Indexed)
		income = append(income, p.IncomeIndexed)
		col = append(col, p.ColIndexed)
		mliSeries = append(mliSeries, p.MLIIndexed)
	}

	last := points[len(points)-1]
	first := points[0]

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Indexed to 100 in %d (through %d)\n", first.Year, last.Year))
	b.WriteString(fmt.Sprintf("S&P 500  %s %.0f\n", Sparkline(sp500), last.SP500Indexed))
	b.WriteString(fmt.Sprintf("Income   %s %.0f\n", Sparkline(income), last.IncomeIndexed))
	b.WriteString(fmt.Sprintf("Costs    %s %.0f\n", Sparkline(col), last.ColIndexed))
	b.WriteString(fmt.Sprintf("MLI      %s %.0f\n", Sparkline(mliSeries), last.MLIIndexed))

	return b.String()
}

// InfoBox creates a styled info box with a value.
func InfoBox(label string, value string, color lipgloss.Color) string {
	labelStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("240")).
		Width(18).
		Align(lipgloss.Left)

	valueStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(color).
		Width(12).
		Align(lipgloss.Right)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1)

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		labelStyle.Render(label),
		valueStyle.Render(value),
	)

	return boxStyle.Render(content)
}

// CategoryBreakdownChart renders a state's latest-year category costs
// as bars scaled to the largest category.
func CategoryBreakdownChart(categories map[string]mli.CategoryCost, width int) string {
	if len(categories) == 0 {
		return "No category data"
	}

	max := 0.0
	names := make([]string, 0, len(categories))
	for name, cc := range categories {
		names = append(names, name)
		if cc.Cost > max {
			max = cc.Cost
		}
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		label := fmt.Sprintf("%-14s", name)
		b.WriteString(BarChart(label, categories[name].Cost, max, width, lipgloss.Color("33")))
		b.WriteString("\n")
	}

	return b.String()
}
