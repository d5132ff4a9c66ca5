package mli

// Bucket is a six-level quality band used for map shading and table
// badges. BucketDeepDeficit is worst, BucketLargeSurplus is best.
type Bucket int

const (
	BucketDeepDeficit Bucket = iota
	BucketDeficit
	BucketNearBreakEven
	BucketSmallSurplus
	BucketGoodSurplus
	BucketLargeSurplus
)

// Fixed MLI thresholds. The MLI scale is anchored at 1.0 (income equals
// cost of living), so its buckets never move with the data.
const (
	mliDeepDeficitMax   = 0.90
	mliDeficitMax       = 0.95
	mliNearBreakEvenMax = 1.00
	mliSmallSurplusMax  = 1.10
	mliGoodSurplusMax   = 1.20
)

// String returns the bucket's wire name as used in JSON and CSS classes.
func (b Bucket) String() string {
	switch b {
	case BucketDeepDeficit:
		return "deepDeficit"
	case BucketDeficit:
		return "deficit"
	case BucketNearBreakEven:
		return "nearBreakEven"
	case BucketSmallSurplus:
		return "smallSurplus"
	case BucketGoodSurplus:
		return "goodSurplus"
	case BucketLargeSurplus:
		return "largeSurplus"
	}
	return "unknown"
}

// Label returns the bucket's display text.
func (b Bucket) Label() string {
	switch b {
	case BucketDeepDeficit:
		return "Deep Deficit"
	case BucketDeficit:
		return "Deficit"
	case BucketNearBreakEven:
		return "Near Break-Even"
	case BucketSmallSurplus:
		return "Small Surplus"
	case BucketGoodSurplus:
		return "Good Surplus"
	case BucketLargeSurplus:
		return "Large Surplus"
	}
	return "Unknown"
}

// classifyMLI applies the fixed thresholds. Boundaries belong to the
// upper bucket: 0.95 is nearBreakEven, 1.20 is largeSurplus.
func classifyMLI(v float64) Bucket {
	switch {
	case v < mliDeepDeficitMax:
		return BucketDeepDeficit
	case v < mliDeficitMax:
		return BucketDeficit
	case v < mliNearBreakEvenMax:
		return BucketNearBreakEven
	case v < mliSmallSurplusMax:
		return BucketSmallSurplus
	case v < mliGoodSurplusMax:
		return BucketGoodSurplus
	default:
		return BucketLargeSurplus
	}
}

// classifyBinned places v into one of six equal-width bins spanning
// [min, max] of all states' values for the year. When every state has
// the same value, or there are no values at all, there is no spread to
// bin against and everything lands in the neutral middle.
func classifyBinned(v float64, all []float64, higherIsBetter bool) Bucket {
	if len(all) == 0 {
		return BucketNearBreakEven
	}
	lo, hi := all[0], all[0]
	for _, x := range all[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	if hi == lo {
		return BucketNearBreakEven
	}

	bin := int((v - lo) / (hi - lo) * 6)
	if bin < 0 {
		bin = 0
	}
	if bin > 5 {
		bin = 5 // the max value computes as bin 6
	}
	if !higherIsBetter {
		bin = 5 - bin
	}
	return Bucket(bin)
}

// Classify assigns v its bucket for the given metric and year context.
// MLI uses the fixed anchored thresholds; the other metrics are binned
// relative to that year's spread across all states, with cost of living
// inverted so the cheapest states read as the best bucket.
func Classify(metric Metric, v float64, yearValues []float64) Bucket {
	if metric == MetricMLI {
		return classifyMLI(v)
	}
	return classifyBinned(v, yearValues, metric.HigherIsBetter())
}

// ClassifyState buckets one state's reading of a metric for a year,
// using the full cross-state spread for that year as binning context.
func (d *Dataset) ClassifyState(state string, year int, metric Metric) (Bucket, error) {
	v, err := d.Value(state, year, metric)
	if err != nil {
		return BucketNearBreakEven, err
	}
	return Classify(metric, v, d.ValuesForYear(year, metric)), nil
}
