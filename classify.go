package scalebench

import (
	"fmt"
	"io"
	"math"
	"sort"
	"text/tabwriter"
)

// DefaultTolerance is the growth exponent at which a metric is classified
// superlinear. 1.2 leaves headroom over O(n) for log factors and
// measurement noise while still catching O(n²) early.
const DefaultTolerance = 1.2

// snapEpsilon is the band around zero inside which a fitted exponent is
// reported as exactly 0, so provably-constant metrics don't show noise
// exponents like 3e-16.
const snapEpsilon = 1e-9

// GrowthRow is one classified metric: its fitted growth exponent, the
// goodness of that fit, and the raw per-sweep-point values it came from.
type GrowthRow struct {
	Exponent float64
	RSquared float64
	Metric   string
	Values   []float64
}

// Superlinear reports whether the row's exponent reaches the tolerance.
func (r GrowthRow) Superlinear(tolerance float64) bool {
	return r.Exponent >= tolerance
}

// Classify fits a growth exponent to every metric present at all sweep
// points and returns the rows sorted ascending by exponent, plus a verdict:
// bad is true when at least one metric is superlinear under the tolerance.
//
// Only metrics present in every sample are classified; a metric missing
// from even one sweep point is dropped. An empty intersection returns
// ErrNoData.
//
// The fit runs in log-log space: x = ln(N), y = ln(max(value, 1)). Raw
// values at or below 1 are clamped so zero counters never produce −∞.
func Classify(rng SizeRange, result SweepResult, tolerance float64) (rows []GrowthRow, bad bool, err error) {
	sizes, err := rng.Sizes()
	if err != nil {
		return nil, false, err
	}
	if len(sizes) != len(result) {
		return nil, false, fmt.Errorf("size range has %d points but sweep produced %d samples", len(sizes), len(result))
	}
	if len(result) == 0 {
		return nil, false, ErrNoData
	}

	metrics := commonMetrics(result)
	if len(metrics) == 0 {
		return nil, false, ErrNoData
	}

	x := make([]float64, len(sizes))
	for i, n := range sizes {
		x[i] = math.Log(float64(n))
	}

	for _, metric := range metrics {
		values := make([]float64, len(result))
		y := make([]float64, len(result))
		for i, sample := range result {
			values[i] = sample[metric]
			y[i] = math.Log(math.Max(values[i], 1))
		}

		exponent, intercept, err := LinearRegression(x, y)
		if err != nil {
			return nil, false, fmt.Errorf("fitting %s: %w", metric, err)
		}
		if math.Abs(exponent) < snapEpsilon {
			exponent = 0
		}

		rows = append(rows, GrowthRow{
			Exponent: exponent,
			RSquared: rSquared(x, y, exponent, intercept),
			Metric:   metric,
			Values:   values,
		})
		if exponent >= tolerance {
			bad = true
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Exponent != rows[j].Exponent {
			return rows[i].Exponent < rows[j].Exponent
		}
		return rows[i].Metric < rows[j].Metric
	})

	return rows, bad, nil
}

// commonMetrics returns the sorted intersection of metric names across all
// samples.
func commonMetrics(result SweepResult) []string {
	common := make(map[string]bool, len(result[0]))
	for k := range result[0] {
		common[k] = true
	}
	for _, sample := range result[1:] {
		for k := range common {
			if _, ok := sample[k]; !ok {
				delete(common, k)
			}
		}
	}

	metrics := make([]string, 0, len(common))
	for k := range common {
		metrics = append(metrics, k)
	}
	sort.Strings(metrics)
	return metrics
}

// ReportOptions controls report rendering.
type ReportOptions struct {
	// Quiet prints only superlinear rows.
	Quiet bool
	// Values also prints the raw per-sweep-point values and the fit's R².
	Values bool
	// Tolerance used for the Quiet filter; 0 means DefaultTolerance.
	Tolerance float64
}

// RenderReport prints one O(n^b) line per classified metric, ascending by
// exponent, honoring the quiet and values options.
func RenderReport(w io.Writer, rows []GrowthRow, opts ReportOptions) error {
	tolerance := opts.Tolerance
	if tolerance == 0 {
		tolerance = DefaultTolerance
	}

	tw := tabwriter.NewWriter(w, 2, 8, 2, ' ', 0)
	for _, row := range rows {
		if opts.Quiet && !row.Superlinear(tolerance) {
			continue
		}
		if opts.Values {
			fmt.Fprintf(tw, "O(n^%1.1f)\t%s\tR²=%.3f\t%v\n", row.Exponent, row.Metric, row.RSquared, row.Values)
		} else {
			fmt.Fprintf(tw, "O(n^%1.1f)\t%s\n", row.Exponent, row.Metric)
		}
	}
	return tw.Flush()
}
