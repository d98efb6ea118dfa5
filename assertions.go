package scalebench

import "testing"

// AssertGrowthAtMost verifies that a metric's fitted growth exponent stays
// below maxExponent.
//
// Use this to gate CI on scaling properties instead of absolute timings:
// a pass that regresses from O(n) to O(n²) fails here long before the
// wall-clock numbers look alarming at small N.
func AssertGrowthAtMost(t *testing.T, rng SizeRange, result SweepResult, metric string, maxExponent float64) {
	t.Helper()

	row, ok := findRow(t, rng, result, metric)
	if !ok {
		return
	}

	if row.Exponent >= maxExponent {
		t.Errorf("Superlinear growth: %s fits O(n^%1.1f) (max: O(n^%1.1f))\n"+
			"Raw values: %v",
			metric, row.Exponent, maxExponent, row.Values)
		return
	}

	t.Logf("✓ %s grows as O(n^%1.1f) (max: O(n^%1.1f), R²=%.3f)",
		metric, row.Exponent, maxExponent, row.RSquared)
}

// AssertConstantGrowth verifies that a metric does not grow with N at all:
// its fitted exponent must snap to exactly 0.
func AssertConstantGrowth(t *testing.T, rng SizeRange, result SweepResult, metric string) {
	t.Helper()

	row, ok := findRow(t, rng, result, metric)
	if !ok {
		return
	}

	if row.Exponent != 0 {
		t.Errorf("Expected constant metric: %s fits O(n^%1.1f)\n"+
			"Raw values: %v",
			metric, row.Exponent, row.Values)
		return
	}

	t.Logf("✓ %s is constant across the sweep", metric)
}

// findRow classifies the sweep and locates one metric's row.
func findRow(t *testing.T, rng SizeRange, result SweepResult, metric string) (GrowthRow, bool) {
	t.Helper()

	rows, _, err := Classify(rng, result, DefaultTolerance)
	if err != nil {
		t.Errorf("Failed to classify sweep: %v", err)
		return GrowthRow{}, false
	}

	for _, row := range rows {
		if row.Metric == metric {
			return row, true
		}
	}

	t.Errorf("Metric %s not present at every sweep point", metric)
	return GrowthRow{}, false
}
