package scalebench

import "fmt"

// LinearRegression performs ordinary least squares over two equal-length
// sequences, returning the slope and intercept of the best-fit line:
//
//	slope     = (mean(x·y) − mean(x)·mean(y)) / (mean(x²) − mean(x)²)
//	intercept = mean(y) − slope·mean(x)
//
// Empty input returns (0, 0, nil) by convention, signaling "no data" to the
// caller. Zero variance on x (all x equal, including the single-point case)
// returns a *DegenerateInputError instead of dividing by zero.
func LinearRegression(x, y []float64) (slope, intercept float64, err error) {
	if len(x) != len(y) {
		return 0, 0, fmt.Errorf("mismatched data lengths: %d x vs %d y", len(x), len(y))
	}

	n := len(x)
	if n == 0 {
		return 0, 0, nil
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i := 0; i < n; i++ {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
	}

	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	denom := sumX2/float64(n) - meanX*meanX
	if denom == 0 {
		return 0, 0, &DegenerateInputError{N: n}
	}

	slope = (sumXY/float64(n) - meanX*meanY) / denom
	intercept = meanY - slope*meanX

	return slope, intercept, nil
}

// rSquared calculates the coefficient of determination for a fitted line.
// Constant observed data has no variance to explain; a perfect constant fit
// reports 1.
func rSquared(x, y []float64, slope, intercept float64) float64 {
	if len(y) == 0 {
		return 0
	}

	var meanY float64
	for _, yi := range y {
		meanY += yi
	}
	meanY /= float64(len(y))

	var ssRes, ssTot float64
	for i := range y {
		predicted := intercept + slope*x[i]
		ssRes += (y[i] - predicted) * (y[i] - predicted)
		ssTot += (y[i] - meanY) * (y[i] - meanY)
	}

	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}

	return 1 - ssRes/ssTot
}
