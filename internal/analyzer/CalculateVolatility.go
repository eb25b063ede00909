package analyzer

import (
	"math"
)

// RollingVolatility calculates the annualized volatility from the trailing
// window of log returns. It uses the sample standard deviation (N-1) scaled
// by the square root of the number of ticks per year. Fewer than two returns
// in the window yields 0.
func RollingVolatility(logReturns []float64, windowSteps int, stepsPerYear float64) float64 {
	n := len(logReturns)
	if windowSteps > 0 && n > windowSteps {
		logReturns = logReturns[n-windowSteps:]
		n = windowSteps
	}
	if n < 2 {
		return 0
	}

	var sum float64
	for _, r := range logReturns {
		sum += r
	}
	mean := sum / float64(n)

	var sumSqDiff float64
	for _, r := range logReturns {
		diff := r - mean
		sumSqDiff += diff * diff
	}

	// Sample variance (N-1)
	variance := sumSqDiff / float64(n-1)
	stdDev := math.Sqrt(variance)

	return stdDev * math.Sqrt(stepsPerYear)
}
