package analyzer

// RollingMean calculates the simple mean of the trailing window of prices.
// The window is clipped to the available history; an empty series yields 0.
func RollingMean(prices []float64, windowSteps int) float64 {
	n := len(prices)
	if n == 0 {
		return 0
	}
	if windowSteps > 0 && n > windowSteps {
		prices = prices[n-windowSteps:]
		n = windowSteps
	}

	var sum float64
	for _, p := range prices {
		sum += p
	}
	return sum / float64(n)
}
