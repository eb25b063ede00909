package analyzer

import "math"

// MaxDrawdownPct calculates the maximum percentage decline from the running
// peak over an equity series. The running peak starts at -Inf, so the first
// point is never a drawdown. The result is a raw percentage (25 means 25%).
func MaxDrawdownPct(values []float64) float64 {
	runningPeak := math.Inf(-1)
	maxDrawdown := 0.0

	for _, v := range values {
		if v > runningPeak {
			runningPeak = v
		}
		if runningPeak > 0 {
			drawdown := (runningPeak - v) / runningPeak * 100
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}
	return maxDrawdown
}
