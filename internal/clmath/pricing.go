/*

This file contains the execution-cost models: effective swap pricing with
spread and depth impact, the position fee-share estimate, and the MEV cost
estimate applied to rebalancing trades.

*/

package clmath

import "math"

const (
	// DefaultAvgPoolRangeWidth is the assumed fractional range width of other
	// liquidity providers when estimating a position's fee share.
	DefaultAvgPoolRangeWidth = 0.20

	// mevVolBaseline is the annualized volatility at which the MEV volatility
	// factor equals 1.
	mevVolBaseline = 0.50

	// mevSmallTradeUSD is the notional under which MEV extraction is
	// discounted linearly to zero; sandwiching dust trades is unprofitable.
	mevSmallTradeUSD = 500.0
)

// EffectiveSwapPrice returns the execution price for a trade of the given USD
// notional against a pool of the given depth. The price includes half the
// quoted spread plus an impact term proportional to the trade's share of pool
// depth (impactBpsPer1Pct basis points per 1% of depth). Buys pay above mid,
// sells receive below mid, floored at zero: a trade large enough to exhaust
// the pool yields nothing rather than a negative price.
func EffectiveSwapPrice(midPrice, tradeValueUSD, poolLiquidityUSD, spreadBps, impactBpsPer1Pct float64, isBuy bool) float64 {
	if midPrice <= 0 {
		return 0
	}

	halfSpreadBps := spreadBps / 2

	impactBps := 0.0
	if poolLiquidityUSD > 0 && tradeValueUSD > 0 {
		depthPct := tradeValueUSD / poolLiquidityUSD * 100
		impactBps = impactBpsPer1Pct * depthPct
	}

	adjustment := (halfSpreadBps + impactBps) / 10000
	if isBuy {
		return midPrice * (1 + adjustment)
	}
	if adjustment >= 1 {
		return 0
	}
	return midPrice * (1 - adjustment)
}

// FeeShare estimates the fraction of pool fees a position earns at the
// current price. A position out of range earns nothing. In range, its share
// is its USD value fraction of pool TVL scaled by the ratio of its own
// concentration sqrt(P)/(sqrt(upper)-sqrt(lower)) to the concentration of an
// assumed average provider with a range of avgRangeWidth around the price.
// The result is capped at 1.
func FeeShare(positionValueUSD, poolTVLUSD, price, lower, upper, avgRangeWidth float64) float64 {
	if price < lower || price > upper {
		return 0
	}
	if positionValueUSD <= 0 || poolTVLUSD <= 0 || price <= 0 || upper <= lower {
		return 0
	}
	if avgRangeWidth <= 0 {
		avgRangeWidth = DefaultAvgPoolRangeWidth
	}

	sqrtPrice := math.Sqrt(price)

	ownDenom := math.Sqrt(upper) - math.Sqrt(lower)
	if ownDenom <= 0 {
		return 0
	}
	ownConcentration := sqrtPrice / ownDenom

	avgLower := price * (1 - avgRangeWidth/2)
	avgUpper := price * (1 + avgRangeWidth/2)
	avgDenom := math.Sqrt(avgUpper) - math.Sqrt(avgLower)
	if avgDenom <= 0 {
		return 0
	}
	avgConcentration := sqrtPrice / avgDenom

	share := positionValueUSD / poolTVLUSD * (ownConcentration / avgConcentration)
	if share > 1 {
		return 1
	}
	if share < 0 {
		return 0
	}
	return share
}

// EstimateMevCostUSD estimates the value extracted by third parties around a
// rebalancing trade of the given exposed notional. The cost is
// tradeValue * baseMevBps/10000 scaled by a size factor that grows
// logarithmically with the trade-to-depth ratio (capped at 2x), a volatility
// factor relative to the 50% baseline (clamped to [0.5, 2]), and a linear
// discount for trades under $500.
func EstimateMevCostUSD(tradeValueUSD, poolLiquidityUSD, annualizedVol, baseMevBps float64) float64 {
	if tradeValueUSD <= 0 || baseMevBps <= 0 {
		return 0
	}

	ratio := 0.0
	if poolLiquidityUSD > 0 {
		ratio = tradeValueUSD / poolLiquidityUSD
	}
	sizeFactor := 1 + math.Log10(1+100*ratio)
	if sizeFactor > 2 {
		sizeFactor = 2
	}

	volFactor := annualizedVol / mevVolBaseline
	if volFactor < 0.5 {
		volFactor = 0.5
	} else if volFactor > 2 {
		volFactor = 2
	}

	smallTradeDiscount := 1.0
	if tradeValueUSD < mevSmallTradeUSD {
		smallTradeDiscount = tradeValueUSD / mevSmallTradeUSD
	}

	return tradeValueUSD * baseMevBps / 10000 * sizeFactor * volFactor * smallTradeDiscount
}
