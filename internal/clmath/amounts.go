/*

This file contains the closed-form concentrated-liquidity position math:
composition of a position at a given price and liquidity sizing for deposits.

A position with liquidity constant L over price range [lower, upper] holds,
for current price P:

	P <= lower:  base  = L * (1/sqrt(lower) - 1/sqrt(upper))
	P >= upper:  quote = L * (sqrt(upper) - sqrt(lower))
	otherwise:   base  = L * (1/sqrt(P) - 1/sqrt(upper))
	             quote = L * (sqrt(P) - sqrt(lower))

*/

package clmath

import (
	"errors"
	"math"
)

// ErrDegenerateRange indicates a price range that cannot hold liquidity,
// e.g. a range collapsed to a single price point. Callers must treat this as
// "no liquidity addable" rather than propagate a non-finite liquidity value.
var ErrDegenerateRange = errors.New("degenerate price range, no liquidity can be sized")

// GetAmountsForLiquidity returns the base/quote composition of a position
// with the given liquidity over [lower, upper] at the current price.
func GetAmountsForLiquidity(liquidity, lower, upper, price float64) (baseAmount, quoteAmount float64) {
	if liquidity <= 0 || lower <= 0 || upper <= lower {
		return 0, 0
	}

	sqrtLower := math.Sqrt(lower)
	sqrtUpper := math.Sqrt(upper)

	switch {
	case price <= lower:
		return liquidity * (1/sqrtLower - 1/sqrtUpper), 0
	case price >= upper:
		return 0, liquidity * (sqrtUpper - sqrtLower)
	default:
		sqrtPrice := math.Sqrt(price)
		baseAmount = liquidity * (1/sqrtPrice - 1/sqrtUpper)
		quoteAmount = liquidity * (sqrtPrice - sqrtLower)
		return baseAmount, quoteAmount
	}
}

// PositionValueUSD returns the USD value of a position at the current price.
func PositionValueUSD(liquidity, lower, upper, price float64) float64 {
	baseAmount, quoteAmount := GetAmountsForLiquidity(liquidity, lower, upper, price)
	return baseAmount*price + quoteAmount
}

// AddLiquidityAmounts sizes the largest liquidity addable to [lower, upper]
// at the current price from the available base/quote amounts. Liquidity is
// bounded by whichever asset is scarcer; when the price sits outside the
// range only the one-sided asset is consumed. It returns the realized
// liquidity and the exact amounts consumed; any unused asset remains with
// the caller.
func AddLiquidityAmounts(baseAvail, quoteAvail, lower, upper, price float64) (liquidity, baseUsed, quoteUsed float64, err error) {
	if lower <= 0 || upper <= lower || price <= 0 {
		return 0, 0, 0, ErrDegenerateRange
	}
	if baseAvail < 0 || quoteAvail < 0 {
		return 0, 0, 0, nil
	}

	sqrtLower := math.Sqrt(lower)
	sqrtUpper := math.Sqrt(upper)

	switch {
	case price <= lower:
		denom := 1/sqrtLower - 1/sqrtUpper
		if denom <= 0 {
			return 0, 0, 0, ErrDegenerateRange
		}
		liquidity = baseAvail / denom
	case price >= upper:
		denom := sqrtUpper - sqrtLower
		if denom <= 0 {
			return 0, 0, 0, ErrDegenerateRange
		}
		liquidity = quoteAvail / denom
	default:
		sqrtPrice := math.Sqrt(price)
		baseDenom := 1/sqrtPrice - 1/sqrtUpper
		quoteDenom := sqrtPrice - sqrtLower
		if baseDenom <= 0 || quoteDenom <= 0 {
			return 0, 0, 0, ErrDegenerateRange
		}
		liquidity = math.Min(baseAvail/baseDenom, quoteAvail/quoteDenom)
	}

	if math.IsNaN(liquidity) || math.IsInf(liquidity, 0) {
		return 0, 0, 0, ErrDegenerateRange
	}
	if liquidity <= 0 {
		return 0, 0, 0, nil
	}

	baseUsed, quoteUsed = GetAmountsForLiquidity(liquidity, lower, upper, price)
	return liquidity, baseUsed, quoteUsed, nil
}
