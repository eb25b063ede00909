/*

This file contains the vault state machine. The vault owns two asset
balances, at most one open concentrated-liquidity position, and an unclaimed
rewards balance. Every operation takes the current state by value and returns
the next state explicitly, so the backtest engine can snapshot state before
and after each tick.

States: Idle (no open position) <-> Active (one open position). Transitions
happen only through Apply.

*/

package vault

import (
	"errors"
	"fmt"
	"math"

	"github.com/elys-network/vbt/internal/clmath"
	"github.com/elys-network/vbt/internal/types"
)

// ErrUnknownAction indicates an action variant outside the closed Action set
// reached the state machine. This is a programmer error and must never be
// silently ignored.
var ErrUnknownAction = errors.New("unknown action type, internal invariant violation")

const (
	// minPositionLiquidity is the residual liquidity below which a position
	// is considered fully withdrawn and destroyed.
	minPositionLiquidity = 0.01

	// lpMevExposureFraction is the fraction of LP add/remove notional exposed
	// to MEV extraction; swaps carry full exposure.
	lpMevExposureFraction = 0.10
)

// Position is one open concentrated-liquidity range, owned exclusively by a
// State. Invariant: LowerPrice < UpperPrice strictly.
type Position struct {
	LowerPrice float64 `json:"lower_price"`
	UpperPrice float64 `json:"upper_price"`
	Liquidity  float64 `json:"liquidity"`
}

// State holds the vault's balances and open position. Invariant: balances
// are never negative and at most one position is open at any time.
type State struct {
	BaseBalance  float64   `json:"base_balance"`
	QuoteBalance float64   `json:"quote_balance"`
	Position     *Position `json:"position,omitempty"`
	RewardsUSD   float64   `json:"rewards_usd"`
}

// PositionValueUSD returns the USD value of the open position at the current
// price, or 0 when the vault is idle.
func (s State) PositionValueUSD(price float64) float64 {
	if s.Position == nil {
		return 0
	}
	return clmath.PositionValueUSD(s.Position.Liquidity, s.Position.LowerPrice, s.Position.UpperPrice, price)
}

// TotalValueUSD returns the total vault value at the current price.
func (s State) TotalValueUSD(price float64) float64 {
	return s.BaseBalance*price + s.QuoteBalance + s.PositionValueUSD(price)
}

// Apply executes one action against the state and returns the next state.
// The switch over the closed Action set is exhaustive; an unknown variant is
// a fatal internal-invariant violation.
func Apply(s State, action types.Action, snap types.PoolSnapshot, params types.RebalanceParams) (State, error) {
	switch action.Type {
	case types.ActionRemoveLiquidity:
		return removeLiquidity(s, action.Percent, snap.Price), nil
	case types.ActionAddLiquidity:
		return addLiquidity(s, action.LowerPrice, action.UpperPrice, action.AmountUSD, snap.Price), nil
	case types.ActionSwap:
		return swap(s, action.FromAsset, action.SwapAmount, snap, params), nil
	case types.ActionClaimRewards:
		return claimRewards(s), nil
	case types.ActionNoop:
		return s, nil
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownAction, action.Type)
	}
}

// removeLiquidity withdraws the proportional base/quote amounts at the
// current price. The percent is clamped to [0, 1]; a position left with
// residual liquidity at or below the dust threshold is destroyed.
func removeLiquidity(s State, percent, price float64) State {
	if s.Position == nil {
		return s
	}
	if percent < 0 || math.IsNaN(percent) {
		percent = 0
	} else if percent > 1 {
		percent = 1
	}

	pos := *s.Position
	removed := pos.Liquidity * percent
	baseOut, quoteOut := clmath.GetAmountsForLiquidity(removed, pos.LowerPrice, pos.UpperPrice, price)

	s.BaseBalance += baseOut
	s.QuoteBalance += quoteOut
	pos.Liquidity -= removed

	if pos.Liquidity <= minPositionLiquidity {
		s.Position = nil
	} else {
		s.Position = &pos
	}
	return s
}

// addLiquidity opens a new position sized from the currently available
// balances, committing at most amountUSD of vault value. Exactly the amounts
// the sizing returns are consumed; any unused asset stays in the balances.
// A degenerate range or zero sizable liquidity leaves the state unchanged.
func addLiquidity(s State, lower, upper, amountUSD, price float64) State {
	if price <= 0 || amountUSD <= 0 {
		return s
	}

	offeredBase := s.BaseBalance
	offeredQuote := s.QuoteBalance
	availValue := offeredBase*price + offeredQuote
	if availValue <= 0 {
		return s
	}
	if availValue > amountUSD {
		scale := amountUSD / availValue
		offeredBase *= scale
		offeredQuote *= scale
	}

	liquidity, baseUsed, quoteUsed, err := clmath.AddLiquidityAmounts(offeredBase, offeredQuote, lower, upper, price)
	if err != nil || liquidity <= minPositionLiquidity {
		// No liquidity addable; the engine treats this as a no-op.
		return s
	}

	s.BaseBalance -= baseUsed
	s.QuoteBalance -= quoteUsed
	if s.BaseBalance < 0 {
		s.BaseBalance = 0
	}
	if s.QuoteBalance < 0 {
		s.QuoteBalance = 0
	}
	s.Position = &Position{LowerPrice: lower, UpperPrice: upper, Liquidity: liquidity}
	return s
}

// swap exchanges up to the requested amount at an effective price including
// half the configured spread plus depth impact. The amount is capped by the
// available balance of the source asset.
func swap(s State, from types.AssetSide, amount float64, snap types.PoolSnapshot, params types.RebalanceParams) State {
	if amount <= 0 || math.IsNaN(amount) {
		return s
	}

	switch from {
	case types.AssetBase:
		if amount > s.BaseBalance {
			amount = s.BaseBalance
		}
		if amount <= 0 {
			return s
		}
		tradeValue := amount * snap.Price
		// Selling base receives below mid.
		effPrice := clmath.EffectiveSwapPrice(snap.Price, tradeValue, snap.PoolLiquidityUSD,
			params.SwapSpreadBps, params.SwapImpactBpsPer1Pct, false)
		if effPrice <= 0 {
			return s
		}
		s.BaseBalance -= amount
		s.QuoteBalance += amount * effPrice
	case types.AssetQuote:
		if amount > s.QuoteBalance {
			amount = s.QuoteBalance
		}
		if amount <= 0 {
			return s
		}
		// Buying base pays above mid.
		effPrice := clmath.EffectiveSwapPrice(snap.Price, amount, snap.PoolLiquidityUSD,
			params.SwapSpreadBps, params.SwapImpactBpsPer1Pct, true)
		if effPrice <= 0 {
			return s
		}
		s.QuoteBalance -= amount
		s.BaseBalance += amount / effPrice
	}
	return s
}

// claimRewards moves the entire unclaimed-rewards balance into the quote
// balance and resets it.
func claimRewards(s State) State {
	s.QuoteBalance += s.RewardsUSD
	s.RewardsUSD = 0
	return s
}

// Accrue applies one tick of fee and emission accrual before any action is
// applied. An in-range CL position earns its fee share of pool fees (added
// to the quote balance) and emissions proportional to its share of pool
// liquidity (added to unclaimed rewards). An out-of-range position earns
// nothing. Non-CL pools accrue on total vault value directly.
func Accrue(s State, snap types.PoolSnapshot, stepYears, avgRangeWidth float64) (State, float64, float64) {
	var feesUSD, emissionsUSD float64

	if snap.PoolType == types.PoolTypeCL {
		pos := s.Position
		if pos == nil {
			return s, 0, 0
		}
		if snap.Price < pos.LowerPrice || snap.Price > pos.UpperPrice {
			return s, 0, 0
		}
		posValue := s.PositionValueUSD(snap.Price)
		poolFees := snap.PoolLiquidityUSD * snap.FeeAPR * stepYears
		share := clmath.FeeShare(posValue, snap.PoolLiquidityUSD, snap.Price, pos.LowerPrice, pos.UpperPrice, avgRangeWidth)
		feesUSD = poolFees * share
		emissionsUSD = posValue * snap.EmissionAPR * stepYears
	} else {
		if s.Position != nil {
			return s, 0, 0
		}
		total := s.TotalValueUSD(snap.Price)
		feesUSD = total * snap.FeeAPR * stepYears
		emissionsUSD = total * snap.EmissionAPR * stepYears
	}

	s.QuoteBalance += feesUSD
	s.RewardsUSD += emissionsUSD
	return s, feesUSD, emissionsUSD
}

// PayCosts deducts a gas or MEV charge. The quote balance is drained first;
// any shortfall converts to an equivalent base-asset deduction at the current
// price, floored at zero. The vault never borrows.
func PayCosts(s State, costUSD, price float64) State {
	if costUSD <= 0 || math.IsNaN(costUSD) {
		return s
	}

	s.QuoteBalance -= costUSD
	if s.QuoteBalance < 0 {
		shortfallUSD := -s.QuoteBalance
		s.QuoteBalance = 0
		if price > 0 {
			s.BaseBalance -= shortfallUSD / price
		}
		if s.BaseBalance < 0 {
			s.BaseBalance = 0
		}
	}
	return s
}

// MevExposureUSD returns the MEV-exposed notional of one action against the
// current state: swaps carry full trade value, LP adds/removes carry a fixed
// fraction of the moved value, everything else carries none.
func MevExposureUSD(s State, action types.Action, price float64) float64 {
	switch action.Type {
	case types.ActionSwap:
		amount := action.SwapAmount
		if action.FromAsset == types.AssetBase {
			if amount > s.BaseBalance {
				amount = s.BaseBalance
			}
			return amount * price
		}
		if amount > s.QuoteBalance {
			amount = s.QuoteBalance
		}
		return amount
	case types.ActionRemoveLiquidity:
		percent := action.Percent
		if percent < 0 {
			percent = 0
		} else if percent > 1 {
			percent = 1
		}
		return s.PositionValueUSD(price) * percent * lpMevExposureFraction
	case types.ActionAddLiquidity:
		avail := s.BaseBalance*price + s.QuoteBalance
		amount := action.AmountUSD
		if amount > avail {
			amount = avail
		}
		if amount < 0 {
			amount = 0
		}
		return amount * lpMevExposureFraction
	default:
		return 0
	}
}
