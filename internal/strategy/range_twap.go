package strategy

import (
	"fmt"
	"math"

	"github.com/elys-network/vbt/internal/types"
)

// RangeAroundTwap keeps a volatility-sized liquidity band centered on the
// long TWAP. It fires when the vault has no position, when price has escaped
// the current range, or when the desired band width has drifted materially
// from the deployed one.
type RangeAroundTwap struct{}

func (RangeAroundTwap) Name() string { return "range-around-twap" }

// widthRetriggerThreshold is the absolute difference in fractional band
// width that justifies repositioning on its own.
const widthRetriggerThreshold = 0.005

func (st RangeAroundTwap) Decide(ctx Context) types.StrategyDecision {
	snap := ctx.Snapshot
	if snap.PoolType != types.PoolTypeCL {
		return pass(st.Name(), "only applies to concentrated-liquidity pools")
	}

	center := snap.TwapLong
	if center <= 0 || math.IsNaN(center) {
		center = snap.Price
	}
	width := BandWidth(snap.AnnualizedVol, ctx.Params)
	lower := center * (1 - width/2)
	upper := center * (1 + width/2)

	var reason string
	pos := ctx.Vault.Position
	switch {
	case pos == nil:
		reason = "no open position"
	case snap.Price < pos.LowerPrice || snap.Price > pos.UpperPrice:
		reason = fmt.Sprintf("price %.6g outside range [%.6g, %.6g]", snap.Price, pos.LowerPrice, pos.UpperPrice)
	default:
		mid := (pos.LowerPrice + pos.UpperPrice) / 2
		if mid <= 0 {
			return pass(st.Name(), "deployed range has non-positive midpoint")
		}
		curWidth := (pos.UpperPrice - pos.LowerPrice) / mid
		if math.Abs(width-curWidth) <= widthRetriggerThreshold {
			return pass(st.Name(), "deployed range still fits target width")
		}
		reason = fmt.Sprintf("target width %.4f drifted from deployed %.4f", width, curWidth)
	}

	capital := ctx.Vault.TotalValueUSD(snap.Price)
	score, ok := gateByGas(horizonGainUSD(capital, snap, ctx.Params), snap, ctx.Params)
	if !ok {
		return vetoed(st.Name(), reason+", vetoed by gas gate", score)
	}

	actions := make([]types.Action, 0, 2)
	if pos != nil {
		actions = append(actions, types.Action{Type: types.ActionRemoveLiquidity, Percent: 1.0})
	}
	actions = append(actions, types.Action{
		Type:       types.ActionAddLiquidity,
		LowerPrice: lower,
		UpperPrice: upper,
		AmountUSD:  capital,
	})

	return types.StrategyDecision{
		ShouldRebalance: true,
		Score:           score,
		Reason:          reason,
		Actions:         actions,
		Strategy:        st.Name(),
	}
}
