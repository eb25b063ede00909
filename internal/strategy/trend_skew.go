package strategy

import (
	"fmt"
	"math"

	"github.com/elys-network/vbt/internal/types"
)

// TrendSkew shifts the liquidity band in the direction of TWAP momentum so
// the position leans into a detected trend instead of straddling it.
type TrendSkew struct{}

func (TrendSkew) Name() string { return "trend-skew" }

func (st TrendSkew) Decide(ctx Context) types.StrategyDecision {
	snap := ctx.Snapshot
	if snap.PoolType != types.PoolTypeCL {
		return pass(st.Name(), "only applies to concentrated-liquidity pools")
	}
	if snap.TwapShort <= 0 || snap.TwapLong <= 0 {
		return pass(st.Name(), "insufficient TWAP history")
	}

	momentum := snap.TwapShort/snap.TwapLong - 1
	if math.Abs(momentum) < ctx.Params.TrendThreshold {
		return pass(st.Name(), fmt.Sprintf("momentum %.4f below trend threshold", momentum))
	}

	skew := 2 * momentum
	if skew > ctx.Params.MaxSkew {
		skew = ctx.Params.MaxSkew
	} else if skew < -ctx.Params.MaxSkew {
		skew = -ctx.Params.MaxSkew
	}

	width := BandWidth(snap.AnnualizedVol, ctx.Params)
	center := snap.Price * (1 + skew)
	lower := center * (1 - width/2)
	upper := center * (1 + width/2)

	capital := ctx.Vault.TotalValueUSD(snap.Price)
	reason := fmt.Sprintf("momentum %.4f, skewing range center by %.4f", momentum, skew)

	score, ok := gateByGas(horizonGainUSD(capital, snap, ctx.Params), snap, ctx.Params)
	if !ok {
		return vetoed(st.Name(), reason+", vetoed by gas gate", score)
	}

	actions := make([]types.Action, 0, 2)
	if ctx.Vault.Position != nil {
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
