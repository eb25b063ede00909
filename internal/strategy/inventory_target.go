package strategy

import (
	"fmt"
	"math"

	"github.com/elys-network/vbt/internal/types"
)

// InventoryTarget rebalances full-range holdings back to a 50/50 value split
// when drift exceeds the configured threshold. It only applies to pools
// without a concentrated range, where the vault's balances are the position.
type InventoryTarget struct{}

func (InventoryTarget) Name() string { return "inventory-target" }

func (st InventoryTarget) Decide(ctx Context) types.StrategyDecision {
	snap := ctx.Snapshot
	if snap.PoolType == types.PoolTypeCL {
		return pass(st.Name(), "only applies to full-range pools")
	}
	if snap.Price <= 0 {
		return pass(st.Name(), "no valid price")
	}

	baseValue := ctx.Vault.BaseBalance * snap.Price
	total := baseValue + ctx.Vault.QuoteBalance
	if total <= 0 {
		return pass(st.Name(), "vault holds no value")
	}

	baseWeight := baseValue / total
	drift := math.Abs(baseWeight - 0.5)
	if drift < ctx.Params.DriftThreshold {
		return pass(st.Name(), fmt.Sprintf("inventory drift %.4f below threshold", drift))
	}

	imbalanceUSD := drift * total
	reason := fmt.Sprintf("base weight %.4f drifted %.4f from 50/50 target", baseWeight, drift)

	// The gain is the horizon yield on the notional brought back to target,
	// not on the whole vault: only the swapped slice was mispositioned.
	score, ok := gateByGas(horizonGainUSD(imbalanceUSD, snap, ctx.Params), snap, ctx.Params)
	if !ok {
		return vetoed(st.Name(), reason+", vetoed by gas gate", score)
	}

	var action types.Action
	if baseWeight > 0.5 {
		action = types.Action{
			Type:       types.ActionSwap,
			FromAsset:  types.AssetBase,
			SwapAmount: imbalanceUSD / snap.Price,
		}
	} else {
		action = types.Action{
			Type:       types.ActionSwap,
			FromAsset:  types.AssetQuote,
			SwapAmount: imbalanceUSD,
		}
	}

	return types.StrategyDecision{
		ShouldRebalance: true,
		Score:           score,
		Reason:          reason,
		Actions:         []types.Action{action},
		Strategy:        st.Name(),
	}
}
