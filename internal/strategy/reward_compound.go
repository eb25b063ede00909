package strategy

import (
	"fmt"

	"github.com/elys-network/vbt/internal/types"
)

// RewardCompound claims accrued emission rewards once they reach the
// configured minimum, converting them into productive quote balance.
type RewardCompound struct{}

func (RewardCompound) Name() string { return "reward-compound" }

func (st RewardCompound) Decide(ctx Context) types.StrategyDecision {
	rewards := ctx.Vault.RewardsUSD
	if rewards < ctx.Params.RewardsClaimUSD {
		return pass(st.Name(), fmt.Sprintf("rewards %.2f USD below claim minimum", rewards))
	}

	reason := fmt.Sprintf("claiming %.2f USD of accrued rewards", rewards)

	// The claimed amount itself is the gain: it moves from an idle balance
	// into capital the vault can redeploy.
	score, ok := gateByGas(rewards, ctx.Snapshot, ctx.Params)
	if !ok {
		return vetoed(st.Name(), reason+", vetoed by gas gate", score)
	}

	return types.StrategyDecision{
		ShouldRebalance: true,
		Score:           score,
		Reason:          reason,
		Actions: []types.Action{{
			Type:   types.ActionClaimRewards,
			MinUSD: ctx.Params.RewardsClaimUSD,
		}},
		Strategy: st.Name(),
	}
}
