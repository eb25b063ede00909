/*

This file defines the strategy interface and the shared scoring helpers.

Every evaluator receives the same read-only Context and returns a
StrategyDecision. Decisions carry an expected net USD gain as their score;
the runner picks the highest-scoring actionable decision. A strategy that
fails its gas gate still reports its score so the action log can explain
why nothing fired.

*/

package strategy

import (
	"math"

	"github.com/elys-network/vbt/internal/types"
	"github.com/elys-network/vbt/internal/vault"
)

const yearHours = 365 * 24

// Context is the read-only view an evaluator sees for one tick.
type Context struct {
	Snapshot types.PoolSnapshot
	Vault    vault.State
	Params   types.RebalanceParams
}

// Strategy is one rebalancing policy. Decide must be a pure function of the
// context so backtests stay deterministic.
type Strategy interface {
	Name() string
	Decide(ctx Context) types.StrategyDecision
}

// BandWidth converts annualized volatility into a fractional range width
// over the target holding horizon, clamped to the configured bounds. The
// engine also uses it to size the initial position.
func BandWidth(annualizedVol float64, p types.RebalanceParams) float64 {
	horizonYears := p.TargetRebalanceHours / yearHours
	width := p.BandWidthVolMultiple * annualizedVol * math.Sqrt(horizonYears)
	if width < p.MinBandWidth || math.IsNaN(width) {
		width = p.MinBandWidth
	}
	if width > p.MaxBandWidth {
		width = p.MaxBandWidth
	}
	return width
}

// horizonGainUSD estimates the USD yield a capital amount earns over the
// target rebalance horizon at the snapshot's combined APR.
func horizonGainUSD(capitalUSD float64, snap types.PoolSnapshot, p types.RebalanceParams) float64 {
	apr := snap.FeeAPR + snap.EmissionAPR
	return capitalUSD * apr * (p.TargetRebalanceHours / yearHours)
}

// gateByGas applies the gas-multiple veto: the expected gain must cover the
// gas cost MinGasMultiple times over. Returns the net score and whether the
// decision is actionable.
func gateByGas(gainUSD float64, snap types.PoolSnapshot, p types.RebalanceParams) (float64, bool) {
	score := gainUSD - snap.GasUSD
	if gainUSD < snap.GasUSD*p.MinGasMultiple {
		return score, false
	}
	return score, true
}

// vetoed builds the non-actionable decision an evaluator returns when its
// gas gate fails. The score is preserved for the action log.
func vetoed(name, reason string, score float64) types.StrategyDecision {
	return types.StrategyDecision{
		ShouldRebalance: false,
		Score:           score,
		Reason:          reason,
		Strategy:        name,
	}
}

// pass is the decision for a strategy whose trigger condition did not fire.
func pass(name, reason string) types.StrategyDecision {
	return types.StrategyDecision{
		ShouldRebalance: false,
		Score:           math.Inf(-1),
		Reason:          reason,
		Strategy:        name,
	}
}
