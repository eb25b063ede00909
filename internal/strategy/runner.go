package strategy

import (
	"math"

	"github.com/elys-network/vbt/internal/logger"
	"github.com/elys-network/vbt/internal/types"
)

// Runner evaluates a fixed, ordered set of strategies each tick and selects
// the best actionable decision. Evaluation order is the tie-break: a later
// strategy replaces the incumbent only with a strictly greater score.
type Runner struct {
	strategies []Strategy
}

// DefaultStrategies returns the standard evaluator set in its canonical
// order. The order is part of the decision semantics, not a convenience.
func DefaultStrategies() []Strategy {
	return []Strategy{
		RangeAroundTwap{},
		TrendSkew{},
		InventoryTarget{},
		RewardCompound{},
	}
}

func NewRunner(strategies []Strategy) *Runner {
	return &Runner{strategies: strategies}
}

// Evaluate runs every strategy against the context and returns the winning
// decision. When nothing actionable fires, the result is a NOOP decision
// with a negative-infinity score.
func (r *Runner) Evaluate(ctx Context) types.StrategyDecision {
	log := logger.GetForComponent("strategy_runner")

	best := types.StrategyDecision{
		ShouldRebalance: false,
		Score:           math.Inf(-1),
		Reason:          "no strategy produced an actionable decision",
		Strategy:        "none",
	}

	for _, s := range r.strategies {
		d := s.Decide(ctx)
		log.Debug().
			Str("strategy", s.Name()).
			Bool("actionable", d.ShouldRebalance).
			Float64("score", d.Score).
			Str("reason", d.Reason).
			Msg("Strategy evaluated")
		if d.ShouldRebalance && d.Score > best.Score {
			best = d
		}
	}

	return best
}
