/*

This file contains the action types produced by strategies and consumed by the
vault state machine, plus the decision wrapper the strategy runner selects on.

*/

package types

// ActionType defines the specific low-level vault operations.
type ActionType string

const (
	ActionRemoveLiquidity ActionType = "REMOVE_LIQUIDITY"
	ActionAddLiquidity    ActionType = "ADD_LIQUIDITY"
	ActionSwap            ActionType = "SWAP"
	ActionClaimRewards    ActionType = "CLAIM_REWARDS"
	ActionNoop            ActionType = "NOOP"
)

// AssetSide names one of the two vault assets for swap directions.
type AssetSide string

const (
	AssetBase  AssetSide = "base"
	AssetQuote AssetSide = "quote"
)

// Action represents a single, executable step in a rebalancing plan. It is a
// tagged variant: Type selects which field group is meaningful. The vault
// state machine matches exhaustively on Type and treats an unknown tag as an
// internal-invariant violation.
type Action struct {
	Type ActionType `json:"type"`

	// Fields for REMOVE_LIQUIDITY
	Percent float64 `json:"percent,omitempty"` // Fraction of position liquidity to withdraw; clamped to [0, 1]

	// Fields for ADD_LIQUIDITY
	LowerPrice float64 `json:"lower_price,omitempty"`
	UpperPrice float64 `json:"upper_price,omitempty"`
	AmountUSD  float64 `json:"amount_usd,omitempty"` // Capital to commit, bounded by available balances

	// Fields for SWAP
	FromAsset  AssetSide `json:"from_asset,omitempty"`
	SwapAmount float64   `json:"swap_amount,omitempty"` // Amount in FromAsset units, capped by balance

	// Fields for CLAIM_REWARDS
	MinUSD float64 `json:"min_usd,omitempty"`
}

// StrategyDecision is the outcome of evaluating one strategy against one pool
// snapshot. A detected-but-vetoed condition is returned with
// ShouldRebalance=false and its computed score for diagnostic visibility.
type StrategyDecision struct {
	ShouldRebalance bool     `json:"should_rebalance"`
	Score           float64  `json:"score"` // Expected net USD gain; -Inf sentinel when no candidate
	Reason          string   `json:"reason"`
	Actions         []Action `json:"actions,omitempty"`
	Strategy        string   `json:"strategy"`
}
