/*

This file contains the default parameters for the vault backtester.

These defaults model a mid-cap volatile pair on a low-fee chain. Each value
balances responsiveness against churn: a vault that repositions too eagerly
bleeds its yield into gas, spread and MEV.

*/

package config

import (
	"github.com/elys-network/vbt/internal/types"
)

// DefaultRebalanceParams provides a baseline parameter set for the strategy
// evaluators. These values are used if no active parameters are found in the
// database during initialization.
var DefaultRebalanceParams = types.RebalanceParams{
	// --- Gas Gating ---
	MinGasMultiple: 3.0, // Expected gain must cover gas 3x before acting.
	// Rationale: gains are estimates and gas is certain. A 3x cushion means
	// even a 66% overestimate of yield still leaves the rebalance profitable.

	TargetRebalanceHours: 72, // Expected holding period of a deployed range.
	// Rationale: three days matches the half-life of trends on hourly data.
	// Shorter horizons shrink the expected gain and get vetoed by gas anyway.

	// --- Range Sizing ---
	BandWidthVolMultiple: 2.0, // Band width in units of horizon volatility.
	// Rationale: two standard deviations keeps roughly 95% of price paths
	// inside the range over the target horizon under a normal approximation.

	MinBandWidth: 0.02, // Never deploy tighter than 2% total width.
	MaxBandWidth: 0.60, // Never deploy wider than 60% total width.

	// --- Strategy Triggers ---
	DriftThreshold: 0.05, // Rebalance full-range inventory past 5% weight drift.
	TrendThreshold: 0.01, // Treat short/long TWAP divergence above 1% as a trend.
	MaxSkew:        0.10, // Cap trend-driven range offset at 10% of price.

	RewardsClaimUSD: 50, // Claim emissions once they reach $50.
	// Rationale: below this, claim gas eats a visible share of the reward.

	// --- Execution Cost Model ---
	SwapSpreadBps:        10,   // Full quoted spread in basis points.
	SwapImpactBpsPer1Pct: 25,   // Impact per 1% of pool depth traded.
	MevBps:               5,    // Baseline MEV extraction on exposed notional.
	AvgPoolRangeWidth:    0.20, // Assumed range width of competing LPs.
}

// DefaultBacktestConfig provides a complete baseline run configuration.
// The optional environment variables in General.go override its fields.
var DefaultBacktestConfig = types.BacktestConfig{
	PoolType:          types.PoolTypeCL,
	StepMinutes:       60,
	LookbackDays:      90,
	InitialCapitalUSD: 100000,

	// Fallback economics for ticks with missing or invalid data.
	DefaultFeeAPR:           0.15,
	DefaultEmissionAPR:      0.10,
	DefaultPoolLiquidityUSD: 5000000,
	DefaultGasUSD:           0.50,

	// Statistics windows.
	VolWindowDays:  7,
	TwapShortHours: 4,
	TwapLongHours:  24,

	Rebalance: DefaultRebalanceParams,
}

// BacktestConfigFromEnv assembles the run configuration from the defaults
// overlaid with whatever LoadConfig read from the environment.
func BacktestConfigFromEnv() types.BacktestConfig {
	cfg := DefaultBacktestConfig
	cfg.PoolType = types.PoolType(PoolType)
	cfg.StepMinutes = StepMinutes
	cfg.LookbackDays = LookbackDays
	cfg.InitialCapitalUSD = InitialCapitalUSD
	return cfg
}
