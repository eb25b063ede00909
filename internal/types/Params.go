/*

This file contains the tunable rebalancing parameters and the full backtest
configuration. Different parameter sets can exist for different market
regimes; a set is immutable for the duration of one run.

*/

package types

// RebalanceParams holds all tunable thresholds and coefficients used by the
// strategy evaluators and the cost model.
type RebalanceParams struct {
	// --- Gating ---
	MinGasMultiple       float64 `json:"min_gas_multiple"`       // Minimum ratio of expected gain to gas cost before a strategy may act.
	TargetRebalanceHours float64 `json:"target_rebalance_hours"` // Horizon (hours) over which expected gain is estimated.

	// --- CL band sizing ---
	BandWidthVolMultiple float64 `json:"band_width_vol_multiple"` // Multiplier k on annualized volatility when sizing the range width.
	MinBandWidth         float64 `json:"min_band_width"`          // Lower clamp on the fractional range width.
	MaxBandWidth         float64 `json:"max_band_width"`          // Upper clamp on the fractional range width.

	// --- Trend / inventory thresholds ---
	DriftThreshold float64 `json:"drift_threshold"` // Minimum deviation from the 50/50 inventory target before swapping.
	TrendThreshold float64 `json:"trend_threshold"` // Minimum short/long TWAP momentum before skewing the range.
	MaxSkew        float64 `json:"max_skew"`        // Clamp on the fractional range-center skew.

	// --- Rewards ---
	RewardsClaimUSD float64 `json:"rewards_claim_usd"` // Unclaimed-rewards balance required before compounding.

	// --- Execution cost model (optional, zero disables the component) ---
	SwapSpreadBps        float64 `json:"swap_spread_bps"`          // Full quoted spread in basis points; trades pay half of it.
	SwapImpactBpsPer1Pct float64 `json:"swap_impact_bps_per_1pct"` // Price impact in bps per 1% of pool depth traded.
	MevBps               float64 `json:"mev_bps"`                  // Base MEV extraction rate in bps of exposed notional.

	// --- Fee-share model ---
	AvgPoolRangeWidth float64 `json:"avg_pool_range_width"` // Assumed fractional range width of other LPs (default 0.20).
}

// BacktestConfig is the full configuration surface for one run. It is
// immutable once the run starts; identical config plus identical series
// reproduces an identical result.
type BacktestConfig struct {
	PoolType          PoolType `json:"pool_type"`
	StepMinutes       int      `json:"step_minutes"`
	LookbackDays      int      `json:"lookback_days"`
	InitialCapitalUSD float64  `json:"initial_capital_usd"`

	// Defaults substituted for missing or non-finite per-tick fields.
	DefaultFeeAPR           float64 `json:"default_fee_apr"`
	DefaultEmissionAPR      float64 `json:"default_emission_apr"`
	DefaultPoolLiquidityUSD float64 `json:"default_pool_liquidity_usd"`
	DefaultGasUSD           float64 `json:"default_gas_usd"`

	// Rolling-window sizes.
	VolWindowDays  int `json:"vol_window_days"`
	TwapShortHours int `json:"twap_short_hours"`
	TwapLongHours  int `json:"twap_long_hours"`

	Rebalance RebalanceParams `json:"rebalance"`
}

const minutesPerYear = 365 * 24 * 60

// StepsPerYear returns how many ticks of StepMinutes fit into one year.
func (c BacktestConfig) StepsPerYear() float64 {
	if c.StepMinutes <= 0 {
		return 0
	}
	return minutesPerYear / float64(c.StepMinutes)
}

// StepYears returns the fraction of a year covered by one tick.
func (c BacktestConfig) StepYears() float64 {
	return float64(c.StepMinutes) / minutesPerYear
}

// VolWindowSteps returns the volatility window size in ticks.
func (c BacktestConfig) VolWindowSteps() int {
	if c.StepMinutes <= 0 {
		return 0
	}
	return c.VolWindowDays * 24 * 60 / c.StepMinutes
}

// TwapShortSteps returns the short TWAP window size in ticks.
func (c BacktestConfig) TwapShortSteps() int {
	if c.StepMinutes <= 0 {
		return 0
	}
	return c.TwapShortHours * 60 / c.StepMinutes
}

// TwapLongSteps returns the long TWAP window size in ticks.
func (c BacktestConfig) TwapLongSteps() int {
	if c.StepMinutes <= 0 {
		return 0
	}
	return c.TwapLongHours * 60 / c.StepMinutes
}
