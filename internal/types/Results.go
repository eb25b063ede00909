/*

This file contains the output record of one backtest run: the equity curve,
the action log, and the aggregate summary statistics.

*/

package types

// EquityPoint is one point of the equity curve: total vault value at a tick.
type EquityPoint struct {
	TsMs     int64   `json:"ts_ms"`
	ValueUSD float64 `json:"value_usd"`
	Price    float64 `json:"price"`
}

// ActionLogEntry records one applied rebalancing decision.
type ActionLogEntry struct {
	TsMs        int64        `json:"ts_ms"`
	Strategy    string       `json:"strategy"`
	Reason      string       `json:"reason"`
	ActionTypes []ActionType `json:"action_types"`
	GasUSD      float64      `json:"gas_usd"`
}

// Summary aggregates the run-level statistics. Percentage fields hold raw
// numeric percentages (12.5 means 12.5%).
type Summary struct {
	TotalReturnPct      float64 `json:"total_return_pct"`
	AnnualizedReturnPct float64 `json:"annualized_return_pct"`
	MaxDrawdownPct      float64 `json:"max_drawdown_pct"`
	StartValueUSD       float64 `json:"start_value_usd"`
	EndValueUSD         float64 `json:"end_value_usd"`
	TotalFeesUSD        float64 `json:"total_fees_usd"`
	TotalEmissionsUSD   float64 `json:"total_emissions_usd"`
	TotalGasUSD         float64 `json:"total_gas_usd"`
	TotalMevUSD         float64 `json:"total_mev_usd"`
	RebalanceCount      int     `json:"rebalance_count"`
}

// BacktestResult is the immutable output of one run. All fields are derived
// deterministically from (config, series); run identity and wall-clock
// metadata are attached by the persistence layer, not here.
type BacktestResult struct {
	Config       BacktestConfig   `json:"config"`
	StartTsMs    int64            `json:"start_ts_ms"`
	EndTsMs      int64            `json:"end_ts_ms"`
	TickCount    int              `json:"tick_count"`
	Summary      Summary          `json:"summary"`
	EquityCurve  []EquityPoint    `json:"equity_curve"`
	Actions      []ActionLogEntry `json:"actions"`
	LastSnapshot PoolSnapshot     `json:"last_snapshot"`
}
