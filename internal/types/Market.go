/*

This file contains the market-data types consumed by the backtest engine:
the raw per-tick observation and the enriched per-tick pool snapshot.

*/

package types

// PoolType identifies the AMM pool model being simulated.
type PoolType string

const (
	PoolTypeCL       PoolType = "cl"       // Concentrated-liquidity pool with bounded price ranges
	PoolTypeVolatile PoolType = "volatile" // Full-range volatile pair
	PoolTypeStable   PoolType = "stable"   // Full-range stable pair
)

// MarketPoint is one observed market tick. Points are externally supplied,
// immutable, and ordered by timestamp ascending. Timestamp and price must be
// finite; the economic fields may be NaN, in which case the engine substitutes
// the matching BacktestConfig default.
type MarketPoint struct {
	TsMs             int64   `json:"ts_ms"`                // Unix timestamp in milliseconds
	Price            float64 `json:"price"`                // Quote per base unit, must be > 0
	FeeAPR           float64 `json:"fee_apr"`              // Annualized swap-fee rate (fraction, e.g. 0.12)
	EmissionAPR      float64 `json:"emission_apr"`         // Annualized emissions rate (fraction)
	PoolLiquidityUSD float64 `json:"pool_liquidity_usd"`   // Pool depth in USD
	GasUSD           float64 `json:"gas_usd"`              // Cost of one rebalancing transaction in USD
	VolumeUSD        float64 `json:"volume_usd,omitempty"` // Optional trailing trading volume
	FeeTier          float64 `json:"fee_tier,omitempty"`   // Optional pool fee tier (fraction)
}

// PoolSnapshot is the per-tick view the strategies decide on. It is rebuilt
// from a MarketPoint plus rolling statistics every tick and never persisted.
type PoolSnapshot struct {
	PoolType         PoolType `json:"pool_type"`
	TsMs             int64    `json:"ts_ms"`
	Price            float64  `json:"price"`
	TwapShort        float64  `json:"twap_short"`
	TwapLong         float64  `json:"twap_long"`
	AnnualizedVol    float64  `json:"annualized_vol"`
	FeeAPR           float64  `json:"fee_apr"`
	EmissionAPR      float64  `json:"emission_apr"`
	PoolLiquidityUSD float64  `json:"pool_liquidity_usd"`
	GasUSD           float64  `json:"gas_usd"`
}
