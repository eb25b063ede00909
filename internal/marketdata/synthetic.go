/*

This file generates deterministic synthetic market series for backtests
without a CSV feed. Prices follow geometric Brownian motion driven by a
seeded linear congruential generator with Box-Muller normals; identical
seeds always reproduce the identical series. Gas follows a time-of-day
curve so rebalance timing interacts with cost.

*/

package marketdata

import (
	"math"

	"github.com/elys-network/vbt/internal/logger"
	"github.com/elys-network/vbt/internal/types"
)

// SyntheticConfig parameterizes one generated series.
type SyntheticConfig struct {
	Seed             uint32  `json:"seed"`
	StartTsMs        int64   `json:"start_ts_ms"`
	StepMinutes      int     `json:"step_minutes"`
	Points           int     `json:"points"`
	StartPrice       float64 `json:"start_price"`
	AnnualDriftPct   float64 `json:"annual_drift_pct"`   // Expected annual price drift, e.g. 10 for +10%/yr
	AnnualVolPct     float64 `json:"annual_vol_pct"`     // Annualized volatility, e.g. 60 for 60%/yr
	FeeAPR           float64 `json:"fee_apr"`            // Base fee APR modulated by volume
	EmissionAPR      float64 `json:"emission_apr"`       // Constant emission APR
	PoolLiquidityUSD float64 `json:"pool_liquidity_usd"` // Pool depth
	BaseGasUSD       float64 `json:"base_gas_usd"`       // Midpoint of the daily gas curve
}

// rng is a 32-bit linear congruential generator with the Numerical Recipes
// constants. Plenty for synthetic price paths, and trivially reproducible.
type rng struct {
	state    uint32
	spare    float64
	hasSpare bool
}

func newRng(seed uint32) *rng {
	return &rng{state: seed}
}

// next returns a uniform sample in [0, 1).
func (r *rng) next() float64 {
	r.state = r.state*1664525 + 1013904223
	return float64(r.state) / float64(1<<32)
}

// normal returns a standard normal sample via Box-Muller, caching the spare.
func (r *rng) normal() float64 {
	if r.hasSpare {
		r.hasSpare = false
		return r.spare
	}
	u1 := r.next()
	if u1 < 1e-12 {
		u1 = 1e-12
	}
	u2 := r.next()
	mag := math.Sqrt(-2 * math.Log(u1))
	r.spare = mag * math.Sin(2*math.Pi*u2)
	r.hasSpare = true
	return mag * math.Cos(2*math.Pi*u2)
}

// GenerateSeries produces a deterministic synthetic market series.
func GenerateSeries(cfg SyntheticConfig) []types.MarketPoint {
	if cfg.Points <= 0 || cfg.StartPrice <= 0 || cfg.StepMinutes <= 0 {
		return nil
	}

	r := newRng(cfg.Seed)
	stepYears := float64(cfg.StepMinutes) / (365 * 24 * 60)
	drift := cfg.AnnualDriftPct / 100
	vol := cfg.AnnualVolPct / 100
	stepMs := int64(cfg.StepMinutes) * 60 * 1000

	series := make([]types.MarketPoint, 0, cfg.Points)
	price := cfg.StartPrice
	for i := 0; i < cfg.Points; i++ {
		ts := cfg.StartTsMs + int64(i)*stepMs
		if i > 0 {
			// GBM step: exact log-normal increment, not the Euler scheme.
			z := r.normal()
			price *= math.Exp((drift-vol*vol/2)*stepYears + vol*math.Sqrt(stepYears)*z)
		}

		// Volume swells with the size of the move; fees follow volume.
		volumeUSD := cfg.PoolLiquidityUSD * 0.05 * (0.5 + r.next())
		feeAPR := cfg.FeeAPR * (0.75 + 0.5*volumeUSD/(cfg.PoolLiquidityUSD*0.05))

		series = append(series, types.MarketPoint{
			TsMs:             ts,
			Price:            price,
			FeeAPR:           feeAPR,
			EmissionAPR:      cfg.EmissionAPR,
			PoolLiquidityUSD: cfg.PoolLiquidityUSD,
			GasUSD:           gasAt(ts, cfg.BaseGasUSD),
			VolumeUSD:        volumeUSD,
		})
	}

	log := logger.GetForComponent("marketdata")
	log.Debug().
		Uint32("seed", cfg.Seed).
		Int("points", len(series)).
		Msg("Generated synthetic market series")
	return series
}

// gasAt models a daily gas cycle peaking during US trading hours: a cosine
// over the UTC day, swinging half the base cost either way.
func gasAt(tsMs int64, baseGasUSD float64) float64 {
	if baseGasUSD <= 0 {
		return 0
	}
	msPerDay := int64(24 * 60 * 60 * 1000)
	dayFrac := float64(tsMs%msPerDay) / float64(msPerDay)
	// Peak around 16:00 UTC.
	return baseGasUSD * (1 + 0.5*math.Cos(2*math.Pi*(dayFrac-16.0/24)))
}
