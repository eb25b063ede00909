/*

This file contains the backtest engine. It walks a market series tick by
tick: derive rolling statistics, accrue yield, let the strategy runner pick
an action set, apply it against the vault with gas and MEV costs, and record
the equity curve. Identical inputs always produce an identical result.

*/

package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/elys-network/vbt/internal/analyzer"
	"github.com/elys-network/vbt/internal/clmath"
	"github.com/elys-network/vbt/internal/logger"
	"github.com/elys-network/vbt/internal/strategy"
	"github.com/elys-network/vbt/internal/types"
	"github.com/elys-network/vbt/internal/vault"
)

// ErrNoData indicates an empty market series.
var ErrNoData = errors.New("market series contains no data points")

// Run executes one full backtest of the configured vault over the series.
func Run(cfg types.BacktestConfig, series []types.MarketPoint) (*types.BacktestResult, error) {
	log := logger.GetForComponent("engine")

	if len(series) == 0 {
		return nil, ErrNoData
	}
	if cfg.InitialCapitalUSD <= 0 {
		return nil, fmt.Errorf("initial capital must be positive, got %f", cfg.InitialCapitalUSD)
	}

	runner := strategy.NewRunner(strategy.DefaultStrategies())
	stepYears := cfg.StepYears()
	stepsPerYear := cfg.StepsPerYear()
	avgWidth := cfg.Rebalance.AvgPoolRangeWidth
	if avgWidth <= 0 {
		avgWidth = clmath.DefaultAvgPoolRangeWidth
	}

	// The vault starts all-quote; CL vaults are seeded on the first tick.
	st := vault.State{QuoteBalance: cfg.InitialCapitalUSD}

	result := &types.BacktestResult{
		Config:      cfg,
		StartTsMs:   series[0].TsMs,
		EndTsMs:     series[len(series)-1].TsMs,
		TickCount:   len(series),
		EquityCurve: make([]types.EquityPoint, 0, len(series)),
		Actions:     make([]types.ActionLogEntry, 0),
	}

	prices := make([]float64, 0, len(series))
	logReturns := make([]float64, 0, len(series))
	var summary types.Summary

	for i, point := range series {
		prices = append(prices, point.Price)
		if i > 0 && point.Price > 0 && series[i-1].Price > 0 {
			logReturns = append(logReturns, math.Log(point.Price/series[i-1].Price))
		}

		snap := buildSnapshot(cfg, point, prices, logReturns, stepsPerYear)

		var feesUSD, emissionsUSD float64
		st, feesUSD, emissionsUSD = vault.Accrue(st, snap, stepYears, avgWidth)
		summary.TotalFeesUSD += feesUSD
		summary.TotalEmissionsUSD += emissionsUSD

		if cfg.PoolType == types.PoolTypeCL && st.Position == nil && snap.Price > 0 {
			st = seedPosition(st, snap, cfg.Rebalance)
		}

		// The first tick has no return history; statistics and strategies
		// need at least one prior observation.
		if i >= 1 {
			decision := runner.Evaluate(strategy.Context{Snapshot: snap, Vault: st, Params: cfg.Rebalance})
			if decision.ShouldRebalance && len(decision.Actions) > 0 {
				var err error
				st, err = applyDecision(st, decision, snap, cfg.Rebalance, &summary, result)
				if err != nil {
					return nil, err
				}
			}
		}

		result.EquityCurve = append(result.EquityCurve, types.EquityPoint{
			TsMs:     point.TsMs,
			ValueUSD: st.TotalValueUSD(snap.Price),
			Price:    snap.Price,
		})

		if i == len(series)-1 {
			result.LastSnapshot = snap
		}
	}

	finalizeSummary(&summary, cfg, result)
	result.Summary = summary

	log.Info().
		Int("ticks", result.TickCount).
		Float64("end_value_usd", summary.EndValueUSD).
		Float64("total_return_pct", summary.TotalReturnPct).
		Int("rebalances", summary.RebalanceCount).
		Msg("Backtest complete")

	return result, nil
}

// buildSnapshot derives the per-tick pool view, substituting configured
// defaults wherever the series carries missing or invalid economics.
func buildSnapshot(cfg types.BacktestConfig, point types.MarketPoint, prices, logReturns []float64, stepsPerYear float64) types.PoolSnapshot {
	snap := types.PoolSnapshot{
		PoolType:         cfg.PoolType,
		TsMs:             point.TsMs,
		Price:            point.Price,
		TwapShort:        analyzer.RollingMean(prices, cfg.TwapShortSteps()),
		TwapLong:         analyzer.RollingMean(prices, cfg.TwapLongSteps()),
		AnnualizedVol:    analyzer.RollingVolatility(logReturns, cfg.VolWindowSteps(), stepsPerYear),
		FeeAPR:           point.FeeAPR,
		EmissionAPR:      point.EmissionAPR,
		PoolLiquidityUSD: point.PoolLiquidityUSD,
		GasUSD:           point.GasUSD,
	}

	if !isFiniteNonNegative(snap.FeeAPR) {
		snap.FeeAPR = cfg.DefaultFeeAPR
	}
	if !isFiniteNonNegative(snap.EmissionAPR) {
		snap.EmissionAPR = cfg.DefaultEmissionAPR
	}
	if !isFinitePositive(snap.PoolLiquidityUSD) {
		snap.PoolLiquidityUSD = cfg.DefaultPoolLiquidityUSD
	}
	if !isFinitePositive(snap.GasUSD) {
		snap.GasUSD = cfg.DefaultGasUSD
	}
	return snap
}

// seedPosition opens the initial concentrated-liquidity position. Startup
// capital converts to a 50/50 split at the mid price with no spread or gas,
// then deploys into a volatility-sized band around the current price.
func seedPosition(st vault.State, snap types.PoolSnapshot, params types.RebalanceParams) vault.State {
	total := st.TotalValueUSD(snap.Price)
	if total <= 0 {
		return st
	}
	st.BaseBalance = total / 2 / snap.Price
	st.QuoteBalance = total / 2

	width := strategy.BandWidth(snap.AnnualizedVol, params)
	lower := snap.Price * (1 - width/2)
	upper := snap.Price * (1 + width/2)

	next, err := vault.Apply(st, types.Action{
		Type:       types.ActionAddLiquidity,
		LowerPrice: lower,
		UpperPrice: upper,
		AmountUSD:  total,
	}, snap, params)
	if err != nil {
		return st
	}
	return next
}

// applyDecision executes the winning decision's actions in order, charging
// gas once per rebalance event and MEV on the aggregate exposed notional.
func applyDecision(st vault.State, decision types.StrategyDecision, snap types.PoolSnapshot, params types.RebalanceParams, summary *types.Summary, result *types.BacktestResult) (vault.State, error) {
	var exposureUSD float64
	actionTypes := make([]types.ActionType, 0, len(decision.Actions))

	for _, action := range decision.Actions {
		exposureUSD += vault.MevExposureUSD(st, action, snap.Price)
		next, err := vault.Apply(st, action, snap, params)
		if err != nil {
			return st, fmt.Errorf("applying %s action from %s: %w", action.Type, decision.Strategy, err)
		}
		st = next
		actionTypes = append(actionTypes, action.Type)
	}

	mevUSD := clmath.EstimateMevCostUSD(exposureUSD, snap.PoolLiquidityUSD, snap.AnnualizedVol, params.MevBps)
	st = vault.PayCosts(st, snap.GasUSD, snap.Price)
	st = vault.PayCosts(st, mevUSD, snap.Price)

	summary.TotalGasUSD += snap.GasUSD
	summary.TotalMevUSD += mevUSD
	summary.RebalanceCount++

	result.Actions = append(result.Actions, types.ActionLogEntry{
		TsMs:        snap.TsMs,
		Strategy:    decision.Strategy,
		Reason:      decision.Reason,
		ActionTypes: actionTypes,
		GasUSD:      snap.GasUSD,
	})
	return st, nil
}

func finalizeSummary(summary *types.Summary, cfg types.BacktestConfig, result *types.BacktestResult) {
	curve := result.EquityCurve
	summary.StartValueUSD = cfg.InitialCapitalUSD
	summary.EndValueUSD = curve[len(curve)-1].ValueUSD
	summary.TotalReturnPct = (summary.EndValueUSD/summary.StartValueUSD - 1) * 100

	years := float64(cfg.LookbackDays) / 365
	if years <= 0 {
		years = float64(result.EndTsMs-result.StartTsMs) / (1000 * 60 * 60 * 24 * 365)
	}
	if years > 0 && summary.EndValueUSD > 0 && summary.StartValueUSD > 0 {
		summary.AnnualizedReturnPct = (math.Pow(summary.EndValueUSD/summary.StartValueUSD, 1/years) - 1) * 100
	}

	values := make([]float64, len(curve))
	for i, p := range curve {
		values[i] = p.ValueUSD
	}
	summary.MaxDrawdownPct = analyzer.MaxDrawdownPct(values)
}

func isFiniteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func isFinitePositive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
