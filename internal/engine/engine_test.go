package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/vbt/internal/config"
	"github.com/elys-network/vbt/internal/marketdata"
	"github.com/elys-network/vbt/internal/types"
)

func testConfig(poolType types.PoolType) types.BacktestConfig {
	cfg := config.DefaultBacktestConfig
	cfg.PoolType = poolType
	cfg.LookbackDays = 30
	return cfg
}

func testSeries(seed uint32, points int) []types.MarketPoint {
	return marketdata.GenerateSeries(marketdata.SyntheticConfig{
		Seed:             seed,
		StartTsMs:        1735689600000, // 2025-01-01T00:00:00Z
		StepMinutes:      60,
		Points:           points,
		StartPrice:       2.50,
		AnnualVolPct:     60,
		FeeAPR:           0.15,
		EmissionAPR:      0.10,
		PoolLiquidityUSD: 5000000,
		BaseGasUSD:       0.50,
	})
}

func TestRunRejectsEmptySeries(t *testing.T) {
	_, err := Run(testConfig(types.PoolTypeCL), nil)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestRunRejectsNonPositiveCapital(t *testing.T) {
	cfg := testConfig(types.PoolTypeCL)
	cfg.InitialCapitalUSD = 0
	_, err := Run(cfg, testSeries(1, 10))
	assert.Error(t, err)
}

func TestRunIsDeterministic(t *testing.T) {
	cfg := testConfig(types.PoolTypeCL)
	series := testSeries(7, 24*30)

	first, err := Run(cfg, series)
	require.NoError(t, err)
	second, err := Run(cfg, series)
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical inputs must reproduce the identical result")
}

func TestRunEquityCurveShape(t *testing.T) {
	cfg := testConfig(types.PoolTypeCL)
	series := testSeries(7, 24*30)

	result, err := Run(cfg, series)
	require.NoError(t, err)

	require.Len(t, result.EquityCurve, len(series))
	assert.Equal(t, series[0].TsMs, result.StartTsMs)
	assert.Equal(t, series[len(series)-1].TsMs, result.EndTsMs)
	assert.Equal(t, len(series), result.TickCount)

	for i := 1; i < len(result.EquityCurve); i++ {
		assert.Greater(t, result.EquityCurve[i].TsMs, result.EquityCurve[i-1].TsMs)
	}
	for _, p := range result.EquityCurve {
		assert.GreaterOrEqual(t, p.ValueUSD, 0.0)
	}
}

func TestRunSummaryConsistency(t *testing.T) {
	cfg := testConfig(types.PoolTypeCL)
	series := testSeries(11, 24*30)

	result, err := Run(cfg, series)
	require.NoError(t, err)

	s := result.Summary
	assert.Equal(t, cfg.InitialCapitalUSD, s.StartValueUSD)
	last := result.EquityCurve[len(result.EquityCurve)-1]
	assert.Equal(t, last.ValueUSD, s.EndValueUSD)
	assert.InEpsilon(t, (s.EndValueUSD/s.StartValueUSD-1)*100, s.TotalReturnPct, 1e-9)

	assert.GreaterOrEqual(t, s.MaxDrawdownPct, 0.0)
	assert.GreaterOrEqual(t, s.TotalFeesUSD, 0.0)
	assert.GreaterOrEqual(t, s.TotalEmissionsUSD, 0.0)
	assert.GreaterOrEqual(t, s.TotalGasUSD, 0.0)
	assert.GreaterOrEqual(t, s.TotalMevUSD, 0.0)
	assert.Equal(t, s.RebalanceCount, len(result.Actions))
}

func TestRunSeedsCLPosition(t *testing.T) {
	cfg := testConfig(types.PoolTypeCL)
	series := testSeries(3, 48)

	result, err := Run(cfg, series)
	require.NoError(t, err)

	// Seeding deploys capital without charging gas, so until the first
	// rebalance the vault has paid nothing.
	if result.Summary.RebalanceCount == 0 {
		assert.Zero(t, result.Summary.TotalGasUSD)
	}
	// A deployed in-range position accrues fees.
	assert.Greater(t, result.Summary.TotalFeesUSD, 0.0)
}

func TestRunFullRangePoolAccruesWithoutPosition(t *testing.T) {
	cfg := testConfig(types.PoolTypeVolatile)
	series := testSeries(5, 24*30)

	result, err := Run(cfg, series)
	require.NoError(t, err)

	assert.Greater(t, result.Summary.TotalFeesUSD, 0.0)
	assert.Greater(t, result.Summary.TotalEmissionsUSD, 0.0)
	assert.Equal(t, types.PoolTypeVolatile, result.LastSnapshot.PoolType)
}

func TestRunSubstitutesDefaultsForMissingEconomics(t *testing.T) {
	cfg := testConfig(types.PoolTypeVolatile)
	series := testSeries(9, 48)
	for i := range series {
		series[i].FeeAPR = -1 // invalid, engine must fall back
		series[i].GasUSD = 0
	}

	result, err := Run(cfg, series)
	require.NoError(t, err)
	assert.Equal(t, cfg.DefaultFeeAPR, result.LastSnapshot.FeeAPR)
	assert.Equal(t, cfg.DefaultGasUSD, result.LastSnapshot.GasUSD)
}
