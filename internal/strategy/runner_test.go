package strategy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/vbt/internal/types"
	"github.com/elys-network/vbt/internal/vault"
)

func testParams() types.RebalanceParams {
	return types.RebalanceParams{
		MinGasMultiple:       3,
		TargetRebalanceHours: 72,
		BandWidthVolMultiple: 2,
		MinBandWidth:         0.02,
		MaxBandWidth:         0.60,
		DriftThreshold:       0.05,
		TrendThreshold:       0.01,
		MaxSkew:              0.10,
		RewardsClaimUSD:      50,
		SwapSpreadBps:        10,
		SwapImpactBpsPer1Pct: 25,
		MevBps:               5,
		AvgPoolRangeWidth:    0.20,
	}
}

func clContext(price float64, v vault.State) Context {
	return Context{
		Snapshot: types.PoolSnapshot{
			PoolType:         types.PoolTypeCL,
			Price:            price,
			TwapShort:        price,
			TwapLong:         price,
			AnnualizedVol:    0.60,
			FeeAPR:           0.20,
			EmissionAPR:      0.10,
			PoolLiquidityUSD: 5000000,
			GasUSD:           0.50,
		},
		Vault:  v,
		Params: testParams(),
	}
}

// stubStrategy lets runner tests control decisions directly.
type stubStrategy struct {
	name     string
	decision types.StrategyDecision
}

func (s stubStrategy) Name() string { return s.name }
func (s stubStrategy) Decide(Context) types.StrategyDecision {
	d := s.decision
	d.Strategy = s.name
	return d
}

func TestRunnerPicksHighestScore(t *testing.T) {
	runner := NewRunner([]Strategy{
		stubStrategy{name: "low", decision: types.StrategyDecision{ShouldRebalance: true, Score: 1, Actions: []types.Action{{Type: types.ActionNoop}}}},
		stubStrategy{name: "high", decision: types.StrategyDecision{ShouldRebalance: true, Score: 10, Actions: []types.Action{{Type: types.ActionNoop}}}},
		stubStrategy{name: "mid", decision: types.StrategyDecision{ShouldRebalance: true, Score: 5, Actions: []types.Action{{Type: types.ActionNoop}}}},
	})

	best := runner.Evaluate(clContext(5, vault.State{QuoteBalance: 1000}))
	assert.Equal(t, "high", best.Strategy)
	assert.Equal(t, 10.0, best.Score)
}

func TestRunnerTieKeepsFirst(t *testing.T) {
	runner := NewRunner([]Strategy{
		stubStrategy{name: "first", decision: types.StrategyDecision{ShouldRebalance: true, Score: 5, Actions: []types.Action{{Type: types.ActionNoop}}}},
		stubStrategy{name: "second", decision: types.StrategyDecision{ShouldRebalance: true, Score: 5, Actions: []types.Action{{Type: types.ActionNoop}}}},
	})

	best := runner.Evaluate(clContext(5, vault.State{QuoteBalance: 1000}))
	assert.Equal(t, "first", best.Strategy)
}

func TestRunnerIgnoresVetoedDecisions(t *testing.T) {
	runner := NewRunner([]Strategy{
		// Vetoed decision with a huge score must not win.
		stubStrategy{name: "vetoed", decision: types.StrategyDecision{ShouldRebalance: false, Score: 1000}},
		stubStrategy{name: "small", decision: types.StrategyDecision{ShouldRebalance: true, Score: 1, Actions: []types.Action{{Type: types.ActionNoop}}}},
	})

	best := runner.Evaluate(clContext(5, vault.State{QuoteBalance: 1000}))
	assert.Equal(t, "small", best.Strategy)
}

func TestRunnerAllVetoedYieldsNoop(t *testing.T) {
	runner := NewRunner([]Strategy{
		stubStrategy{name: "a", decision: types.StrategyDecision{ShouldRebalance: false, Score: 10}},
		stubStrategy{name: "b", decision: types.StrategyDecision{ShouldRebalance: false, Score: 20}},
	})

	best := runner.Evaluate(clContext(5, vault.State{QuoteBalance: 1000}))
	assert.False(t, best.ShouldRebalance)
	assert.True(t, math.IsInf(best.Score, -1))
	assert.Empty(t, best.Actions)
}

func TestDefaultStrategiesOrder(t *testing.T) {
	strategies := DefaultStrategies()
	require.Len(t, strategies, 4)
	assert.Equal(t, "range-around-twap", strategies[0].Name())
	assert.Equal(t, "trend-skew", strategies[1].Name())
	assert.Equal(t, "inventory-target", strategies[2].Name())
	assert.Equal(t, "reward-compound", strategies[3].Name())
}

func TestRangeAroundTwapOpensMissingPosition(t *testing.T) {
	ctx := clContext(5, vault.State{QuoteBalance: 100000})
	d := RangeAroundTwap{}.Decide(ctx)

	require.True(t, d.ShouldRebalance)
	require.Len(t, d.Actions, 1)
	add := d.Actions[0]
	assert.Equal(t, types.ActionAddLiquidity, add.Type)
	assert.Less(t, add.LowerPrice, 5.0)
	assert.Greater(t, add.UpperPrice, 5.0)

	// Band centered on the TWAP with the volatility-derived width.
	width := BandWidth(ctx.Snapshot.AnnualizedVol, ctx.Params)
	assert.InEpsilon(t, 5*(1-width/2), add.LowerPrice, 1e-9)
	assert.InEpsilon(t, 5*(1+width/2), add.UpperPrice, 1e-9)
}

func TestRangeAroundTwapRemovesBeforeReadding(t *testing.T) {
	v := vault.State{Position: &vault.Position{LowerPrice: 6, UpperPrice: 7, Liquidity: 10000}}
	d := RangeAroundTwap{}.Decide(clContext(5, v)) // price escaped below the range

	require.True(t, d.ShouldRebalance)
	require.Len(t, d.Actions, 2)
	assert.Equal(t, types.ActionRemoveLiquidity, d.Actions[0].Type)
	assert.Equal(t, 1.0, d.Actions[0].Percent)
	assert.Equal(t, types.ActionAddLiquidity, d.Actions[1].Type)
}

func TestRangeAroundTwapHoldsWhenRangeFits(t *testing.T) {
	ctx := clContext(5, vault.State{QuoteBalance: 100000})
	width := BandWidth(ctx.Snapshot.AnnualizedVol, ctx.Params)
	ctx.Vault = vault.State{Position: &vault.Position{
		LowerPrice: 5 * (1 - width/2),
		UpperPrice: 5 * (1 + width/2),
		Liquidity:  10000,
	}}

	d := RangeAroundTwap{}.Decide(ctx)
	assert.False(t, d.ShouldRebalance)
	assert.True(t, math.IsInf(d.Score, -1))
}

func TestRangeAroundTwapGasVeto(t *testing.T) {
	// Tiny capital cannot cover gas; the decision is reported but vetoed.
	ctx := clContext(5, vault.State{QuoteBalance: 1})
	ctx.Snapshot.GasUSD = 50

	d := RangeAroundTwap{}.Decide(ctx)
	assert.False(t, d.ShouldRebalance)
	assert.False(t, math.IsInf(d.Score, -1), "vetoed decisions keep their score")
	assert.Negative(t, d.Score)
}

func TestRangeAroundTwapSkipsFullRangePools(t *testing.T) {
	ctx := clContext(5, vault.State{QuoteBalance: 100000})
	ctx.Snapshot.PoolType = types.PoolTypeVolatile
	assert.False(t, RangeAroundTwap{}.Decide(ctx).ShouldRebalance)
}

func TestTrendSkewNeedsMomentum(t *testing.T) {
	ctx := clContext(5, vault.State{QuoteBalance: 100000})
	// Flat TWAPs: no trend.
	d := TrendSkew{}.Decide(ctx)
	assert.False(t, d.ShouldRebalance)
}

func TestTrendSkewShiftsCenter(t *testing.T) {
	ctx := clContext(5, vault.State{QuoteBalance: 100000})
	ctx.Snapshot.TwapShort = 5.2
	ctx.Snapshot.TwapLong = 5.0 // +4% momentum

	d := TrendSkew{}.Decide(ctx)
	require.True(t, d.ShouldRebalance)
	add := d.Actions[len(d.Actions)-1]
	require.Equal(t, types.ActionAddLiquidity, add.Type)

	center := (add.LowerPrice + add.UpperPrice) / 2
	assert.Greater(t, center, 5.0, "uptrend must shift the range upward")
}

func TestTrendSkewCapsSkew(t *testing.T) {
	ctx := clContext(5, vault.State{QuoteBalance: 100000})
	ctx.Snapshot.TwapShort = 10
	ctx.Snapshot.TwapLong = 5 // +100% momentum, far past the cap

	d := TrendSkew{}.Decide(ctx)
	require.True(t, d.ShouldRebalance)
	add := d.Actions[len(d.Actions)-1]

	width := BandWidth(ctx.Snapshot.AnnualizedVol, ctx.Params)
	wantCenter := 5 * (1 + ctx.Params.MaxSkew)
	assert.InEpsilon(t, wantCenter*(1-width/2), add.LowerPrice, 1e-9)
	assert.InEpsilon(t, wantCenter*(1+width/2), add.UpperPrice, 1e-9)
}

func TestInventoryTargetSwapsOverweightSide(t *testing.T) {
	ctx := clContext(5, vault.State{BaseBalance: 1800, QuoteBalance: 1000}) // base 90%
	ctx.Snapshot.PoolType = types.PoolTypeVolatile

	d := InventoryTarget{}.Decide(ctx)
	require.True(t, d.ShouldRebalance)
	require.Len(t, d.Actions, 1)
	swap := d.Actions[0]
	assert.Equal(t, types.ActionSwap, swap.Type)
	assert.Equal(t, types.AssetBase, swap.FromAsset)

	// Swapping the imbalance notional restores 50/50.
	total := 1800*5.0 + 1000
	drift := 1800 * 5.0 / total * 1.0
	imbalanceUSD := (drift - 0.5) * total
	assert.InEpsilon(t, imbalanceUSD/5.0, swap.SwapAmount, 1e-9)
}

func TestInventoryTargetHoldsInsideThreshold(t *testing.T) {
	ctx := clContext(5, vault.State{BaseBalance: 102, QuoteBalance: 500}) // ~50.5%
	ctx.Snapshot.PoolType = types.PoolTypeVolatile
	assert.False(t, InventoryTarget{}.Decide(ctx).ShouldRebalance)
}

func TestInventoryTargetSkipsCLPools(t *testing.T) {
	ctx := clContext(5, vault.State{BaseBalance: 1800, QuoteBalance: 1000})
	assert.False(t, InventoryTarget{}.Decide(ctx).ShouldRebalance)
}

func TestRewardCompoundClaimsAboveMinimum(t *testing.T) {
	ctx := clContext(5, vault.State{QuoteBalance: 1000, RewardsUSD: 80})

	d := RewardCompound{}.Decide(ctx)
	require.True(t, d.ShouldRebalance)
	require.Len(t, d.Actions, 1)
	assert.Equal(t, types.ActionClaimRewards, d.Actions[0].Type)
	assert.InEpsilon(t, 80-ctx.Snapshot.GasUSD, d.Score, 1e-9)
}

func TestRewardCompoundHoldsBelowMinimum(t *testing.T) {
	ctx := clContext(5, vault.State{QuoteBalance: 1000, RewardsUSD: 10})
	assert.False(t, RewardCompound{}.Decide(ctx).ShouldRebalance)
}

func TestRewardCompoundGasVeto(t *testing.T) {
	ctx := clContext(5, vault.State{QuoteBalance: 1000, RewardsUSD: 60})
	ctx.Snapshot.GasUSD = 30 // 60 < 30 * 3

	d := RewardCompound{}.Decide(ctx)
	assert.False(t, d.ShouldRebalance)
	assert.InEpsilon(t, 30.0, d.Score, 1e-9)
}

func TestBandWidthClamping(t *testing.T) {
	p := testParams()

	assert.Equal(t, p.MinBandWidth, BandWidth(0, p))
	assert.Equal(t, p.MaxBandWidth, BandWidth(100, p))

	// In between, the width scales with volatility over the horizon.
	mid := BandWidth(0.60, p)
	want := 2 * 0.60 * math.Sqrt(72.0/8760)
	assert.InEpsilon(t, want, mid, 1e-9)
	assert.Greater(t, mid, p.MinBandWidth)
	assert.Less(t, mid, p.MaxBandWidth)
}
