package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/vbt/internal/clmath"
	"github.com/elys-network/vbt/internal/types"
)

func clSnapshot(price float64) types.PoolSnapshot {
	return types.PoolSnapshot{
		PoolType:         types.PoolTypeCL,
		Price:            price,
		FeeAPR:           0.20,
		EmissionAPR:      0.10,
		PoolLiquidityUSD: 5000000,
		GasUSD:           0.50,
	}
}

func testParams() types.RebalanceParams {
	return types.RebalanceParams{
		MinGasMultiple:       3,
		TargetRebalanceHours: 72,
		SwapSpreadBps:        10,
		SwapImpactBpsPer1Pct: 25,
		MevBps:               5,
		AvgPoolRangeWidth:    0.20,
	}
}

func TestApplyAddThenRemoveLiquidity(t *testing.T) {
	snap := clSnapshot(5)
	params := testParams()
	st := State{BaseBalance: 1000, QuoteBalance: 5000}
	before := st.TotalValueUSD(snap.Price)

	next, err := Apply(st, types.Action{
		Type:       types.ActionAddLiquidity,
		LowerPrice: 4,
		UpperPrice: 6,
		AmountUSD:  10000,
	}, snap, params)
	require.NoError(t, err)
	require.NotNil(t, next.Position)

	// Adding liquidity moves value, never creates or destroys it.
	assert.InDelta(t, before, next.TotalValueUSD(snap.Price), 1e-6)

	next, err = Apply(next, types.Action{Type: types.ActionRemoveLiquidity, Percent: 1.0}, snap, params)
	require.NoError(t, err)
	assert.Nil(t, next.Position)
	assert.InDelta(t, before, next.TotalValueUSD(snap.Price), 1e-6)
}

func TestRemoveLiquidityClampsPercent(t *testing.T) {
	snap := clSnapshot(5)
	st := State{Position: &Position{LowerPrice: 4, UpperPrice: 6, Liquidity: 1000}}
	posValue := st.PositionValueUSD(snap.Price)

	next, err := Apply(st, types.Action{Type: types.ActionRemoveLiquidity, Percent: 2.5}, snap, testParams())
	require.NoError(t, err)
	assert.Nil(t, next.Position)
	assert.InDelta(t, posValue, next.TotalValueUSD(snap.Price), 1e-6)

	next, err = Apply(st, types.Action{Type: types.ActionRemoveLiquidity, Percent: -1}, snap, testParams())
	require.NoError(t, err)
	require.NotNil(t, next.Position)
	assert.Equal(t, 1000.0, next.Position.Liquidity)
}

func TestRemoveLiquidityDestroysDustPosition(t *testing.T) {
	snap := clSnapshot(5)
	st := State{Position: &Position{LowerPrice: 4, UpperPrice: 6, Liquidity: 1000}}

	// 99.999% removal leaves liquidity under the dust threshold.
	next, err := Apply(st, types.Action{Type: types.ActionRemoveLiquidity, Percent: 0.9999999}, snap, testParams())
	require.NoError(t, err)
	assert.Nil(t, next.Position)
}

func TestRemoveLiquidityDoesNotMutateInput(t *testing.T) {
	snap := clSnapshot(5)
	st := State{Position: &Position{LowerPrice: 4, UpperPrice: 6, Liquidity: 1000}}

	_, err := Apply(st, types.Action{Type: types.ActionRemoveLiquidity, Percent: 0.5}, snap, testParams())
	require.NoError(t, err)
	assert.Equal(t, 1000.0, st.Position.Liquidity, "input state must be untouched")
}

func TestAddLiquidityRespectsAmountBudget(t *testing.T) {
	snap := clSnapshot(5)
	st := State{BaseBalance: 1000, QuoteBalance: 5000} // $10k total

	next, err := Apply(st, types.Action{
		Type:       types.ActionAddLiquidity,
		LowerPrice: 4,
		UpperPrice: 6,
		AmountUSD:  2000,
	}, snap, testParams())
	require.NoError(t, err)
	require.NotNil(t, next.Position)

	deployed := next.PositionValueUSD(snap.Price)
	assert.LessOrEqual(t, deployed, 2000+1e-6)
	assert.GreaterOrEqual(t, next.TotalValueUSD(snap.Price)-deployed, 8000-1e-6)
}

func TestAddLiquidityDegenerateRangeIsNoop(t *testing.T) {
	snap := clSnapshot(5)
	st := State{BaseBalance: 1000, QuoteBalance: 5000}

	next, err := Apply(st, types.Action{
		Type:       types.ActionAddLiquidity,
		LowerPrice: 5,
		UpperPrice: 5,
		AmountUSD:  10000,
	}, snap, testParams())
	require.NoError(t, err)
	assert.Equal(t, st, next)
}

func TestSwapCapsAtBalance(t *testing.T) {
	snap := clSnapshot(5)
	st := State{BaseBalance: 10, QuoteBalance: 0}

	next, err := Apply(st, types.Action{
		Type:       types.ActionSwap,
		FromAsset:  types.AssetBase,
		SwapAmount: 100,
	}, snap, testParams())
	require.NoError(t, err)
	assert.Zero(t, next.BaseBalance)
	assert.Greater(t, next.QuoteBalance, 0.0)
	// Sold below mid, so proceeds stay under the mid-price value.
	assert.Less(t, next.QuoteBalance, 10*snap.Price)
}

func TestSwapAgainstShallowPoolNeverGoesNegative(t *testing.T) {
	// A base sale worth 25x the pool's depth would execute at a negative
	// effective price if the impact term were unclamped; the swap must be a
	// no-op, never a negative quote balance.
	snap := clSnapshot(5)
	snap.PoolLiquidityUSD = 1000
	st := State{BaseBalance: 5000, QuoteBalance: 10}

	next, err := Apply(st, types.Action{
		Type:       types.ActionSwap,
		FromAsset:  types.AssetBase,
		SwapAmount: 5000,
	}, snap, testParams())
	require.NoError(t, err)
	assert.Equal(t, st, next)
	assert.GreaterOrEqual(t, next.QuoteBalance, 0.0)
	assert.GreaterOrEqual(t, next.BaseBalance, 0.0)
}

func TestSwapQuoteForBase(t *testing.T) {
	snap := clSnapshot(5)
	st := State{QuoteBalance: 1000}

	next, err := Apply(st, types.Action{
		Type:       types.ActionSwap,
		FromAsset:  types.AssetQuote,
		SwapAmount: 500,
	}, snap, testParams())
	require.NoError(t, err)
	assert.InDelta(t, 500, next.QuoteBalance, 1e-9)
	// Bought above mid, so fewer base units than the mid-price amount.
	assert.Less(t, next.BaseBalance, 500/snap.Price)
	assert.Greater(t, next.BaseBalance, 0.0)
}

func TestClaimRewards(t *testing.T) {
	snap := clSnapshot(5)
	st := State{QuoteBalance: 100, RewardsUSD: 75}

	next, err := Apply(st, types.Action{Type: types.ActionClaimRewards, MinUSD: 50}, snap, testParams())
	require.NoError(t, err)
	assert.Equal(t, 175.0, next.QuoteBalance)
	assert.Zero(t, next.RewardsUSD)
}

func TestApplyUnknownActionFails(t *testing.T) {
	snap := clSnapshot(5)
	_, err := Apply(State{}, types.Action{Type: types.ActionType("SELF_DESTRUCT")}, snap, testParams())
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestAccrueInRangePosition(t *testing.T) {
	snap := clSnapshot(5)
	st := State{Position: &Position{LowerPrice: 4, UpperPrice: 6, Liquidity: 100000}}
	posValue := st.PositionValueUSD(snap.Price)
	stepYears := 1.0 / 8760

	next, fees, emissions := Accrue(st, snap, stepYears, 0.20)

	share := clmath.FeeShare(posValue, snap.PoolLiquidityUSD, snap.Price, 4, 6, 0.20)
	wantFees := snap.PoolLiquidityUSD * snap.FeeAPR * stepYears * share
	wantEmissions := posValue * snap.EmissionAPR * stepYears

	assert.InEpsilon(t, wantFees, fees, 1e-9)
	assert.InEpsilon(t, wantEmissions, emissions, 1e-9)
	assert.InEpsilon(t, wantFees, next.QuoteBalance, 1e-9)
	assert.InEpsilon(t, wantEmissions, next.RewardsUSD, 1e-9)
}

func TestAccrueOutOfRangeEarnsNothing(t *testing.T) {
	snap := clSnapshot(7) // above the range
	st := State{Position: &Position{LowerPrice: 4, UpperPrice: 6, Liquidity: 100000}}

	next, fees, emissions := Accrue(st, snap, 1.0/8760, 0.20)
	assert.Zero(t, fees)
	assert.Zero(t, emissions)
	assert.Equal(t, st, next)
}

func TestAccrueFullRangePool(t *testing.T) {
	snap := clSnapshot(5)
	snap.PoolType = types.PoolTypeVolatile
	st := State{BaseBalance: 1000, QuoteBalance: 5000}
	stepYears := 1.0 / 8760

	_, fees, emissions := Accrue(st, snap, stepYears, 0.20)
	total := st.TotalValueUSD(snap.Price)
	assert.InEpsilon(t, total*snap.FeeAPR*stepYears, fees, 1e-9)
	assert.InEpsilon(t, total*snap.EmissionAPR*stepYears, emissions, 1e-9)
}

func TestPayCostsQuoteFirstThenBase(t *testing.T) {
	st := State{BaseBalance: 10, QuoteBalance: 30}

	next := PayCosts(st, 20, 5)
	assert.Equal(t, 10.0, next.QuoteBalance)
	assert.Equal(t, 10.0, next.BaseBalance)

	// Shortfall converts to base at the current price.
	next = PayCosts(st, 40, 5)
	assert.Zero(t, next.QuoteBalance)
	assert.InDelta(t, 10-2, next.BaseBalance, 1e-9)
}

func TestPayCostsFlooredAtZero(t *testing.T) {
	st := State{BaseBalance: 1, QuoteBalance: 1}
	next := PayCosts(st, 1000, 5)
	assert.Zero(t, next.QuoteBalance)
	assert.Zero(t, next.BaseBalance)
}

func TestMevExposureUSD(t *testing.T) {
	st := State{
		BaseBalance:  100,
		QuoteBalance: 1000,
		Position:     &Position{LowerPrice: 4, UpperPrice: 6, Liquidity: 10000},
	}

	swap := types.Action{Type: types.ActionSwap, FromAsset: types.AssetBase, SwapAmount: 50}
	assert.InEpsilon(t, 50*5.0, MevExposureUSD(st, swap, 5), 1e-9)

	remove := types.Action{Type: types.ActionRemoveLiquidity, Percent: 1.0}
	assert.InEpsilon(t, st.PositionValueUSD(5)*0.10, MevExposureUSD(st, remove, 5), 1e-9)

	add := types.Action{Type: types.ActionAddLiquidity, AmountUSD: 500}
	assert.InEpsilon(t, 500*0.10, MevExposureUSD(st, add, 5), 1e-9)

	assert.Zero(t, MevExposureUSD(st, types.Action{Type: types.ActionNoop}, 5))
	assert.Zero(t, MevExposureUSD(st, types.Action{Type: types.ActionClaimRewards}, 5))
}
