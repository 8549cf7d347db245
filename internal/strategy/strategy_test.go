package strategy

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitfidev/lender-strategy/internal/pool"
	"github.com/pitfidev/lender-strategy/internal/swap"
	"github.com/pitfidev/lender-strategy/internal/types"
)

var (
	testAsset    = common.HexToAddress("0x0000000000000000000000000000000000000001")
	testBase     = common.HexToAddress("0x0000000000000000000000000000000000000002")
	rewardA      = common.HexToAddress("0x0000000000000000000000000000000000000011")
	rewardB      = common.HexToAddress("0x0000000000000000000000000000000000000012")
	testReceipt  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	testStrategy = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	testModel    = common.HexToAddress("0x00000000000000000000000000000000000000b1")
)

func newTestStrategy(t *testing.T, claimRewards bool) (*pool.MemoryClient, *Strategy) {
	t.Helper()

	client, err := pool.NewMemoryClient(pool.MemoryConfig{
		Asset:         testAsset,
		ReceiptToken:  testReceipt,
		RateStrategy:  testModel,
		Strategy:      testStrategy,
		AssetDecimals: 6,
	})
	require.NoError(t, err)

	swapper, err := swap.NewAdapter(swap.Config{
		ERC20:    client,
		RouterV2: client,
		RouterV3: client,
		Self:     testStrategy,
		Base:     testBase,
	})
	require.NoError(t, err)

	strat, err := New(Config{
		Pool:         client,
		ERC20:        client,
		Rewards:      client,
		Swapper:      swapper,
		Self:         testStrategy,
		Asset:        testAsset,
		ClaimRewards: claimRewards,
	})
	require.NoError(t, err)
	return client, strat
}

func TestNewResolvesReceiptToken(t *testing.T) {
	_, strat := newTestStrategy(t, false)
	assert.Equal(t, testReceipt, strat.ReceiptToken())
	assert.Equal(t, uint8(6), strat.Decimals())
}

func TestDeployAndFreeFunds(t *testing.T) {
	client, strat := newTestStrategy(t, false)

	client.SetBalance(testAsset, testStrategy, sdkmath.NewInt(1_000_000))
	require.NoError(t, strat.DeployFunds(sdkmath.NewInt(1_000_000)))

	position, err := client.BalanceOf(testReceipt, testStrategy)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(1_000_000), position)

	require.NoError(t, strat.FreeFunds(sdkmath.NewInt(400_000)))

	idle, err := client.BalanceOf(testAsset, testStrategy)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(400_000), idle)

	assert.ErrorIs(t, strat.DeployFunds(sdkmath.ZeroInt()), ErrAmountNotPositive)
}

func TestEmergencyWithdrawPartialLiquidity(t *testing.T) {
	client, strat := newTestStrategy(t, false)

	client.SetBalance(testAsset, testStrategy, sdkmath.NewInt(1_000_000))
	require.NoError(t, strat.DeployFunds(sdkmath.NewInt(1_000_000)))

	// other borrowers drained most of the reserve
	client.SetBalance(testAsset, testReceipt, sdkmath.NewInt(300_000))

	require.NoError(t, strat.EmergencyWithdraw(sdkmath.NewInt(1_000_000)))

	idle, err := client.BalanceOf(testAsset, testStrategy)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(300_000), idle)

	// the illiquid remainder stays in the pool as receipt tokens
	position, err := client.BalanceOf(testReceipt, testStrategy)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(700_000), position)
}

func TestHarvestSellsAboveThresholdOnly(t *testing.T) {
	client, strat := newTestStrategy(t, true)

	client.FundRewards(testAsset, sdkmath.NewInt(50))
	client.FundRewards(rewardA, sdkmath.NewInt(5))
	client.FundRewards(rewardB, sdkmath.NewInt(20))

	strat.SetMinAmountToSellMapping(rewardA, sdkmath.NewInt(10))
	strat.SetMinAmountToSellMapping(rewardB, sdkmath.NewInt(10))

	outcome, err := strat.Harvest()
	require.NoError(t, err)

	assert.Equal(t, 3, outcome.RewardTokensClaimed)
	assert.Equal(t, 1, outcome.RewardTokensSold)

	// rewardA stays parked below its threshold
	held, err := client.BalanceOf(rewardA, testStrategy)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(5), held)

	// rewardB sold 1:1 plus the asset reward, all redeposited
	assert.True(t, outcome.Redeposited)
	assert.Equal(t, sdkmath.NewInt(70), outcome.PoolPosition)
	assert.True(t, outcome.IdleBalance.IsZero())
	assert.Equal(t, sdkmath.NewInt(70), outcome.TotalAssets)
}

func TestHarvestSkipsAssetForAssetSale(t *testing.T) {
	client, strat := newTestStrategy(t, true)

	client.FundRewards(testAsset, sdkmath.NewInt(1_000))

	outcome, err := strat.Harvest()
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.RewardTokensClaimed)
	assert.Equal(t, 0, outcome.RewardTokensSold)
	assert.Equal(t, 0, client.SwapCalls)
	assert.Equal(t, sdkmath.NewInt(1_000), outcome.TotalAssets)
}

func TestHarvestMaxThresholdParksToken(t *testing.T) {
	client, strat := newTestStrategy(t, true)

	client.FundRewards(rewardA, sdkmath.NewInt(1_000_000))
	strat.SetMinAmountToSellMapping(rewardA, types.MaxUint256)

	outcome, err := strat.Harvest()
	require.NoError(t, err)

	assert.Equal(t, 0, outcome.RewardTokensSold)
	assert.Equal(t, 0, client.SwapCalls)

	held, err := client.BalanceOf(rewardA, testStrategy)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(1_000_000), held)
}

func TestHarvestWithoutClaiming(t *testing.T) {
	client, strat := newTestStrategy(t, false)

	client.FundRewards(rewardA, sdkmath.NewInt(1_000))

	outcome, err := strat.Harvest()
	require.NoError(t, err)

	// claiming disabled: rewards stay pending, nothing is sold
	assert.Equal(t, 0, outcome.RewardTokensClaimed)
	assert.Equal(t, 0, outcome.RewardTokensSold)
	assert.True(t, outcome.TotalAssets.IsZero())
}

func TestHarvestClaimsEscrow(t *testing.T) {
	client, strat := newTestStrategy(t, false)
	strat.SetRewardsEscrow(client)

	client.FundEscrow(rewardB, sdkmath.NewInt(500))

	outcome, err := strat.Harvest()
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.RewardTokensClaimed)
	assert.Equal(t, 1, outcome.RewardTokensSold)
	assert.Equal(t, sdkmath.NewInt(500), outcome.TotalAssets)
}

func TestHarvestRedepositsIdle(t *testing.T) {
	client, strat := newTestStrategy(t, false)

	client.SetBalance(testAsset, testStrategy, sdkmath.NewInt(2_000_000))

	outcome, err := strat.Harvest()
	require.NoError(t, err)

	assert.True(t, outcome.Redeposited)
	assert.Equal(t, sdkmath.NewInt(2_000_000), outcome.PoolPosition)
	assert.True(t, outcome.IdleBalance.IsZero())
	assert.Equal(t, sdkmath.NewInt(2_000_000), outcome.TotalAssets)
}

func TestHarvestAndReportReturnsTotalAssets(t *testing.T) {
	client, strat := newTestStrategy(t, false)

	client.SetBalance(testAsset, testStrategy, sdkmath.NewInt(1_500_000))

	total, err := strat.HarvestAndReport()
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(1_500_000), total)
}

func TestLimitsDelegateToGuard(t *testing.T) {
	client, strat := newTestStrategy(t, false)

	// unlimited reserve, zero word
	limit, err := strat.AvailableDepositLimit(testStrategy)
	require.NoError(t, err)
	assert.Equal(t, types.MaxUint256, limit)

	client.SetBalance(testAsset, testStrategy, sdkmath.NewInt(800_000))
	require.NoError(t, strat.DeployFunds(sdkmath.NewInt(600_000)))

	limit, err = strat.AvailableWithdrawLimit(testStrategy)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(800_000), limit)
}
