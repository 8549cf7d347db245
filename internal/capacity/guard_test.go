package capacity

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitfidev/lender-strategy/internal/pool"
	"github.com/pitfidev/lender-strategy/internal/reserveconfig"
	"github.com/pitfidev/lender-strategy/internal/types"
)

var (
	testAsset    = common.HexToAddress("0x0000000000000000000000000000000000000001")
	testReceipt  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	testStrategy = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	testModel    = common.HexToAddress("0x00000000000000000000000000000000000000b1")
)

func configWord(paused, frozen bool, capRaw uint64) *uint256.Int {
	word := new(uint256.Int).Lsh(uint256.NewInt(capRaw), reserveconfig.SupplyCapStartBit)
	if paused {
		word.Or(word, new(uint256.Int).Lsh(uint256.NewInt(1), reserveconfig.PausedBitPosition))
	}
	if frozen {
		word.Or(word, new(uint256.Int).Lsh(uint256.NewInt(1), reserveconfig.FrozenBitPosition))
	}
	return word
}

func newTestEnv(t *testing.T, word *uint256.Int) (*pool.MemoryClient, *Guard) {
	t.Helper()

	client, err := pool.NewMemoryClient(pool.MemoryConfig{
		Asset:             testAsset,
		ReceiptToken:      testReceipt,
		RateStrategy:      testModel,
		Strategy:          testStrategy,
		AssetDecimals:     6,
		ConfigurationWord: word,
		ReserveFactor:     sdkmath.NewInt(1000),
	})
	require.NoError(t, err)

	guard, err := NewGuard(Config{
		Pool:         client,
		ERC20:        client,
		Asset:        testAsset,
		Self:         testStrategy,
		ReceiptToken: testReceipt,
	})
	require.NoError(t, err)
	return client, guard
}

func TestDepositLimitUnlimited(t *testing.T) {
	_, guard := newTestEnv(t, configWord(false, false, 0))

	limit, err := guard.AvailableDepositLimit()
	require.NoError(t, err)
	assert.Equal(t, types.MaxUint256, limit)
}

func TestDepositLimitPausedOrFrozen(t *testing.T) {
	// cap present but flags dominate
	_, guard := newTestEnv(t, configWord(true, false, 500))
	limit, err := guard.AvailableDepositLimit()
	require.NoError(t, err)
	assert.True(t, limit.IsZero())

	_, guard = newTestEnv(t, configWord(false, true, 500))
	limit, err = guard.AvailableDepositLimit()
	require.NoError(t, err)
	assert.True(t, limit.IsZero())
}

func TestDepositLimitUnderCap(t *testing.T) {
	// cap 1500 whole tokens at 6 decimals, 1000 tokens already supplied
	client, guard := newTestEnv(t, configWord(false, false, 1500))

	supplied := sdkmath.NewInt(1_000_000_000)
	client.SetBalance(testAsset, testStrategy, supplied)
	require.NoError(t, client.Supply(testAsset, supplied, testStrategy, 0))

	limit, err := guard.AvailableDepositLimit()
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(500_000_000), limit)
}

func TestDepositLimitCountsIdleAgainstCap(t *testing.T) {
	client, guard := newTestEnv(t, configWord(false, false, 1500))

	client.SetBalance(testAsset, testStrategy, sdkmath.NewInt(1_000_000_000))
	require.NoError(t, client.Supply(testAsset, sdkmath.NewInt(600_000_000), testStrategy, 0))

	// 600 supplied + 400 idle leaves room for 500
	limit, err := guard.AvailableDepositLimit()
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(500_000_000), limit)
}

func TestDepositLimitAtOrOverCap(t *testing.T) {
	client, guard := newTestEnv(t, configWord(false, false, 100))

	client.SetBalance(testAsset, testStrategy, sdkmath.NewInt(100_000_000))
	require.NoError(t, client.Supply(testAsset, sdkmath.NewInt(100_000_000), testStrategy, 0))

	limit, err := guard.AvailableDepositLimit()
	require.NoError(t, err)
	assert.True(t, limit.IsZero())
}

func TestDepositLimitMonotonicInSupply(t *testing.T) {
	client, guard := newTestEnv(t, configWord(false, false, 10_000))

	client.SetBalance(testAsset, testStrategy, sdkmath.NewInt(5_000_000_000))

	previous, err := guard.AvailableDepositLimit()
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, client.Supply(testAsset, sdkmath.NewInt(1_000_000_000), testStrategy, 0))
		limit, err := guard.AvailableDepositLimit()
		require.NoError(t, err)
		require.True(t, limit.LTE(previous), "limit must never grow as supply grows")
		previous = limit
	}
}

func TestWithdrawLimitIdlePlusLiquidity(t *testing.T) {
	client, guard := newTestEnv(t, configWord(false, false, 0))

	client.SetBalance(testAsset, testStrategy, sdkmath.NewInt(900_000_000))
	require.NoError(t, client.Supply(testAsset, sdkmath.NewInt(700_000_000), testStrategy, 0))

	// 200 idle + 700 pool liquidity
	limit, err := guard.AvailableWithdrawLimit()
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(900_000_000), limit)
}

func TestWithdrawLimitPausedCollapsesToIdle(t *testing.T) {
	client, guard := newTestEnv(t, configWord(false, false, 0))

	client.SetBalance(testAsset, testStrategy, sdkmath.NewInt(900_000_000))
	require.NoError(t, client.Supply(testAsset, sdkmath.NewInt(700_000_000), testStrategy, 0))

	client.SetConfigurationWord(configWord(true, false, 0))

	limit, err := guard.AvailableWithdrawLimit()
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(200_000_000), limit)
}

func TestWithdrawLimitIgnoresFrozen(t *testing.T) {
	client, guard := newTestEnv(t, configWord(false, false, 0))

	client.SetBalance(testAsset, testStrategy, sdkmath.NewInt(500_000_000))
	require.NoError(t, client.Supply(testAsset, sdkmath.NewInt(500_000_000), testStrategy, 0))

	// freezing blocks new supply, not exits
	client.SetConfigurationWord(configWord(false, true, 0))

	limit, err := guard.AvailableWithdrawLimit()
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(500_000_000), limit)
}
