package swap

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitfidev/lender-strategy/internal/pool"
)

var (
	assetToken  = common.HexToAddress("0x0000000000000000000000000000000000000001")
	baseToken   = common.HexToAddress("0x0000000000000000000000000000000000000002")
	rewardToken = common.HexToAddress("0x0000000000000000000000000000000000000003")
	receipt     = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	selfAddr    = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	v2Addr      = common.HexToAddress("0x00000000000000000000000000000000000000c2")
	v3Addr      = common.HexToAddress("0x00000000000000000000000000000000000000c3")
)

func newTestAdapter(t *testing.T) (*pool.MemoryClient, *Adapter) {
	t.Helper()

	client, err := pool.NewMemoryClient(pool.MemoryConfig{
		Asset:        assetToken,
		ReceiptToken: receipt,
		Strategy:     selfAddr,
	})
	require.NoError(t, err)

	adapter, err := NewAdapter(Config{
		ERC20:        client,
		RouterV2:     client,
		RouterV3:     client,
		RouterV2Addr: v2Addr,
		RouterV3Addr: v3Addr,
		Self:         selfAddr,
		Base:         baseToken,
	})
	require.NoError(t, err)
	return client, adapter
}

func TestFeeTableSymmetric(t *testing.T) {
	_, adapter := newTestAdapter(t)

	adapter.SetUniFees(rewardToken, baseToken, 500)

	fee, err := adapter.Fee(rewardToken, baseToken)
	require.NoError(t, err)
	assert.Equal(t, uint32(500), fee)

	fee, err = adapter.Fee(baseToken, rewardToken)
	require.NoError(t, err)
	assert.Equal(t, uint32(500), fee)
}

func TestFeeMissingConfig(t *testing.T) {
	_, adapter := newTestAdapter(t)

	_, err := adapter.Fee(rewardToken, assetToken)
	assert.ErrorIs(t, err, ErrMissingFeeConfig)

	// an explicit zero tier counts as unset
	adapter.SetUniFees(rewardToken, assetToken, 0)
	_, err = adapter.Fee(rewardToken, assetToken)
	assert.ErrorIs(t, err, ErrMissingFeeConfig)
}

func TestSwapFromDustFloorNoOp(t *testing.T) {
	client, adapter := newTestAdapter(t)
	adapter.SetMinAmountToSell(sdkmath.NewInt(1000))

	out, err := adapter.SwapFrom(rewardToken, assetToken, sdkmath.NewInt(1000), sdkmath.ZeroInt())
	require.NoError(t, err)
	assert.True(t, out.IsZero())

	// below or at the floor nothing touches the chain
	assert.Equal(t, 0, client.SwapCalls)
	assert.Equal(t, 0, client.ApproveCalls)
}

func TestSwapFromV2RoutesThroughBase(t *testing.T) {
	client, adapter := newTestAdapter(t)

	amount := sdkmath.NewInt(1_000_000)
	client.SetBalance(rewardToken, selfAddr, amount)

	out, err := adapter.SwapFrom(rewardToken, assetToken, amount, sdkmath.ZeroInt())
	require.NoError(t, err)
	assert.Equal(t, amount, out) // 1:1 default rate across both legs

	balance, err := client.BalanceOf(assetToken, selfAddr)
	require.NoError(t, err)
	assert.Equal(t, amount, balance)

	spent, err := client.BalanceOf(rewardToken, selfAddr)
	require.NoError(t, err)
	assert.True(t, spent.IsZero())

	assert.Equal(t, 1, client.SwapCalls)
}

func TestSwapFromAppliesExchangeRate(t *testing.T) {
	client, adapter := newTestAdapter(t)

	// reward -> base halves, base -> asset is 1:1
	client.SetExchangeRate(rewardToken, baseToken, sdkmath.NewIntWithDecimal(5, 17))

	amount := sdkmath.NewInt(1_000_000)
	client.SetBalance(rewardToken, selfAddr, amount)

	out, err := adapter.SwapFrom(rewardToken, assetToken, amount, sdkmath.ZeroInt())
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(500_000), out)
}

func TestSwapFromApprovesZeroThenExact(t *testing.T) {
	client, adapter := newTestAdapter(t)

	amount := sdkmath.NewInt(1_000_000)
	client.SetBalance(rewardToken, selfAddr, amount)

	_, err := adapter.SwapFrom(rewardToken, assetToken, amount, sdkmath.ZeroInt())
	require.NoError(t, err)

	// reset-to-zero followed by the exact grant
	assert.Equal(t, 2, client.ApproveCalls)
}

func TestSwapFromV3SingleHopFromBase(t *testing.T) {
	client, adapter := newTestAdapter(t)
	adapter.SetUseV3Router(baseToken, true)
	adapter.SetUniFees(baseToken, assetToken, 500)

	amount := sdkmath.NewInt(2_000_000)
	client.SetBalance(baseToken, selfAddr, amount)

	out, err := adapter.SwapFrom(baseToken, assetToken, amount, sdkmath.ZeroInt())
	require.NoError(t, err)
	assert.Equal(t, amount, out)
	assert.Equal(t, 1, client.SwapCalls)
}

func TestSwapFromV3MultiHopNeedsBothFees(t *testing.T) {
	client, adapter := newTestAdapter(t)
	adapter.SetUseV3Router(rewardToken, true)
	adapter.SetUniFees(rewardToken, baseToken, 3000)

	amount := sdkmath.NewInt(1_000_000)
	client.SetBalance(rewardToken, selfAddr, amount)

	// base -> asset leg is unconfigured
	_, err := adapter.SwapFrom(rewardToken, assetToken, amount, sdkmath.ZeroInt())
	assert.ErrorIs(t, err, ErrMissingFeeConfig)

	adapter.SetUniFees(baseToken, assetToken, 500)
	out, err := adapter.SwapFrom(rewardToken, assetToken, amount, sdkmath.ZeroInt())
	require.NoError(t, err)
	assert.Equal(t, amount, out)
}

func TestSwapFromRespectsMinAmountOut(t *testing.T) {
	client, adapter := newTestAdapter(t)

	client.SetExchangeRate(rewardToken, baseToken, sdkmath.NewIntWithDecimal(5, 17))

	amount := sdkmath.NewInt(1_000_000)
	client.SetBalance(rewardToken, selfAddr, amount)

	_, err := adapter.SwapFrom(rewardToken, assetToken, amount, sdkmath.NewInt(900_000))
	assert.ErrorIs(t, err, ErrSwapExecution)
}

func TestEncodeV3Path(t *testing.T) {
	path := encodeV3Path(rewardToken, []uint32{3000, 500}, []common.Address{baseToken, assetToken})

	// addr ++ fee ++ addr ++ fee ++ addr
	require.Len(t, path, 20+3+20+3+20)
	assert.Equal(t, rewardToken.Bytes(), path[:20])
	assert.Equal(t, []byte{0x00, 0x0b, 0xb8}, path[20:23]) // 3000
	assert.Equal(t, baseToken.Bytes(), path[23:43])
	assert.Equal(t, []byte{0x00, 0x01, 0xf4}, path[43:46]) // 500
	assert.Equal(t, assetToken.Bytes(), path[46:66])
}

func TestGetAmountOutQuotesWithoutExecuting(t *testing.T) {
	client, adapter := newTestAdapter(t)

	client.SetExchangeRate(rewardToken, baseToken, sdkmath.NewIntWithDecimal(5, 17))

	out, err := adapter.GetAmountOut(rewardToken, assetToken, sdkmath.NewInt(1_000_000))
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(500_000), out)
	assert.Equal(t, 0, client.SwapCalls)
}
