package rates

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitfidev/lender-strategy/internal/pool"
	"github.com/pitfidev/lender-strategy/internal/types"
)

var (
	testAsset    = common.HexToAddress("0x0000000000000000000000000000000000000001")
	testReceipt  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	testStrategy = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	testModel    = common.HexToAddress("0x00000000000000000000000000000000000000b1")
)

// newTestProjector builds a reserve with 2000 tokens of liquidity, 8000
// tokens of variable debt and a 10% reserve factor on the default curve.
// Borrow usage sits exactly at the 80% kink.
func newTestProjector(t *testing.T) (*pool.MemoryClient, *Projector) {
	t.Helper()

	client, err := pool.NewMemoryClient(pool.MemoryConfig{
		Asset:         testAsset,
		ReceiptToken:  testReceipt,
		RateStrategy:  testModel,
		Strategy:      testStrategy,
		AssetDecimals: 6,
		ReserveFactor: sdkmath.NewInt(1000),
	})
	require.NoError(t, err)

	client.SetRateModel(testModel, pool.DefaultKinkRateModel())
	client.SetBalance(testAsset, testReceipt, sdkmath.NewInt(2_000_000_000))
	client.SetMetrics(types.ReserveMetrics{
		Unbacked:                sdkmath.ZeroInt(),
		TotalStableDebt:         sdkmath.ZeroInt(),
		TotalVariableDebt:       sdkmath.NewInt(8_000_000_000),
		AverageStableBorrowRate: sdkmath.ZeroInt(),
	})

	projector, err := NewProjector(Config{
		Pool:     client,
		Provider: client,
		Models:   client,
	})
	require.NoError(t, err)
	return client, projector
}

func TestAprAtCurrentState(t *testing.T) {
	_, projector := newTestProjector(t)

	// at the kink: variable rate 4%, supply usage 80%, reserve factor 10%
	// => liquidity rate 4% * 0.8 * 0.9 = 2.88%, in wad
	apr, err := projector.AprAfterDebtChange(testAsset, sdkmath.ZeroInt())
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(28_800_000_000_000_000), apr)
}

func TestAprAfterLiquidityAdded(t *testing.T) {
	_, projector := newTestProjector(t)

	// +6000 tokens: usage drops to 50%, rate 4%*0.625 = 2.5%,
	// liquidity rate 2.5% * 0.5 * 0.9 = 1.125%
	apr, err := projector.AprAfterDebtChange(testAsset, sdkmath.NewInt(6_000_000_000))
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(11_250_000_000_000_000), apr)
}

func TestAprMonotonicInDelta(t *testing.T) {
	_, projector := newTestProjector(t)

	withdrawn, err := projector.AprAfterDebtChange(testAsset, sdkmath.NewInt(-1_000_000_000))
	require.NoError(t, err)
	current, err := projector.AprAfterDebtChange(testAsset, sdkmath.ZeroInt())
	require.NoError(t, err)
	deposited, err := projector.AprAfterDebtChange(testAsset, sdkmath.NewInt(4_000_000_000))
	require.NoError(t, err)

	// removing liquidity raises the rate, adding lowers it
	assert.True(t, withdrawn.GT(current))
	assert.True(t, current.GT(deposited))
}

func TestAprZeroWhenNoDebt(t *testing.T) {
	client, projector := newTestProjector(t)

	client.SetMetrics(types.ReserveMetrics{
		Unbacked:                sdkmath.ZeroInt(),
		TotalStableDebt:         sdkmath.ZeroInt(),
		TotalVariableDebt:       sdkmath.ZeroInt(),
		AverageStableBorrowRate: sdkmath.ZeroInt(),
	})

	apr, err := projector.AprAfterDebtChange(testAsset, sdkmath.NewInt(1_000_000))
	require.NoError(t, err)
	assert.True(t, apr.IsZero())
}

func TestAprNilDelta(t *testing.T) {
	_, projector := newTestProjector(t)

	_, err := projector.AprAfterDebtChange(testAsset, sdkmath.Int{})
	assert.ErrorIs(t, err, ErrDeltaNil)
}
