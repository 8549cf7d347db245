package utils

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRayToWad(t *testing.T) {
	// 1e27 -> 1e18 exactly
	out, err := RayToWad(Ray())
	require.NoError(t, err)
	assert.Equal(t, Wad(), out)

	// sub-1e9 precision truncates
	out, err = RayToWad(sdkmath.NewInt(1_999_999_999))
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(1), out)

	_, err = RayToWad(sdkmath.Int{})
	assert.ErrorIs(t, err, ErrAmountNil)

	_, err = RayToWad(sdkmath.NewInt(-1))
	assert.ErrorIs(t, err, ErrAmountNegative)
}

func TestRayMulDiv(t *testing.T) {
	half := Ray().QuoRaw(2)

	assert.Equal(t, Ray().QuoRaw(4), RayMul(half, half))
	assert.Equal(t, half, RayMul(Ray(), half))

	out, err := RayDiv(half, Ray())
	require.NoError(t, err)
	assert.Equal(t, half, out)

	_, err = RayDiv(Ray(), sdkmath.ZeroInt())
	assert.ErrorIs(t, err, ErrConversionFailed)
}

func TestAmountToFloat64(t *testing.T) {
	out, err := AmountToFloat64(sdkmath.NewInt(1_500_000), 6)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, out, 1e-12)

	out, err = AmountToFloat64(sdkmath.ZeroInt(), 18)
	require.NoError(t, err)
	assert.Zero(t, out)

	_, err = AmountToFloat64(sdkmath.NewInt(1), 31)
	assert.ErrorIs(t, err, ErrInvalidDecimals)
}

func TestWadToFloat64(t *testing.T) {
	out, err := WadToFloat64(sdkmath.NewIntWithDecimal(288, 14)) // 2.88%
	require.NoError(t, err)
	assert.InDelta(t, 0.0288, out, 1e-12)
}
