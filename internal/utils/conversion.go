/*
This file contains common utility functions for fixed-point rate math and
for converting base-unit amounts into floats for logging and the web API.
On-chain rates use ray (1e27) precision, reported APRs use wad (1e18).
*/

package utils

import (
	"errors"
	"fmt"
	"math"

	sdkmath "cosmossdk.io/math"
)

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidDecimals  = errors.New("decimals value is invalid")
	ErrAmountNil        = errors.New("amount is nil")
	ErrAmountNegative   = errors.New("amount is negative")
	ErrNotFinite        = errors.New("value is not finite")
	ErrConversionFailed = errors.New("conversion failed")
)

const (
	// WadRayRatio is the exact divisor between ray (1e27) and wad (1e18).
	WadRayRatio = 1_000_000_000
)

var (
	ray = sdkmath.NewIntWithDecimal(1, 27) // 1e27
	wad = sdkmath.NewIntWithDecimal(1, 18) // 1e18
)

// Ray returns the ray unit (1e27) as an Int.
func Ray() sdkmath.Int { return ray }

// Wad returns the wad unit (1e18) as an Int.
func Wad() sdkmath.Int { return wad }

// RayToWad rescales a ray fixed-point value to wad by exact integer
// division. Sub-1e9 precision is truncated; callers accept the loss.
func RayToWad(value sdkmath.Int) (sdkmath.Int, error) {
	if value.IsNil() {
		return sdkmath.ZeroInt(), ErrAmountNil
	}
	if value.IsNegative() {
		return sdkmath.ZeroInt(), ErrAmountNegative
	}
	return value.QuoRaw(WadRayRatio), nil
}

// RayMul multiplies two ray fixed-point values, truncating the result.
func RayMul(a, b sdkmath.Int) sdkmath.Int {
	return a.Mul(b).Quo(ray)
}

// RayDiv divides a by b in ray fixed-point, truncating the result.
func RayDiv(a, b sdkmath.Int) (sdkmath.Int, error) {
	if b.IsZero() {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: division by zero", ErrConversionFailed)
	}
	return a.Mul(ray).Quo(b), nil
}

// AmountToFloat64 converts a base-unit amount to whole tokens as float64.
// Only used for logging and dashboard output, never for accounting.
func AmountToFloat64(amount sdkmath.Int, decimals uint8) (float64, error) {
	if decimals > 30 {
		return 0, fmt.Errorf("%w: %d (must be at most 30)", ErrInvalidDecimals, decimals)
	}
	if amount.IsNil() {
		return 0, ErrAmountNil
	}
	if amount.IsNegative() {
		return 0, ErrAmountNegative
	}

	decAmount := sdkmath.LegacyNewDecFromInt(amount)
	factor := sdkmath.LegacyNewDecFromInt(sdkmath.NewIntWithDecimal(1, int(decimals)))

	result := decAmount.Quo(factor)
	resultFloat, err := result.Float64()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}

	if math.IsNaN(resultFloat) || math.IsInf(resultFloat, 0) {
		return 0, fmt.Errorf("%w: result is %f", ErrNotFinite, resultFloat)
	}

	return resultFloat, nil
}

// WadToFloat64 converts a wad fixed-point rate to a plain float, e.g.
// 1e18 -> 1.0 (100%). Logging and dashboard use only.
func WadToFloat64(rate sdkmath.Int) (float64, error) {
	return AmountToFloat64(rate, 18)
}
