/*

This file contains the reserve-side types read from the lending pool and its
data provider. Everything here is a point-in-time read; nothing is mutated
locally.

*/

package types

import (
	"math/big"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// MaxUint256 is the largest representable on-chain amount. Returned by the
// capacity guard when a reserve carries no supply cap.
var MaxUint256 = sdkmath.NewIntFromBigInt(new(big.Int).Sub(
	new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1),
))

// ReserveData is the slice of the pool's per-reserve record this strategy
// cares about: where the receipt token lives, which rate model the reserve
// is configured with, and the raw packed configuration word.
type ReserveData struct {
	ReceiptToken      common.Address `json:"receipt_token"`       // pool-issued 1:1 claim on the underlying
	RateStrategy      common.Address `json:"rate_strategy"`       // interest-rate model contract for this reserve
	ConfigurationWord *uint256.Int   `json:"configuration_word"`  // packed flags + caps, decoded by reserveconfig
}

// ReserveMetrics holds the detailed debt figures the rate model needs.
// All rates are ray (1e27) fixed-point.
type ReserveMetrics struct {
	Unbacked                sdkmath.Int `json:"unbacked"`
	TotalStableDebt         sdkmath.Int `json:"total_stable_debt"`
	TotalVariableDebt       sdkmath.Int `json:"total_variable_debt"`
	AverageStableBorrowRate sdkmath.Int `json:"average_stable_borrow_rate"`
}

// RateInput parameterizes a rate-curve evaluation. LiquidityAdded and
// LiquidityTaken are both unsigned magnitudes; a signed debt delta is split
// into the two legs before the model is invoked.
type RateInput struct {
	Asset                   common.Address `json:"asset"`
	Unbacked                sdkmath.Int    `json:"unbacked"`
	LiquidityAdded          sdkmath.Int    `json:"liquidity_added"`
	LiquidityTaken          sdkmath.Int    `json:"liquidity_taken"`
	TotalStableDebt         sdkmath.Int    `json:"total_stable_debt"`
	TotalVariableDebt       sdkmath.Int    `json:"total_variable_debt"`
	AverageStableBorrowRate sdkmath.Int    `json:"average_stable_borrow_rate"`
	ReserveFactor           sdkmath.Int    `json:"reserve_factor"` // bps (1e4 scale)
	ReceiptToken            common.Address `json:"receipt_token"`
}

// RateOutput is the projected rate triple, ray fixed-point.
type RateOutput struct {
	LiquidityRate      sdkmath.Int `json:"liquidity_rate"`
	StableBorrowRate   sdkmath.Int `json:"stable_borrow_rate"`
	VariableBorrowRate sdkmath.Int `json:"variable_borrow_rate"`
}
