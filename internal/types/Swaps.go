/*

This file contains the parameter types for router calls. The two router
versions take differently shaped paths: the constant-product router takes an
ordered address list, the concentrated-liquidity router takes a packed byte
path of address ++ fee(3 bytes) ++ address hops.

*/

package types

import (
	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
)

// SingleHopSwap parameterizes a concentrated-liquidity exact-input swap
// through one pool.
type SingleHopSwap struct {
	TokenIn          common.Address `json:"token_in"`
	TokenOut         common.Address `json:"token_out"`
	Fee              uint32         `json:"fee"` // fee tier, e.g. 500 / 3000 / 10000
	Recipient        common.Address `json:"recipient"`
	AmountIn         sdkmath.Int    `json:"amount_in"`
	AmountOutMinimum sdkmath.Int    `json:"amount_out_minimum"`
}

// MultiHopSwap parameterizes a concentrated-liquidity exact-input swap over
// an encoded multi-hop path.
type MultiHopSwap struct {
	Path             []byte         `json:"path"`
	Recipient        common.Address `json:"recipient"`
	AmountIn         sdkmath.Int    `json:"amount_in"`
	AmountOutMinimum sdkmath.Int    `json:"amount_out_minimum"`
}
