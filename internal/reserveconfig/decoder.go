/*

This package decodes the lending pool's packed reserve-configuration word.
The word is a single 256-bit storage slot; the flags and caps this strategy
needs live at fixed bit positions. Decoding is a pure function of the word
and the constants below, so all bit arithmetic stays in this one place.

*/

package reserveconfig

import (
	sdkmath "cosmossdk.io/math"
	"github.com/holiman/uint256"
)

// Bit layout of the packed configuration word.
const (
	FrozenBitPosition = 57
	PausedBitPosition = 60

	SupplyCapStartBit = 116
	SupplyCapBits     = 36
)

var (
	one = uint256.NewInt(1)

	// SupplyCapMask reserves the supply-cap field: every bit outside
	// [SupplyCapStartBit, SupplyCapStartBit+SupplyCapBits) is set.
	// Extraction is (word &^ SupplyCapMask) >> SupplyCapStartBit.
	SupplyCapMask *uint256.Int

	supplyCapField *uint256.Int
)

func init() {
	supplyCapField = new(uint256.Int).Lsh(one, SupplyCapBits)
	supplyCapField.Sub(supplyCapField, one)
	supplyCapField.Lsh(supplyCapField, SupplyCapStartBit)

	SupplyCapMask = new(uint256.Int).Not(supplyCapField)
}

// Config is the decoded slice of the reserve configuration this strategy
// reads. SupplyCapRaw is in whole tokens; zero means the reserve carries
// no cap at all.
type Config struct {
	Paused       bool        `json:"paused"`
	Frozen       bool        `json:"frozen"`
	SupplyCapRaw sdkmath.Int `json:"supply_cap_raw"`
}

// Decode extracts the paused / frozen flags and the raw supply cap from a
// packed configuration word. Pure and total; a nil word decodes as all
// zeroes, matching an uninitialized reserve.
func Decode(word *uint256.Int) Config {
	if word == nil {
		return Config{SupplyCapRaw: sdkmath.ZeroInt()}
	}

	raw := new(uint256.Int).And(word, supplyCapField)
	raw.Rsh(raw, SupplyCapStartBit)

	return Config{
		Paused:       bitSet(word, PausedBitPosition),
		Frozen:       bitSet(word, FrozenBitPosition),
		SupplyCapRaw: sdkmath.NewIntFromUint64(raw.Uint64()),
	}
}

// EffectiveSupplyCap scales the raw cap into base units of the underlying
// asset. A raw cap of zero is the "no cap" sentinel and is reported via
// unlimited=true rather than multiplied.
func EffectiveSupplyCap(cfg Config, decimals uint8) (cap sdkmath.Int, unlimited bool) {
	if cfg.SupplyCapRaw.IsZero() {
		return sdkmath.ZeroInt(), true
	}
	return cfg.SupplyCapRaw.Mul(sdkmath.NewIntWithDecimal(1, int(decimals))), false
}

func bitSet(word *uint256.Int, position uint) bool {
	bit := new(uint256.Int).Rsh(word, position)
	bit.And(bit, one)
	return !bit.IsZero()
}
