package reserveconfig

import (
	"math/rand"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wordWith(bits []uint, capRaw uint64) *uint256.Int {
	word := uint256.NewInt(0)
	for _, position := range bits {
		bit := new(uint256.Int).Lsh(uint256.NewInt(1), position)
		word.Or(word, bit)
	}
	capField := new(uint256.Int).Lsh(uint256.NewInt(capRaw), SupplyCapStartBit)
	word.Or(word, capField)
	return word
}

func TestDecodeNilWord(t *testing.T) {
	cfg := Decode(nil)
	assert.False(t, cfg.Paused)
	assert.False(t, cfg.Frozen)
	assert.True(t, cfg.SupplyCapRaw.IsZero())
}

func TestDecodeFlags(t *testing.T) {
	assert.True(t, Decode(wordWith([]uint{PausedBitPosition}, 0)).Paused)
	assert.True(t, Decode(wordWith([]uint{FrozenBitPosition}, 0)).Frozen)

	both := Decode(wordWith([]uint{PausedBitPosition, FrozenBitPosition}, 0))
	assert.True(t, both.Paused)
	assert.True(t, both.Frozen)

	// adjacent bits must not bleed into the flags
	neighbors := Decode(wordWith([]uint{56, 58, 59, 61}, 0))
	assert.False(t, neighbors.Paused)
	assert.False(t, neighbors.Frozen)
}

func TestDecodeSupplyCap(t *testing.T) {
	cfg := Decode(wordWith(nil, 1500))
	require.Equal(t, sdkmath.NewInt(1500), cfg.SupplyCapRaw)

	// maximum value the 36-bit field can carry
	maxCap := uint64(1)<<SupplyCapBits - 1
	cfg = Decode(wordWith(nil, maxCap))
	require.Equal(t, sdkmath.NewIntFromUint64(maxCap), cfg.SupplyCapRaw)
}

func TestDecodeIgnoresOtherFields(t *testing.T) {
	// saturate everything outside the fields we read
	word := new(uint256.Int).Not(uint256.NewInt(0))
	word.And(word, SupplyCapMask)
	clearBit := func(position uint) {
		mask := new(uint256.Int).Lsh(uint256.NewInt(1), position)
		word.And(word, new(uint256.Int).Not(mask))
	}
	clearBit(PausedBitPosition)
	clearBit(FrozenBitPosition)

	cfg := Decode(word)
	assert.False(t, cfg.Paused)
	assert.False(t, cfg.Frozen)
	assert.True(t, cfg.SupplyCapRaw.IsZero())
}

func TestDecodeRandomizedWords(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		paused := rng.Intn(2) == 1
		frozen := rng.Intn(2) == 1
		capRaw := rng.Uint64() & (uint64(1)<<SupplyCapBits - 1)

		var bits []uint
		if paused {
			bits = append(bits, PausedBitPosition)
		}
		if frozen {
			bits = append(bits, FrozenBitPosition)
		}
		// random noise in unrelated low bits
		for j := 0; j < 5; j++ {
			noise := uint(rng.Intn(57))
			bits = append(bits, noise)
		}

		cfg := Decode(wordWith(bits, capRaw))
		require.Equal(t, paused, cfg.Paused)
		require.Equal(t, frozen, cfg.Frozen)
		require.Equal(t, sdkmath.NewIntFromUint64(capRaw), cfg.SupplyCapRaw)
	}
}

func TestEffectiveSupplyCap(t *testing.T) {
	capped, unlimited := EffectiveSupplyCap(Config{SupplyCapRaw: sdkmath.NewInt(1500)}, 6)
	assert.False(t, unlimited)
	assert.Equal(t, sdkmath.NewInt(1_500_000_000), capped)

	_, unlimited = EffectiveSupplyCap(Config{SupplyCapRaw: sdkmath.ZeroInt()}, 6)
	assert.True(t, unlimited)

	capped, unlimited = EffectiveSupplyCap(Config{SupplyCapRaw: sdkmath.NewInt(1)}, 18)
	assert.False(t, unlimited)
	assert.Equal(t, sdkmath.NewIntWithDecimal(1, 18), capped)
}
