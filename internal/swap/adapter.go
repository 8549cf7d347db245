/*

This package resolves a (from, to) token pair to a concrete swap through a
configured base token, across two router versions: constant-product
(ordered address path) and concentrated-liquidity (packed byte path with a
fee tier per hop). Route preference and fee tiers are process-wide
configuration mutated only through the management setters; single writer
at a time is assumed, no locking here.

*/

package swap

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/pitfidev/lender-strategy/internal/logger"
	"github.com/pitfidev/lender-strategy/internal/pool"
	"github.com/pitfidev/lender-strategy/internal/types"
)

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidRouter    = errors.New("router is invalid")
	ErrInvalidTokens    = errors.New("token reader is invalid")
	ErrInvalidAddress   = errors.New("address is invalid")
	ErrMissingFeeConfig = errors.New("fee tier is not configured for pair")
	ErrSwapExecution    = errors.New("swap execution failed")
	ErrApprovalFailed   = errors.New("token approval failed")
)

// Adapter routes swaps from reward tokens into the underlying asset.
type Adapter struct {
	logger zerolog.Logger

	erc20    pool.ERC20
	routerV2 pool.RouterV2
	routerV3 pool.RouterV3

	self common.Address
	base common.Address

	// routerV2Addr / routerV3Addr are the spender addresses for approvals.
	routerV2Addr common.Address
	routerV3Addr common.Address

	useV3 map[common.Address]bool
	fees  map[common.Address]map[common.Address]uint32

	// global dust floor: swaps at or below this input amount are no-ops
	minAmountToSell sdkmath.Int
}

// Config holds the dependencies for creating an Adapter.
type Config struct {
	ERC20        pool.ERC20
	RouterV2     pool.RouterV2
	RouterV3     pool.RouterV3
	RouterV2Addr common.Address
	RouterV3Addr common.Address
	Self         common.Address
	Base         common.Address

	MinAmountToSell sdkmath.Int
}

// NewAdapter creates a swap adapter.
func NewAdapter(cfg Config) (*Adapter, error) {
	if cfg.ERC20 == nil {
		return nil, ErrInvalidTokens
	}
	if cfg.RouterV2 == nil || cfg.RouterV3 == nil {
		return nil, ErrInvalidRouter
	}
	if cfg.Self == (common.Address{}) || cfg.Base == (common.Address{}) {
		return nil, fmt.Errorf("%w: self and base token are required", ErrInvalidAddress)
	}
	floor := cfg.MinAmountToSell
	if floor.IsNil() {
		floor = sdkmath.ZeroInt()
	}

	return &Adapter{
		logger:          logger.GetForComponent("swap_adapter"),
		erc20:           cfg.ERC20,
		routerV2:        cfg.RouterV2,
		routerV3:        cfg.RouterV3,
		routerV2Addr:    cfg.RouterV2Addr,
		routerV3Addr:    cfg.RouterV3Addr,
		self:            cfg.Self,
		base:            cfg.Base,
		useV3:           make(map[common.Address]bool),
		fees:            make(map[common.Address]map[common.Address]uint32),
		minAmountToSell: floor,
	}, nil
}

// SetUniFees sets the concentrated-liquidity fee tier for a token pair.
// The table is symmetric by construction: every write updates both
// orderings.
func (a *Adapter) SetUniFees(tokenA, tokenB common.Address, fee uint32) {
	a.setFee(tokenA, tokenB, fee)
	a.setFee(tokenB, tokenA, fee)
	a.logger.Info().
		Str("tokenA", tokenA.Hex()).
		Str("tokenB", tokenB.Hex()).
		Uint32("fee", fee).
		Msg("Fee tier updated")
}

// SetUseV3Router selects the concentrated-liquidity path for swaps
// originating from token. Default is the constant-product path.
func (a *Adapter) SetUseV3Router(token common.Address, use bool) {
	a.useV3[token] = use
}

// SetRouters replaces both router endpoints.
func (a *Adapter) SetRouters(v2 pool.RouterV2, v2Addr common.Address, v3 pool.RouterV3, v3Addr common.Address) error {
	if v2 == nil || v3 == nil {
		return ErrInvalidRouter
	}
	a.routerV2 = v2
	a.routerV2Addr = v2Addr
	a.routerV3 = v3
	a.routerV3Addr = v3Addr
	return nil
}

// SetMinAmountToSell replaces the global dust floor.
func (a *Adapter) SetMinAmountToSell(amount sdkmath.Int) {
	a.minAmountToSell = amount
}

// Fee returns the configured fee tier for a pair, in either ordering.
func (a *Adapter) Fee(from, to common.Address) (uint32, error) {
	if fees, ok := a.fees[from]; ok {
		if fee, ok := fees[to]; ok && fee != 0 {
			return fee, nil
		}
	}
	return 0, fmt.Errorf("%w: %s/%s", ErrMissingFeeConfig, from.Hex(), to.Hex())
}

// SwapFrom swaps amountIn of from into to through the configured route.
// Inputs at or below the dust floor are a no-op returning zero: a swap
// that small loses more to fees and slippage than it realizes.
func (a *Adapter) SwapFrom(from, to common.Address, amountIn, minAmountOut sdkmath.Int) (sdkmath.Int, error) {
	if amountIn.IsNil() || amountIn.LTE(a.minAmountToSell) {
		return sdkmath.ZeroInt(), nil
	}

	if a.useV3[from] {
		if err := a.ensureAllowance(from, a.routerV3Addr, amountIn); err != nil {
			return sdkmath.ZeroInt(), err
		}
		return a.swapV3(from, to, amountIn, minAmountOut)
	}

	if err := a.ensureAllowance(from, a.routerV2Addr, amountIn); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return a.swapV2(from, to, amountIn, minAmountOut)
}

// GetAmountOut quotes a swap over the same route SwapFrom would take.
// Estimation only: the quote reads spot reserves and can be manipulated
// within a block. Never feed it back into SwapFrom as minAmountOut; an
// authoritative floor needs a manipulation-resistant price source.
func (a *Adapter) GetAmountOut(from, to common.Address, amountIn sdkmath.Int) (sdkmath.Int, error) {
	if amountIn.IsNil() || amountIn.LTE(a.minAmountToSell) {
		return sdkmath.ZeroInt(), nil
	}

	if a.useV3[from] {
		path, err := a.v3Path(from, to)
		if err != nil {
			return sdkmath.ZeroInt(), err
		}
		out, err := a.routerV3.QuoteExactInput(path, amountIn)
		if err != nil {
			return sdkmath.ZeroInt(), fmt.Errorf("%w: %w", ErrSwapExecution, err)
		}
		return out, nil
	}

	amounts, err := a.routerV2.GetAmountsOut(amountIn, v2Path(from, a.base, to))
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %w", ErrSwapExecution, err)
	}
	return amounts[len(amounts)-1], nil
}

// swapV3 executes the concentrated-liquidity route: single hop when either
// endpoint is the base token, otherwise two hops through it.
func (a *Adapter) swapV3(from, to common.Address, amountIn, minAmountOut sdkmath.Int) (sdkmath.Int, error) {
	if from == a.base || to == a.base {
		fee, err := a.Fee(from, to)
		if err != nil {
			return sdkmath.ZeroInt(), err
		}
		out, err := a.routerV3.ExactInputSingle(types.SingleHopSwap{
			TokenIn:          from,
			TokenOut:         to,
			Fee:              fee,
			Recipient:        a.self,
			AmountIn:         amountIn,
			AmountOutMinimum: minAmountOut,
		})
		if err != nil {
			return sdkmath.ZeroInt(), fmt.Errorf("%w: %w", ErrSwapExecution, err)
		}
		return out, nil
	}

	path, err := a.v3Path(from, to)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	out, err := a.routerV3.ExactInput(types.MultiHopSwap{
		Path:             path,
		Recipient:        a.self,
		AmountIn:         amountIn,
		AmountOutMinimum: minAmountOut,
	})
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %w", ErrSwapExecution, err)
	}
	return out, nil
}

// swapV2 executes the constant-product route over an ordered address path.
func (a *Adapter) swapV2(from, to common.Address, amountIn, minAmountOut sdkmath.Int) (sdkmath.Int, error) {
	out, err := a.routerV2.SwapExactTokensForTokens(amountIn, minAmountOut, v2Path(from, a.base, to), a.self)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %w", ErrSwapExecution, err)
	}
	return out, nil
}

// ensureAllowance grants the router exactly amountIn. The allowance is set
// to zero first to stay compatible with tokens that reject changing a
// nonzero allowance.
func (a *Adapter) ensureAllowance(token, spender common.Address, amount sdkmath.Int) error {
	if err := a.erc20.Approve(token, spender, sdkmath.ZeroInt()); err != nil {
		return fmt.Errorf("%w: reset for %s: %w", ErrApprovalFailed, token.Hex(), err)
	}
	if err := a.erc20.Approve(token, spender, amount); err != nil {
		return fmt.Errorf("%w: grant for %s: %w", ErrApprovalFailed, token.Hex(), err)
	}
	return nil
}

// v3Path builds the packed multi-hop byte path from -> base -> to.
// Requires fee tiers for both legs.
func (a *Adapter) v3Path(from, to common.Address) ([]byte, error) {
	if from == a.base || to == a.base {
		fee, err := a.Fee(from, to)
		if err != nil {
			return nil, err
		}
		return encodeV3Path(from, []uint32{fee}, []common.Address{to}), nil
	}
	feeIn, err := a.Fee(from, a.base)
	if err != nil {
		return nil, err
	}
	feeOut, err := a.Fee(a.base, to)
	if err != nil {
		return nil, err
	}
	return encodeV3Path(from, []uint32{feeIn, feeOut}, []common.Address{a.base, to}), nil
}

func (a *Adapter) setFee(from, to common.Address, fee uint32) {
	if a.fees[from] == nil {
		a.fees[from] = make(map[common.Address]uint32)
	}
	a.fees[from][to] = fee
}

// v2Path returns the ordered hop list: direct when either endpoint is
// base, otherwise through base.
func v2Path(from, base, to common.Address) []common.Address {
	if from == base || to == base {
		return []common.Address{from, to}
	}
	return []common.Address{from, base, to}
}

// encodeV3Path packs addr ++ fee(3 bytes big-endian) ++ addr per hop.
func encodeV3Path(start common.Address, fees []uint32, hops []common.Address) []byte {
	path := make([]byte, 0, common.AddressLength+len(fees)*(3+common.AddressLength))
	path = append(path, start.Bytes()...)
	for i, fee := range fees {
		path = append(path, byte(fee>>16), byte(fee>>8), byte(fee))
		path = append(path, hops[i].Bytes()...)
	}
	return path
}
