/*

This package derives the deposit and withdraw ceilings the share-accounting
layer consults before moving funds. Both limits are pure reads over live
pool state; exceeding a limit is the caller's problem, never an error here.

*/

package capacity

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/pitfidev/lender-strategy/internal/logger"
	"github.com/pitfidev/lender-strategy/internal/pool"
	"github.com/pitfidev/lender-strategy/internal/reserveconfig"
	"github.com/pitfidev/lender-strategy/internal/types"
)

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidPool    = errors.New("lending pool is invalid")
	ErrInvalidTokens  = errors.New("token reader is invalid")
	ErrInvalidAddress = errors.New("address is invalid")
)

// Guard computes available deposit/withdraw capacity for one reserve.
type Guard struct {
	logger zerolog.Logger

	pool  pool.LendingPool
	erc20 pool.ERC20

	asset        common.Address
	self         common.Address
	receiptToken common.Address
	decimals     uint8
}

// Config holds the dependencies for creating a Guard.
type Config struct {
	Pool         pool.LendingPool
	ERC20        pool.ERC20
	Asset        common.Address
	Self         common.Address
	ReceiptToken common.Address
}

// NewGuard creates a capacity guard. The receipt token's decimals are read
// once here and cached; they are constant for the life of the instance.
func NewGuard(cfg Config) (*Guard, error) {
	if cfg.Pool == nil {
		return nil, ErrInvalidPool
	}
	if cfg.ERC20 == nil {
		return nil, ErrInvalidTokens
	}
	if cfg.Asset == (common.Address{}) || cfg.Self == (common.Address{}) || cfg.ReceiptToken == (common.Address{}) {
		return nil, fmt.Errorf("%w: asset, self and receipt token are required", ErrInvalidAddress)
	}

	decimals, err := cfg.ERC20.Decimals(cfg.ReceiptToken)
	if err != nil {
		return nil, fmt.Errorf("failed to read receipt token decimals: %w", err)
	}

	return &Guard{
		logger:       logger.GetForComponent("capacity_guard"),
		pool:         cfg.Pool,
		erc20:        cfg.ERC20,
		asset:        cfg.Asset,
		self:         cfg.Self,
		receiptToken: cfg.ReceiptToken,
		decimals:     decimals,
	}, nil
}

// AvailableDepositLimit returns the amount of underlying asset that can
// still be deposited into the reserve. Zero when the reserve is paused or
// frozen, the maximum representable amount when the reserve carries no
// supply cap.
func (g *Guard) AvailableDepositLimit() (sdkmath.Int, error) {
	data, err := g.pool.GetReserveData(g.asset)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to get reserve data: %w", err)
	}
	cfg := reserveconfig.Decode(data.ConfigurationWord)

	if cfg.Paused || cfg.Frozen {
		return sdkmath.ZeroInt(), nil
	}

	cap, unlimited := reserveconfig.EffectiveSupplyCap(cfg, g.decimals)
	if unlimited {
		return types.MaxUint256, nil
	}

	receiptSupply, err := g.erc20.TotalSupply(g.receiptToken)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to get receipt token supply: %w", err)
	}
	idle, err := g.erc20.BalanceOf(g.asset, g.self)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to get idle balance: %w", err)
	}

	// idle counts against the cap because it will be deposited imminently
	currentSupply := receiptSupply.Add(idle)
	if currentSupply.GTE(cap) {
		return sdkmath.ZeroInt(), nil
	}
	return cap.Sub(currentSupply), nil
}

// AvailableWithdrawLimit returns the upper bound on an immediate
// withdrawal: the strategy's idle balance plus whatever liquidity the
// receipt-token contract currently holds. Share-to-asset conversion and
// the caller's share balance are enforced by the accounting layer, not
// here. The frozen flag is ignored on purpose: freezing blocks new supply
// but not withdrawals.
func (g *Guard) AvailableWithdrawLimit() (sdkmath.Int, error) {
	idle, err := g.erc20.BalanceOf(g.asset, g.self)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to get idle balance: %w", err)
	}

	data, err := g.pool.GetReserveData(g.asset)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to get reserve data: %w", err)
	}

	liquidity := sdkmath.ZeroInt()
	if !reserveconfig.Decode(data.ConfigurationWord).Paused {
		liquidity, err = g.erc20.BalanceOf(g.asset, g.receiptToken)
		if err != nil {
			return sdkmath.ZeroInt(), fmt.Errorf("failed to get pool liquidity: %w", err)
		}
	}

	return idle.Add(liquidity), nil
}

// Decimals returns the cached receipt-token decimals.
func (g *Guard) Decimals() uint8 {
	return g.decimals
}
