/*

This package is the strategy core: it owns the lending-pool position, the
idle balance and the harvest flow, and exposes the entry points the share
accounting layer calls (deployFunds / freeFunds / harvestAndReport /
emergencyWithdraw / the two capacity limits) plus the management setters.

Every collaborator call is a potential re-entrancy boundary. Local
bookkeeping reads are finished before any state-mutating external call is
made, and nothing here caches balances across calls.

*/

package strategy

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/pitfidev/lender-strategy/internal/capacity"
	"github.com/pitfidev/lender-strategy/internal/logger"
	"github.com/pitfidev/lender-strategy/internal/pool"
	"github.com/pitfidev/lender-strategy/internal/swap"
)

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidPool       = errors.New("lending pool is invalid")
	ErrInvalidTokens     = errors.New("token reader is invalid")
	ErrInvalidRewards    = errors.New("rewards controller is invalid")
	ErrInvalidSwapper    = errors.New("swap adapter is invalid")
	ErrInvalidAddress    = errors.New("address is invalid")
	ErrNoReceiptToken    = errors.New("no receipt token resolved for asset")
	ErrAmountNotPositive = errors.New("amount must be positive")
)

// Strategy holds the accounting and capacity-limiting core for a single
// asset lent into one pool reserve.
type Strategy struct {
	logger zerolog.Logger

	pool    pool.LendingPool
	erc20   pool.ERC20
	rewards pool.RewardsController
	escrow  pool.RewardsEscrow // nil when no escrow is configured
	swapper *swap.Adapter
	guard   *capacity.Guard

	self         common.Address
	asset        common.Address
	receiptToken common.Address
	decimals     uint8
	referralCode uint16

	claimRewards bool

	// per-token minimum balance below which a reward is not liquidated;
	// distinct from the swap adapter's global dust floor, both apply
	minAmountToSellMapping map[common.Address]sdkmath.Int

	cycleCount int
}

// Config holds the dependencies for creating a Strategy.
type Config struct {
	Pool    pool.LendingPool
	ERC20   pool.ERC20
	Rewards pool.RewardsController
	Escrow  pool.RewardsEscrow // optional
	Swapper *swap.Adapter

	Self         common.Address
	Asset        common.Address
	ReferralCode uint16
	ClaimRewards bool
}

// New creates a strategy instance. The receipt token is resolved from the
// pool once here; a zero receipt token is fatal and prevents instantiation.
func New(cfg Config) (*Strategy, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("strategy configuration validation failed: %w", err)
	}

	data, err := cfg.Pool.GetReserveData(cfg.Asset)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve reserve for asset %s: %w", cfg.Asset.Hex(), err)
	}
	if data.ReceiptToken == (common.Address{}) {
		return nil, fmt.Errorf("%w: %s", ErrNoReceiptToken, cfg.Asset.Hex())
	}

	guard, err := capacity.NewGuard(capacity.Config{
		Pool:         cfg.Pool,
		ERC20:        cfg.ERC20,
		Asset:        cfg.Asset,
		Self:         cfg.Self,
		ReceiptToken: data.ReceiptToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create capacity guard: %w", err)
	}

	s := &Strategy{
		logger:                 logger.GetForComponent("strategy_core"),
		pool:                   cfg.Pool,
		erc20:                  cfg.ERC20,
		rewards:                cfg.Rewards,
		escrow:                 cfg.Escrow,
		swapper:                cfg.Swapper,
		guard:                  guard,
		self:                   cfg.Self,
		asset:                  cfg.Asset,
		receiptToken:           data.ReceiptToken,
		decimals:               guard.Decimals(),
		referralCode:           cfg.ReferralCode,
		claimRewards:           cfg.ClaimRewards,
		minAmountToSellMapping: make(map[common.Address]sdkmath.Int),
	}

	s.logger.Info().
		Str("asset", s.asset.Hex()).
		Str("receiptToken", s.receiptToken.Hex()).
		Uint8("decimals", s.decimals).
		Bool("claimRewards", s.claimRewards).
		Msg("Strategy instance created")

	return s, nil
}

func validateConfig(cfg Config) error {
	if cfg.Pool == nil {
		return ErrInvalidPool
	}
	if cfg.ERC20 == nil {
		return ErrInvalidTokens
	}
	if cfg.Rewards == nil {
		return ErrInvalidRewards
	}
	if cfg.Swapper == nil {
		return ErrInvalidSwapper
	}
	if cfg.Self == (common.Address{}) || cfg.Asset == (common.Address{}) {
		return fmt.Errorf("%w: self and asset are required", ErrInvalidAddress)
	}
	return nil
}

// DeployFunds supplies amount of the underlying asset into the pool.
func (s *Strategy) DeployFunds(amount sdkmath.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return ErrAmountNotPositive
	}
	if err := s.pool.Supply(s.asset, amount, s.self, s.referralCode); err != nil {
		return fmt.Errorf("pool supply failed: %w", err)
	}
	s.logger.Debug().Str("amount", amount.String()).Msg("Funds deployed to pool")
	return nil
}

// FreeFunds withdraws amount of the underlying asset from the pool.
func (s *Strategy) FreeFunds(amount sdkmath.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return ErrAmountNotPositive
	}
	withdrawn, err := s.pool.Withdraw(s.asset, amount, s.self)
	if err != nil {
		return fmt.Errorf("pool withdraw failed: %w", err)
	}
	s.logger.Debug().Str("withdrawn", withdrawn.String()).Msg("Funds freed from pool")
	return nil
}

// EmergencyWithdraw pulls out as much of amount as the pool's current
// liquidity allows. A partially liquid reserve yields a partial exit
// rather than a failure.
func (s *Strategy) EmergencyWithdraw(amount sdkmath.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return ErrAmountNotPositive
	}
	liquidity, err := s.erc20.BalanceOf(s.asset, s.receiptToken)
	if err != nil {
		return fmt.Errorf("failed to read pool liquidity: %w", err)
	}
	toWithdraw := sdkmath.MinInt(amount, liquidity)
	if !toWithdraw.IsPositive() {
		s.logger.Warn().Str("requested", amount.String()).Msg("Emergency withdraw skipped: no pool liquidity")
		return nil
	}
	if _, err := s.pool.Withdraw(s.asset, toWithdraw, s.self); err != nil {
		return fmt.Errorf("emergency withdraw failed: %w", err)
	}
	s.logger.Warn().
		Str("requested", amount.String()).
		Str("withdrawn", toWithdraw.String()).
		Msg("Emergency withdraw executed")
	return nil
}

// HarvestOutcome summarizes one harvest cycle for reporting.
type HarvestOutcome struct {
	TotalAssets  sdkmath.Int
	PoolPosition sdkmath.Int
	IdleBalance  sdkmath.Int

	RewardTokensClaimed int
	RewardTokensSold    int
	Redeposited         bool
}

// HarvestAndReport claims and liquidates pending rewards, sweeps the
// resulting idle balance back into the pool, and returns the authoritative
// total-assets figure. Any collaborator failure aborts the whole harvest;
// nothing is caught locally.
func (s *Strategy) HarvestAndReport() (sdkmath.Int, error) {
	outcome, err := s.Harvest()
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return outcome.TotalAssets, nil
}

// Harvest is HarvestAndReport with the full outcome exposed for the run
// loop and the report store.
func (s *Strategy) Harvest() (HarvestOutcome, error) {
	outcome := HarvestOutcome{}

	if s.claimRewards {
		tokens, _, err := s.rewards.ClaimAllRewardsToSelf([]common.Address{s.receiptToken})
		if err != nil {
			return outcome, fmt.Errorf("native reward claim failed: %w", err)
		}
		outcome.RewardTokensClaimed += len(tokens)
		sold, err := s.sellRewardTokens(tokens)
		if err != nil {
			return outcome, err
		}
		outcome.RewardTokensSold += sold
	}

	if s.escrow != nil {
		tokens, err := s.escrow.ClaimAllAdditionalRewards()
		if err != nil {
			return outcome, fmt.Errorf("escrow reward claim failed: %w", err)
		}
		outcome.RewardTokensClaimed += len(tokens)
		sold, err := s.sellRewardTokens(tokens)
		if err != nil {
			return outcome, err
		}
		outcome.RewardTokensSold += sold
	}

	// sweep liquidation proceeds back into the pool so no capital sits idle
	idle, err := s.erc20.BalanceOf(s.asset, s.self)
	if err != nil {
		return outcome, fmt.Errorf("failed to read idle balance: %w", err)
	}
	if idle.IsPositive() {
		if err := s.DeployFunds(idle); err != nil {
			return outcome, err
		}
		outcome.Redeposited = true
	}

	position, err := s.erc20.BalanceOf(s.receiptToken, s.self)
	if err != nil {
		return outcome, fmt.Errorf("failed to read pool position: %w", err)
	}
	remaining, err := s.erc20.BalanceOf(s.asset, s.self)
	if err != nil {
		return outcome, fmt.Errorf("failed to read remaining idle balance: %w", err)
	}

	outcome.PoolPosition = position
	outcome.IdleBalance = remaining
	outcome.TotalAssets = position.Add(remaining)
	return outcome, nil
}

// sellRewardTokens liquidates each listed token into the underlying asset.
// The underlying itself is skipped, as is any token whose balance is at or
// below its configured threshold. Returns the number of tokens sold.
func (s *Strategy) sellRewardTokens(tokens []common.Address) (int, error) {
	sold := 0
	for _, token := range tokens {
		if token == s.asset {
			// selling asset for asset would only waste gas
			continue
		}
		balance, err := s.erc20.BalanceOf(token, s.self)
		if err != nil {
			return sold, fmt.Errorf("failed to read reward balance of %s: %w", token.Hex(), err)
		}
		threshold, ok := s.minAmountToSellMapping[token]
		if !ok {
			threshold = sdkmath.ZeroInt()
		}
		if balance.LTE(threshold) {
			continue
		}

		// minAmountOut is deliberately zero: this is a harvest-time
		// liquidation of already-claimed rewards, the proceeds land as
		// profit regardless of the exact rate
		out, err := s.swapper.SwapFrom(token, s.asset, balance, sdkmath.ZeroInt())
		if err != nil {
			return sold, fmt.Errorf("reward sale of %s failed: %w", token.Hex(), err)
		}
		if out.IsPositive() {
			sold++
		}
	}
	return sold, nil
}

// AvailableDepositLimit returns the remaining deposit capacity for the
// reserve. The owner argument is accepted for interface compatibility and
// not consulted; limits are global to the reserve.
func (s *Strategy) AvailableDepositLimit(owner common.Address) (sdkmath.Int, error) {
	return s.guard.AvailableDepositLimit()
}

// AvailableWithdrawLimit returns the upper bound on an immediate
// withdrawal. The owner argument is not consulted.
func (s *Strategy) AvailableWithdrawLimit(owner common.Address) (sdkmath.Int, error) {
	return s.guard.AvailableWithdrawLimit()
}

// --- management setters; single authorized writer at a time assumed ---

// SetRewardsEscrow configures (or clears, with nil) the additional-rewards
// escrow collaborator.
func (s *Strategy) SetRewardsEscrow(escrow pool.RewardsEscrow) {
	s.escrow = escrow
}

// SetClaimRewards toggles native incentive claiming during harvest.
func (s *Strategy) SetClaimRewards(claim bool) {
	s.claimRewards = claim
}

// SetMinAmountToSellMapping sets the per-token minimum balance below which
// a reward is not liquidated. Setting a token to types.MaxUint256 parks it
// permanently, the designed escape hatch for a token whose swap path
// reverts.
func (s *Strategy) SetMinAmountToSellMapping(token common.Address, amount sdkmath.Int) {
	s.minAmountToSellMapping[token] = amount
	s.logger.Info().
		Str("token", token.Hex()).
		Str("threshold", amount.String()).
		Msg("Reward sale threshold updated")
}

// SetUniFees sets the fee tier for a token pair on the swap adapter.
func (s *Strategy) SetUniFees(tokenA, tokenB common.Address, fee uint32) {
	s.swapper.SetUniFees(tokenA, tokenB, fee)
}

// SetRouter replaces both router endpoints on the swap adapter.
func (s *Strategy) SetRouter(v2 pool.RouterV2, v2Addr common.Address, v3 pool.RouterV3, v3Addr common.Address) error {
	return s.swapper.SetRouters(v2, v2Addr, v3, v3Addr)
}

// SetUseV3Router selects the concentrated-liquidity path for swaps
// originating from token.
func (s *Strategy) SetUseV3Router(token common.Address, use bool) {
	s.swapper.SetUseV3Router(token, use)
}

// Asset returns the underlying asset address.
func (s *Strategy) Asset() common.Address { return s.asset }

// ReceiptToken returns the pool receipt token address.
func (s *Strategy) ReceiptToken() common.Address { return s.receiptToken }

// Decimals returns the asset decimals cached at construction.
func (s *Strategy) Decimals() uint8 { return s.decimals }
