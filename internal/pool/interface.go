package pool

import (
	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/pitfidev/lender-strategy/internal/types"
)

// LendingPool defines the interface for the pool the strategy lends into.
// This interface abstracts away the concrete execution environment, allowing
// for different implementations (live on-chain client, in-memory simulation).
// Every call is a potential re-entrancy boundary; callers must finish their
// own bookkeeping reads before invoking a method that mutates pool state.
type LendingPool interface {
	// Supply deposits amount of asset into the pool for onBehalfOf, minting
	// receipt tokens 1:1.
	Supply(asset common.Address, amount sdkmath.Int, onBehalfOf common.Address, referralCode uint16) error

	// Withdraw redeems receipt tokens for amount of asset, sent to `to`.
	// Returns the amount actually withdrawn.
	Withdraw(asset common.Address, amount sdkmath.Int, to common.Address) (sdkmath.Int, error)

	// GetReserveData returns the reserve record for asset: receipt token,
	// rate-strategy address and the packed configuration word.
	GetReserveData(asset common.Address) (types.ReserveData, error)
}

// DataProvider exposes the detailed reserve metrics the rate projector
// needs. Read-only.
type DataProvider interface {
	// GetReserveMetrics returns the current debt totals for asset.
	GetReserveMetrics(asset common.Address) (types.ReserveMetrics, error)

	// GetReserveFactor returns the reserve factor for asset, in bps.
	GetReserveFactor(asset common.Address) (sdkmath.Int, error)
}

// RateModels evaluates a reserve's configured interest-rate model. The
// model is addressed per call because the pool can swap a reserve's rate
// strategy at any time.
type RateModels interface {
	// CalculateInterestRates runs the rate curve at `model` with the given
	// input and returns the projected rate triple in ray.
	CalculateInterestRates(model common.Address, input types.RateInput) (types.RateOutput, error)
}

// RewardsController claims native incentive rewards accrued to the
// strategy's receipt-token position.
type RewardsController interface {
	// ClaimAllRewardsToSelf claims every pending reward for the given
	// position assets into the caller. Returns the reward token addresses
	// and the amounts claimed; the controller decides which had balance.
	ClaimAllRewardsToSelf(assets []common.Address) ([]common.Address, []sdkmath.Int, error)
}

// RewardsEscrow is the optional external escrow holding additional reward
// balances for the strategy.
type RewardsEscrow interface {
	// ClaimAllAdditionalRewards pulls every escrowed reward balance into
	// the strategy and returns the token addresses received.
	ClaimAllAdditionalRewards() ([]common.Address, error)
}

// ERC20 provides token reads and approvals across arbitrary token
// contracts, keyed by token address.
type ERC20 interface {
	BalanceOf(token, owner common.Address) (sdkmath.Int, error)
	TotalSupply(token common.Address) (sdkmath.Int, error)
	Decimals(token common.Address) (uint8, error)
	Approve(token, spender common.Address, amount sdkmath.Int) error
}

// RouterV2 is the constant-product swap router.
type RouterV2 interface {
	// SwapExactTokensForTokens executes an exact-input swap along path,
	// sending output to `to`. Returns the final output amount.
	SwapExactTokensForTokens(amountIn, amountOutMin sdkmath.Int, path []common.Address, to common.Address) (sdkmath.Int, error)

	// GetAmountsOut quotes an exact-input swap along path. Estimation only;
	// the quote can be manipulated within a block.
	GetAmountsOut(amountIn sdkmath.Int, path []common.Address) ([]sdkmath.Int, error)
}

// RouterV3 is the concentrated-liquidity swap router.
type RouterV3 interface {
	// ExactInputSingle executes a single-hop exact-input swap.
	ExactInputSingle(params types.SingleHopSwap) (sdkmath.Int, error)

	// ExactInput executes a multi-hop exact-input swap over a packed path.
	ExactInput(params types.MultiHopSwap) (sdkmath.Int, error)

	// QuoteExactInput quotes a swap over a packed path. Estimation only.
	QuoteExactInput(path []byte, amountIn sdkmath.Int) (sdkmath.Int, error)
}
