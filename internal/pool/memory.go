package pool

import (
	"errors"
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"

	"github.com/pitfidev/lender-strategy/internal/logger"
	"github.com/pitfidev/lender-strategy/internal/reserveconfig"
	"github.com/pitfidev/lender-strategy/internal/types"
	"github.com/pitfidev/lender-strategy/internal/utils"
)

// Error definitions for zero-tolerance error handling
var (
	ErrUnknownReserve        = errors.New("reserve is not configured")
	ErrUnknownRateModel      = errors.New("rate model is not configured")
	ErrInsufficientBalance   = errors.New("token balance is insufficient")
	ErrInsufficientLiquidity = errors.New("pool liquidity is insufficient")
	ErrInsufficientOutput    = errors.New("swap output below minimum")
	ErrMalformedPath         = errors.New("swap path is malformed")
	ErrAmountInvalid         = errors.New("amount is invalid")
)

// v3 byte paths are addr(20) ++ fee(3) ++ addr(20) [++ fee ++ addr ...].
const v3HopSize = 23

// MemoryConfig holds the initial reserve shape for an in-memory client.
type MemoryConfig struct {
	Asset             common.Address
	ReceiptToken      common.Address
	RateStrategy      common.Address
	Strategy          common.Address // account credited by reward claims
	AssetDecimals     uint8
	ConfigurationWord *uint256.Int
	ReserveFactor     sdkmath.Int // bps
}

// MemoryClient is a single-reserve, single-account simulation of every
// collaborator the strategy talks to: lending pool, data provider, rate
// models, rewards controller, rewards escrow, token contracts and both
// routers. It backs paper mode and the package tests.
//
// The simulation is deliberately simple: receipt tokens convert 1:1, the
// recipient of a swap is also the payer, and swap output follows a
// configurable wad rate per token pair (default 1:1).
type MemoryClient struct {
	mu     sync.Mutex
	logger zerolog.Logger

	asset        common.Address
	receiptToken common.Address
	rateStrategy common.Address
	strategy     common.Address

	configWord    *uint256.Int
	metrics       types.ReserveMetrics
	reserveFactor sdkmath.Int

	decimals    map[common.Address]uint8
	balances    map[common.Address]map[common.Address]sdkmath.Int
	totalSupply map[common.Address]sdkmath.Int
	allowances  map[common.Address]map[common.Address]sdkmath.Int // token -> spender

	models map[common.Address]*KinkRateModel

	rewardOrder    []common.Address
	pendingRewards map[common.Address]sdkmath.Int
	escrowOrder    []common.Address
	escrowRewards  map[common.Address]sdkmath.Int

	// wad output-per-input rate per ordered pair; unset pairs trade 1:1
	exchangeRates map[common.Address]map[common.Address]sdkmath.Int

	// counters for observability and tests
	SwapCalls    int
	ApproveCalls int
}

// NewMemoryClient creates an in-memory client with an empty reserve.
func NewMemoryClient(cfg MemoryConfig) (*MemoryClient, error) {
	if cfg.Asset == (common.Address{}) || cfg.ReceiptToken == (common.Address{}) {
		return nil, fmt.Errorf("%w: asset and receipt token are required", ErrUnknownReserve)
	}
	word := cfg.ConfigurationWord
	if word == nil {
		word = uint256.NewInt(0)
	}
	rf := cfg.ReserveFactor
	if rf.IsNil() {
		rf = sdkmath.ZeroInt()
	}

	m := &MemoryClient{
		logger:         logger.GetForComponent("memory_pool"),
		asset:          cfg.Asset,
		receiptToken:   cfg.ReceiptToken,
		rateStrategy:   cfg.RateStrategy,
		strategy:       cfg.Strategy,
		configWord:     word.Clone(),
		reserveFactor:  rf,
		decimals:       make(map[common.Address]uint8),
		balances:       make(map[common.Address]map[common.Address]sdkmath.Int),
		totalSupply:    make(map[common.Address]sdkmath.Int),
		allowances:     make(map[common.Address]map[common.Address]sdkmath.Int),
		models:         make(map[common.Address]*KinkRateModel),
		pendingRewards: make(map[common.Address]sdkmath.Int),
		escrowRewards:  make(map[common.Address]sdkmath.Int),
		exchangeRates:  make(map[common.Address]map[common.Address]sdkmath.Int),
		metrics: types.ReserveMetrics{
			Unbacked:                sdkmath.ZeroInt(),
			TotalStableDebt:         sdkmath.ZeroInt(),
			TotalVariableDebt:       sdkmath.ZeroInt(),
			AverageStableBorrowRate: sdkmath.ZeroInt(),
		},
	}
	m.decimals[cfg.Asset] = cfg.AssetDecimals
	m.decimals[cfg.ReceiptToken] = cfg.AssetDecimals
	return m, nil
}

// --- test / paper-mode state mutators ---

// SetConfigurationWord swaps the packed reserve configuration.
func (m *MemoryClient) SetConfigurationWord(word *uint256.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configWord = word.Clone()
}

// SetMetrics replaces the detailed reserve metrics.
func (m *MemoryClient) SetMetrics(metrics types.ReserveMetrics) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics = metrics
}

// SetRateModel registers a kink model at the given strategy address.
func (m *MemoryClient) SetRateModel(model common.Address, k *KinkRateModel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.models[model] = k
}

// SetBalance force-sets a token balance for an owner.
func (m *MemoryClient) SetBalance(token, owner common.Address, amount sdkmath.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credit(token, owner, amount.Sub(m.balanceOf(token, owner)))
}

// FundRewards schedules a native incentive reward for the next claim.
func (m *MemoryClient) FundRewards(token common.Address, amount sdkmath.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pendingRewards[token]; !ok {
		m.rewardOrder = append(m.rewardOrder, token)
		m.pendingRewards[token] = sdkmath.ZeroInt()
	}
	m.pendingRewards[token] = m.pendingRewards[token].Add(amount)
}

// FundEscrow schedules an escrowed additional reward for the next claim.
func (m *MemoryClient) FundEscrow(token common.Address, amount sdkmath.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.escrowRewards[token]; !ok {
		m.escrowOrder = append(m.escrowOrder, token)
		m.escrowRewards[token] = sdkmath.ZeroInt()
	}
	m.escrowRewards[token] = m.escrowRewards[token].Add(amount)
}

// SetExchangeRate sets the wad output-per-input rate for an ordered pair.
func (m *MemoryClient) SetExchangeRate(from, to common.Address, rateWad sdkmath.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.exchangeRates[from] == nil {
		m.exchangeRates[from] = make(map[common.Address]sdkmath.Int)
	}
	m.exchangeRates[from][to] = rateWad
}

// --- LendingPool ---

func (m *MemoryClient) Supply(asset common.Address, amount sdkmath.Int, onBehalfOf common.Address, referralCode uint16) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if asset != m.asset {
		return fmt.Errorf("%w: %s", ErrUnknownReserve, asset.Hex())
	}
	if amount.IsNil() || !amount.IsPositive() {
		return fmt.Errorf("%w: supply amount must be positive", ErrAmountInvalid)
	}
	cfg := reserveconfig.Decode(m.configWord)
	if cfg.Paused || cfg.Frozen {
		return fmt.Errorf("%w: reserve is paused or frozen", ErrUnknownReserve)
	}
	if err := m.debit(asset, onBehalfOf, amount); err != nil {
		return err
	}
	// pool liquidity is held by the receipt-token contract
	m.credit(asset, m.receiptToken, amount)
	m.credit(m.receiptToken, onBehalfOf, amount)
	m.totalSupply[m.receiptToken] = m.totalSupplyOf(m.receiptToken).Add(amount)
	return nil
}

func (m *MemoryClient) Withdraw(asset common.Address, amount sdkmath.Int, to common.Address) (sdkmath.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if asset != m.asset {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %s", ErrUnknownReserve, asset.Hex())
	}
	if amount.IsNil() || !amount.IsPositive() {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: withdraw amount must be positive", ErrAmountInvalid)
	}
	if reserveconfig.Decode(m.configWord).Paused {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: reserve is paused", ErrUnknownReserve)
	}
	liquidity := m.balanceOf(asset, m.receiptToken)
	if amount.GT(liquidity) {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: have %s, want %s", ErrInsufficientLiquidity, liquidity, amount)
	}
	if err := m.debit(m.receiptToken, to, amount); err != nil {
		return sdkmath.ZeroInt(), err
	}
	m.totalSupply[m.receiptToken] = m.totalSupplyOf(m.receiptToken).Sub(amount)
	if err := m.debit(asset, m.receiptToken, amount); err != nil {
		return sdkmath.ZeroInt(), err
	}
	m.credit(asset, to, amount)
	return amount, nil
}

func (m *MemoryClient) GetReserveData(asset common.Address) (types.ReserveData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if asset != m.asset {
		return types.ReserveData{}, fmt.Errorf("%w: %s", ErrUnknownReserve, asset.Hex())
	}
	return types.ReserveData{
		ReceiptToken:      m.receiptToken,
		RateStrategy:      m.rateStrategy,
		ConfigurationWord: m.configWord.Clone(),
	}, nil
}

// --- DataProvider ---

func (m *MemoryClient) GetReserveMetrics(asset common.Address) (types.ReserveMetrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if asset != m.asset {
		return types.ReserveMetrics{}, fmt.Errorf("%w: %s", ErrUnknownReserve, asset.Hex())
	}
	return m.metrics, nil
}

func (m *MemoryClient) GetReserveFactor(asset common.Address) (sdkmath.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if asset != m.asset {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %s", ErrUnknownReserve, asset.Hex())
	}
	return m.reserveFactor, nil
}

// --- RateModels ---

func (m *MemoryClient) CalculateInterestRates(model common.Address, input types.RateInput) (types.RateOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k, ok := m.models[model]
	if !ok {
		return types.RateOutput{}, fmt.Errorf("%w: %s", ErrUnknownRateModel, model.Hex())
	}
	available := m.balanceOf(input.Asset, input.ReceiptToken).
		Add(input.LiquidityAdded).
		Sub(input.LiquidityTaken)
	if available.IsNegative() {
		available = sdkmath.ZeroInt()
	}
	return k.Calculate(input, available)
}

// --- RewardsController / RewardsEscrow ---

func (m *MemoryClient) ClaimAllRewardsToSelf(assets []common.Address) ([]common.Address, []sdkmath.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tokens := make([]common.Address, 0, len(m.rewardOrder))
	amounts := make([]sdkmath.Int, 0, len(m.rewardOrder))
	for _, token := range m.rewardOrder {
		amount := m.pendingRewards[token]
		if amount.IsZero() {
			continue
		}
		m.credit(token, m.strategy, amount)
		m.pendingRewards[token] = sdkmath.ZeroInt()
		tokens = append(tokens, token)
		amounts = append(amounts, amount)
	}
	return tokens, amounts, nil
}

func (m *MemoryClient) ClaimAllAdditionalRewards() ([]common.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tokens := make([]common.Address, 0, len(m.escrowOrder))
	for _, token := range m.escrowOrder {
		amount := m.escrowRewards[token]
		if amount.IsZero() {
			continue
		}
		m.credit(token, m.strategy, amount)
		m.escrowRewards[token] = sdkmath.ZeroInt()
		tokens = append(tokens, token)
	}
	return tokens, nil
}

// --- ERC20 ---

func (m *MemoryClient) BalanceOf(token, owner common.Address) (sdkmath.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balanceOf(token, owner), nil
}

func (m *MemoryClient) TotalSupply(token common.Address) (sdkmath.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalSupplyOf(token), nil
}

func (m *MemoryClient) Decimals(token common.Address) (uint8, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.decimals[token]; ok {
		return d, nil
	}
	return 18, nil
}

func (m *MemoryClient) Approve(token, spender common.Address, amount sdkmath.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ApproveCalls++
	if m.allowances[token] == nil {
		m.allowances[token] = make(map[common.Address]sdkmath.Int)
	}
	m.allowances[token][spender] = amount
	return nil
}

// --- RouterV2 ---

func (m *MemoryClient) SwapExactTokensForTokens(amountIn, amountOutMin sdkmath.Int, path []common.Address, to common.Address) (sdkmath.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SwapCalls++
	if len(path) < 2 {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: need at least 2 hops, got %d", ErrMalformedPath, len(path))
	}
	amountOut := m.quoteAlong(amountIn, path)
	if amountOut.LT(amountOutMin) {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: got %s, want at least %s", ErrInsufficientOutput, amountOut, amountOutMin)
	}
	if err := m.debit(path[0], to, amountIn); err != nil {
		return sdkmath.ZeroInt(), err
	}
	m.credit(path[len(path)-1], to, amountOut)
	return amountOut, nil
}

func (m *MemoryClient) GetAmountsOut(amountIn sdkmath.Int, path []common.Address) ([]sdkmath.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(path) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 hops, got %d", ErrMalformedPath, len(path))
	}
	amounts := make([]sdkmath.Int, 0, len(path))
	amounts = append(amounts, amountIn)
	current := amountIn
	for i := 0; i+1 < len(path); i++ {
		current = m.rateOut(path[i], path[i+1], current)
		amounts = append(amounts, current)
	}
	return amounts, nil
}

// --- RouterV3 ---

func (m *MemoryClient) ExactInputSingle(params types.SingleHopSwap) (sdkmath.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SwapCalls++
	amountOut := m.rateOut(params.TokenIn, params.TokenOut, params.AmountIn)
	if amountOut.LT(params.AmountOutMinimum) {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: got %s, want at least %s", ErrInsufficientOutput, amountOut, params.AmountOutMinimum)
	}
	if err := m.debit(params.TokenIn, params.Recipient, params.AmountIn); err != nil {
		return sdkmath.ZeroInt(), err
	}
	m.credit(params.TokenOut, params.Recipient, amountOut)
	return amountOut, nil
}

func (m *MemoryClient) ExactInput(params types.MultiHopSwap) (sdkmath.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SwapCalls++
	hops, err := decodeV3Path(params.Path)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	amountOut := m.quoteAlong(params.AmountIn, hops)
	if amountOut.LT(params.AmountOutMinimum) {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: got %s, want at least %s", ErrInsufficientOutput, amountOut, params.AmountOutMinimum)
	}
	if err := m.debit(hops[0], params.Recipient, params.AmountIn); err != nil {
		return sdkmath.ZeroInt(), err
	}
	m.credit(hops[len(hops)-1], params.Recipient, amountOut)
	return amountOut, nil
}

func (m *MemoryClient) QuoteExactInput(path []byte, amountIn sdkmath.Int) (sdkmath.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hops, err := decodeV3Path(path)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return m.quoteAlong(amountIn, hops), nil
}

// --- internals (m.mu held) ---

func (m *MemoryClient) balanceOf(token, owner common.Address) sdkmath.Int {
	if owners, ok := m.balances[token]; ok {
		if bal, ok := owners[owner]; ok {
			return bal
		}
	}
	return sdkmath.ZeroInt()
}

func (m *MemoryClient) totalSupplyOf(token common.Address) sdkmath.Int {
	if supply, ok := m.totalSupply[token]; ok {
		return supply
	}
	return sdkmath.ZeroInt()
}

func (m *MemoryClient) credit(token, owner common.Address, amount sdkmath.Int) {
	if m.balances[token] == nil {
		m.balances[token] = make(map[common.Address]sdkmath.Int)
	}
	m.balances[token][owner] = m.balanceOf(token, owner).Add(amount)
}

func (m *MemoryClient) debit(token, owner common.Address, amount sdkmath.Int) error {
	bal := m.balanceOf(token, owner)
	if bal.LT(amount) {
		return fmt.Errorf("%w: %s has %s of %s, want %s",
			ErrInsufficientBalance, owner.Hex(), bal, token.Hex(), amount)
	}
	m.balances[token][owner] = bal.Sub(amount)
	return nil
}

func (m *MemoryClient) rateOut(from, to common.Address, amountIn sdkmath.Int) sdkmath.Int {
	if rates, ok := m.exchangeRates[from]; ok {
		if rate, ok := rates[to]; ok {
			return amountIn.Mul(rate).Quo(utils.Wad())
		}
	}
	return amountIn
}

func (m *MemoryClient) quoteAlong(amountIn sdkmath.Int, path []common.Address) sdkmath.Int {
	current := amountIn
	for i := 0; i+1 < len(path); i++ {
		current = m.rateOut(path[i], path[i+1], current)
	}
	return current
}

func decodeV3Path(path []byte) ([]common.Address, error) {
	if len(path) < 2*common.AddressLength+3 || (len(path)-common.AddressLength)%v3HopSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedPath, len(path))
	}
	hops := []common.Address{common.BytesToAddress(path[:common.AddressLength])}
	for offset := common.AddressLength; offset < len(path); offset += v3HopSize {
		hops = append(hops, common.BytesToAddress(path[offset+3:offset+v3HopSize]))
	}
	return hops, nil
}
