/*

This file contains the live on-chain client. It speaks JSON-RPC through
go-ethereum and implements every collaborator interface against the real
contracts: the lending pool, the protocol data provider, the rate
strategies, the rewards controller, the optional escrow, the ERC20 tokens
and both swap routers.

Methods whose contract counterparts return values from a state-mutating
call (withdraw, claims, swaps) are previewed with eth_call first and then
executed; the preview result is what gets returned. Transactions are
serialized through a mutex so the keyed transactor never races on nonces.

*/

package pool

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"

	"github.com/pitfidev/lender-strategy/internal/logger"
	"github.com/pitfidev/lender-strategy/internal/types"
)

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidEndpoint     = errors.New("RPC endpoint is invalid")
	ErrInvalidKey          = errors.New("signing key is invalid")
	ErrInvalidContract     = errors.New("contract address is invalid")
	ErrCallFailed          = errors.New("contract call failed")
	ErrTransactionFailed   = errors.New("transaction submission failed")
	ErrTransactionReverted = errors.New("transaction reverted")
	ErrNoQuoter            = errors.New("no quoter configured")
	ErrNoEscrow            = errors.New("no rewards escrow configured")
	ErrValueOverflow       = errors.New("on-chain value out of range")
)

const (
	callTimeout = 15 * time.Second
	txTimeout   = 3 * time.Minute

	// swap transactions expire if not mined within this window
	swapDeadline = 5 * time.Minute
)

const poolABIJSON = `[
	{"name":"supply","type":"function","stateMutability":"nonpayable","inputs":[{"name":"asset","type":"address"},{"name":"amount","type":"uint256"},{"name":"onBehalfOf","type":"address"},{"name":"referralCode","type":"uint16"}],"outputs":[]},
	{"name":"withdraw","type":"function","stateMutability":"nonpayable","inputs":[{"name":"asset","type":"address"},{"name":"amount","type":"uint256"},{"name":"to","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"getReserveData","type":"function","stateMutability":"view","inputs":[{"name":"asset","type":"address"}],"outputs":[{"name":"","type":"tuple","components":[
		{"name":"configuration","type":"tuple","components":[{"name":"data","type":"uint256"}]},
		{"name":"liquidityIndex","type":"uint128"},
		{"name":"currentLiquidityRate","type":"uint128"},
		{"name":"variableBorrowIndex","type":"uint128"},
		{"name":"currentVariableBorrowRate","type":"uint128"},
		{"name":"currentStableBorrowRate","type":"uint128"},
		{"name":"lastUpdateTimestamp","type":"uint40"},
		{"name":"id","type":"uint16"},
		{"name":"aTokenAddress","type":"address"},
		{"name":"stableDebtTokenAddress","type":"address"},
		{"name":"variableDebtTokenAddress","type":"address"},
		{"name":"interestRateStrategyAddress","type":"address"},
		{"name":"accruedToTreasury","type":"uint128"},
		{"name":"unbacked","type":"uint128"},
		{"name":"isolationModeTotalDebt","type":"uint128"}
	]}]}
]`

const dataProviderABIJSON = `[
	{"name":"getReserveData","type":"function","stateMutability":"view","inputs":[{"name":"asset","type":"address"}],"outputs":[
		{"name":"unbacked","type":"uint256"},
		{"name":"accruedToTreasuryScaled","type":"uint256"},
		{"name":"totalAToken","type":"uint256"},
		{"name":"totalStableDebt","type":"uint256"},
		{"name":"totalVariableDebt","type":"uint256"},
		{"name":"liquidityRate","type":"uint256"},
		{"name":"variableBorrowRate","type":"uint256"},
		{"name":"stableBorrowRate","type":"uint256"},
		{"name":"averageStableBorrowRate","type":"uint256"},
		{"name":"liquidityIndex","type":"uint256"},
		{"name":"variableBorrowIndex","type":"uint256"},
		{"name":"lastUpdateTimestamp","type":"uint40"}
	]},
	{"name":"getReserveConfigurationData","type":"function","stateMutability":"view","inputs":[{"name":"asset","type":"address"}],"outputs":[
		{"name":"decimals","type":"uint256"},
		{"name":"ltv","type":"uint256"},
		{"name":"liquidationThreshold","type":"uint256"},
		{"name":"liquidationBonus","type":"uint256"},
		{"name":"reserveFactor","type":"uint256"},
		{"name":"usageAsCollateralEnabled","type":"bool"},
		{"name":"borrowingEnabled","type":"bool"},
		{"name":"stableBorrowRateEnabled","type":"bool"},
		{"name":"isActive","type":"bool"},
		{"name":"isFrozen","type":"bool"}
	]}
]`

const rateStrategyABIJSON = `[
	{"name":"calculateInterestRates","type":"function","stateMutability":"view","inputs":[{"name":"params","type":"tuple","components":[
		{"name":"unbacked","type":"uint256"},
		{"name":"liquidityAdded","type":"uint256"},
		{"name":"liquidityTaken","type":"uint256"},
		{"name":"totalStableDebt","type":"uint256"},
		{"name":"totalVariableDebt","type":"uint256"},
		{"name":"averageStableBorrowRate","type":"uint256"},
		{"name":"reserveFactor","type":"uint256"},
		{"name":"reserve","type":"address"},
		{"name":"aToken","type":"address"}
	]}],"outputs":[{"name":"","type":"uint256"},{"name":"","type":"uint256"},{"name":"","type":"uint256"}]}
]`

const rewardsABIJSON = `[
	{"name":"claimAllRewardsToSelf","type":"function","stateMutability":"nonpayable","inputs":[{"name":"assets","type":"address[]"}],"outputs":[{"name":"rewardsList","type":"address[]"},{"name":"claimedAmounts","type":"uint256[]"}]}
]`

const escrowABIJSON = `[
	{"name":"claimAllAdditionalRewards","type":"function","stateMutability":"nonpayable","inputs":[],"outputs":[{"name":"tokens","type":"address[]"}]}
]`

const erc20ABIJSON = `[
	{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"totalSupply","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"name":"approve","type":"function","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

const routerV2ABIJSON = `[
	{"name":"swapExactTokensForTokens","type":"function","stateMutability":"nonpayable","inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"outputs":[{"name":"amounts","type":"uint256[]"}]},
	{"name":"getAmountsOut","type":"function","stateMutability":"view","inputs":[{"name":"amountIn","type":"uint256"},{"name":"path","type":"address[]"}],"outputs":[{"name":"amounts","type":"uint256[]"}]}
]`

const routerV3ABIJSON = `[
	{"name":"exactInputSingle","type":"function","stateMutability":"payable","inputs":[{"name":"params","type":"tuple","components":[
		{"name":"tokenIn","type":"address"},
		{"name":"tokenOut","type":"address"},
		{"name":"fee","type":"uint24"},
		{"name":"recipient","type":"address"},
		{"name":"deadline","type":"uint256"},
		{"name":"amountIn","type":"uint256"},
		{"name":"amountOutMinimum","type":"uint256"},
		{"name":"sqrtPriceLimitX96","type":"uint160"}
	]}],"outputs":[{"name":"amountOut","type":"uint256"}]},
	{"name":"exactInput","type":"function","stateMutability":"payable","inputs":[{"name":"params","type":"tuple","components":[
		{"name":"path","type":"bytes"},
		{"name":"recipient","type":"address"},
		{"name":"deadline","type":"uint256"},
		{"name":"amountIn","type":"uint256"},
		{"name":"amountOutMinimum","type":"uint256"}
	]}],"outputs":[{"name":"amountOut","type":"uint256"}]}
]`

const quoterABIJSON = `[
	{"name":"quoteExactInput","type":"function","stateMutability":"nonpayable","inputs":[{"name":"path","type":"bytes"},{"name":"amountIn","type":"uint256"}],"outputs":[{"name":"amountOut","type":"uint256"}]}
]`

// LiveConfig holds the connection parameters and contract addresses for a
// live client.
type LiveConfig struct {
	RPCEndpoint string
	PrivateKey  string // hex encoded, no 0x prefix required
	ChainID     int64

	Pool              common.Address
	DataProvider      common.Address
	RewardsController common.Address
	RewardsEscrow     common.Address // optional
	RouterV2          common.Address
	RouterV3          common.Address
	Quoter            common.Address // optional
}

// LiveClient implements every pool collaborator interface against live
// contracts over JSON-RPC.
type LiveClient struct {
	logger zerolog.Logger
	client *ethclient.Client
	self   common.Address
	signer *bind.TransactOpts

	// serializes transactions so the transactor never races on nonces
	txMu sync.Mutex

	pool         *bind.BoundContract
	dataProvider *bind.BoundContract
	rewards      *bind.BoundContract
	escrow       *bind.BoundContract // nil when unset
	routerV2     *bind.BoundContract
	routerV3     *bind.BoundContract
	quoter       *bind.BoundContract // nil when unset

	rateStrategyABI abi.ABI
	erc20ABI        abi.ABI

	mu          sync.Mutex
	rateModels  map[common.Address]*bind.BoundContract
	erc20Tokens map[common.Address]*bind.BoundContract
}

// NewLiveClient dials the RPC endpoint, derives the signing identity and
// binds every contract.
func NewLiveClient(cfg LiveConfig) (*LiveClient, error) {
	if cfg.RPCEndpoint == "" {
		return nil, ErrInvalidEndpoint
	}
	if cfg.Pool == (common.Address{}) || cfg.DataProvider == (common.Address{}) || cfg.RewardsController == (common.Address{}) {
		return nil, fmt.Errorf("%w: pool, data provider and rewards controller are required", ErrInvalidContract)
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	client, err := ethclient.DialContext(ctx, cfg.RPCEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RPC endpoint: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	signer, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(cfg.ChainID))
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}

	parse := func(name, raw string) abi.ABI {
		parsed, parseErr := abi.JSON(strings.NewReader(raw))
		if parseErr != nil && err == nil {
			err = fmt.Errorf("failed to parse %s ABI: %w", name, parseErr)
		}
		return parsed
	}

	poolABI := parse("pool", poolABIJSON)
	providerABI := parse("data provider", dataProviderABIJSON)
	rateABI := parse("rate strategy", rateStrategyABIJSON)
	rewardsABI := parse("rewards controller", rewardsABIJSON)
	escrowABI := parse("rewards escrow", escrowABIJSON)
	erc20ABI := parse("erc20", erc20ABIJSON)
	v2ABI := parse("router v2", routerV2ABIJSON)
	v3ABI := parse("router v3", routerV3ABIJSON)
	quoterABI := parse("quoter", quoterABIJSON)
	if err != nil {
		client.Close()
		return nil, err
	}

	c := &LiveClient{
		logger:          logger.GetForComponent("pool_client"),
		client:          client,
		self:            crypto.PubkeyToAddress(key.PublicKey),
		signer:          signer,
		pool:            bind.NewBoundContract(cfg.Pool, poolABI, client, client, client),
		dataProvider:    bind.NewBoundContract(cfg.DataProvider, providerABI, client, client, client),
		rewards:         bind.NewBoundContract(cfg.RewardsController, rewardsABI, client, client, client),
		routerV2:        bind.NewBoundContract(cfg.RouterV2, v2ABI, client, client, client),
		routerV3:        bind.NewBoundContract(cfg.RouterV3, v3ABI, client, client, client),
		rateStrategyABI: rateABI,
		erc20ABI:        erc20ABI,
		rateModels:      make(map[common.Address]*bind.BoundContract),
		erc20Tokens:     make(map[common.Address]*bind.BoundContract),
	}
	if cfg.RewardsEscrow != (common.Address{}) {
		c.escrow = bind.NewBoundContract(cfg.RewardsEscrow, escrowABI, client, client, client)
	}
	if cfg.Quoter != (common.Address{}) {
		c.quoter = bind.NewBoundContract(cfg.Quoter, quoterABI, client, client, client)
	}

	c.logger.Info().
		Str("self", c.self.Hex()).
		Str("pool", cfg.Pool.Hex()).
		Int64("chainID", cfg.ChainID).
		Msg("Live pool client connected")

	return c, nil
}

// Self returns the address derived from the signing key.
func (c *LiveClient) Self() common.Address { return c.self }

// Close releases the underlying RPC connection.
func (c *LiveClient) Close() {
	c.client.Close()
}

func (c *LiveClient) call(contract *bind.BoundContract, out *[]interface{}, method string, args ...interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	opts := &bind.CallOpts{Context: ctx, From: c.self}
	if err := contract.Call(opts, out, method, args...); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCallFailed, method, err)
	}
	return nil
}

func (c *LiveClient) transact(contract *bind.BoundContract, method string, args ...interface{}) error {
	c.txMu.Lock()
	defer c.txMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), txTimeout)
	defer cancel()

	opts := *c.signer
	opts.Context = ctx

	tx, err := contract.Transact(&opts, method, args...)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrTransactionFailed, method, err)
	}

	receipt, err := bind.WaitMined(ctx, c.client, tx)
	if err != nil {
		return fmt.Errorf("%w: %s: waiting for %s: %v", ErrTransactionFailed, method, tx.Hash().Hex(), err)
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: %s: tx %s", ErrTransactionReverted, method, tx.Hash().Hex())
	}

	c.logger.Debug().
		Str("method", method).
		Str("txHash", tx.Hash().Hex()).
		Uint64("gasUsed", receipt.GasUsed).
		Msg("Transaction mined")
	return nil
}

func toSdkInt(value *big.Int) (sdkmath.Int, error) {
	if value == nil {
		return sdkmath.Int{}, fmt.Errorf("%w: nil value", ErrValueOverflow)
	}
	return sdkmath.NewIntFromBigInt(value), nil
}

func swapDeadlineArg() *big.Int {
	return big.NewInt(time.Now().Add(swapDeadline).Unix())
}

// --- LendingPool ---

type poolReserveData struct {
	Configuration               struct{ Data *big.Int }
	LiquidityIndex              *big.Int
	CurrentLiquidityRate        *big.Int
	VariableBorrowIndex         *big.Int
	CurrentVariableBorrowRate   *big.Int
	CurrentStableBorrowRate     *big.Int
	LastUpdateTimestamp         *big.Int
	Id                          uint16
	ATokenAddress               common.Address
	StableDebtTokenAddress      common.Address
	VariableDebtTokenAddress    common.Address
	InterestRateStrategyAddress common.Address
	AccruedToTreasury           *big.Int
	Unbacked                    *big.Int
	IsolationModeTotalDebt      *big.Int
}

func (c *LiveClient) Supply(asset common.Address, amount sdkmath.Int, onBehalfOf common.Address, referralCode uint16) error {
	return c.transact(c.pool, "supply", asset, amount.BigInt(), onBehalfOf, referralCode)
}

func (c *LiveClient) Withdraw(asset common.Address, amount sdkmath.Int, to common.Address) (sdkmath.Int, error) {
	// preview recovers the return value the transaction itself cannot expose
	var out []interface{}
	if err := c.call(c.pool, &out, "withdraw", asset, amount.BigInt(), to); err != nil {
		return sdkmath.ZeroInt(), err
	}
	withdrawn, err := toSdkInt(*abi.ConvertType(out[0], new(*big.Int)).(**big.Int))
	if err != nil {
		return sdkmath.ZeroInt(), err
	}

	if err := c.transact(c.pool, "withdraw", asset, amount.BigInt(), to); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return withdrawn, nil
}

func (c *LiveClient) GetReserveData(asset common.Address) (types.ReserveData, error) {
	var out []interface{}
	if err := c.call(c.pool, &out, "getReserveData", asset); err != nil {
		return types.ReserveData{}, err
	}
	raw := *abi.ConvertType(out[0], new(poolReserveData)).(*poolReserveData)

	word, overflow := uint256.FromBig(raw.Configuration.Data)
	if overflow {
		return types.ReserveData{}, fmt.Errorf("%w: configuration word", ErrValueOverflow)
	}

	return types.ReserveData{
		ReceiptToken:      raw.ATokenAddress,
		RateStrategy:      raw.InterestRateStrategyAddress,
		ConfigurationWord: word,
	}, nil
}

// --- DataProvider ---

func (c *LiveClient) GetReserveMetrics(asset common.Address) (types.ReserveMetrics, error) {
	var out []interface{}
	if err := c.call(c.dataProvider, &out, "getReserveData", asset); err != nil {
		return types.ReserveMetrics{}, err
	}

	unbacked, err := toSdkInt(*abi.ConvertType(out[0], new(*big.Int)).(**big.Int))
	if err != nil {
		return types.ReserveMetrics{}, err
	}
	totalStableDebt, err := toSdkInt(*abi.ConvertType(out[3], new(*big.Int)).(**big.Int))
	if err != nil {
		return types.ReserveMetrics{}, err
	}
	totalVariableDebt, err := toSdkInt(*abi.ConvertType(out[4], new(*big.Int)).(**big.Int))
	if err != nil {
		return types.ReserveMetrics{}, err
	}
	avgStableRate, err := toSdkInt(*abi.ConvertType(out[8], new(*big.Int)).(**big.Int))
	if err != nil {
		return types.ReserveMetrics{}, err
	}

	return types.ReserveMetrics{
		Unbacked:                unbacked,
		TotalStableDebt:         totalStableDebt,
		TotalVariableDebt:       totalVariableDebt,
		AverageStableBorrowRate: avgStableRate,
	}, nil
}

func (c *LiveClient) GetReserveFactor(asset common.Address) (sdkmath.Int, error) {
	var out []interface{}
	if err := c.call(c.dataProvider, &out, "getReserveConfigurationData", asset); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return toSdkInt(*abi.ConvertType(out[4], new(*big.Int)).(**big.Int))
}

// --- RateModels ---

type rateStrategyParams struct {
	Unbacked                *big.Int
	LiquidityAdded          *big.Int
	LiquidityTaken          *big.Int
	TotalStableDebt         *big.Int
	TotalVariableDebt       *big.Int
	AverageStableBorrowRate *big.Int
	ReserveFactor           *big.Int
	Reserve                 common.Address
	AToken                  common.Address
}

func (c *LiveClient) rateModel(model common.Address) *bind.BoundContract {
	c.mu.Lock()
	defer c.mu.Unlock()
	if bound, ok := c.rateModels[model]; ok {
		return bound
	}
	bound := bind.NewBoundContract(model, c.rateStrategyABI, c.client, c.client, c.client)
	c.rateModels[model] = bound
	return bound
}

func (c *LiveClient) CalculateInterestRates(model common.Address, input types.RateInput) (types.RateOutput, error) {
	params := rateStrategyParams{
		Unbacked:                input.Unbacked.BigInt(),
		LiquidityAdded:          input.LiquidityAdded.BigInt(),
		LiquidityTaken:          input.LiquidityTaken.BigInt(),
		TotalStableDebt:         input.TotalStableDebt.BigInt(),
		TotalVariableDebt:       input.TotalVariableDebt.BigInt(),
		AverageStableBorrowRate: input.AverageStableBorrowRate.BigInt(),
		ReserveFactor:           input.ReserveFactor.BigInt(),
		Reserve:                 input.Asset,
		AToken:                  input.ReceiptToken,
	}

	var out []interface{}
	if err := c.call(c.rateModel(model), &out, "calculateInterestRates", params); err != nil {
		return types.RateOutput{}, err
	}

	liquidityRate, err := toSdkInt(*abi.ConvertType(out[0], new(*big.Int)).(**big.Int))
	if err != nil {
		return types.RateOutput{}, err
	}
	stableRate, err := toSdkInt(*abi.ConvertType(out[1], new(*big.Int)).(**big.Int))
	if err != nil {
		return types.RateOutput{}, err
	}
	variableRate, err := toSdkInt(*abi.ConvertType(out[2], new(*big.Int)).(**big.Int))
	if err != nil {
		return types.RateOutput{}, err
	}

	return types.RateOutput{
		LiquidityRate:      liquidityRate,
		StableBorrowRate:   stableRate,
		VariableBorrowRate: variableRate,
	}, nil
}

// --- RewardsController / RewardsEscrow ---

func (c *LiveClient) ClaimAllRewardsToSelf(assets []common.Address) ([]common.Address, []sdkmath.Int, error) {
	var out []interface{}
	if err := c.call(c.rewards, &out, "claimAllRewardsToSelf", assets); err != nil {
		return nil, nil, err
	}
	tokens := *abi.ConvertType(out[0], new([]common.Address)).(*[]common.Address)
	rawAmounts := *abi.ConvertType(out[1], new([]*big.Int)).(*[]*big.Int)

	amounts := make([]sdkmath.Int, 0, len(rawAmounts))
	for _, raw := range rawAmounts {
		amount, err := toSdkInt(raw)
		if err != nil {
			return nil, nil, err
		}
		amounts = append(amounts, amount)
	}

	if err := c.transact(c.rewards, "claimAllRewardsToSelf", assets); err != nil {
		return nil, nil, err
	}
	return tokens, amounts, nil
}

func (c *LiveClient) ClaimAllAdditionalRewards() ([]common.Address, error) {
	if c.escrow == nil {
		return nil, ErrNoEscrow
	}
	var out []interface{}
	if err := c.call(c.escrow, &out, "claimAllAdditionalRewards"); err != nil {
		return nil, err
	}
	tokens := *abi.ConvertType(out[0], new([]common.Address)).(*[]common.Address)

	if err := c.transact(c.escrow, "claimAllAdditionalRewards"); err != nil {
		return nil, err
	}
	return tokens, nil
}

// --- ERC20 ---

func (c *LiveClient) erc20(token common.Address) *bind.BoundContract {
	c.mu.Lock()
	defer c.mu.Unlock()
	if bound, ok := c.erc20Tokens[token]; ok {
		return bound
	}
	bound := bind.NewBoundContract(token, c.erc20ABI, c.client, c.client, c.client)
	c.erc20Tokens[token] = bound
	return bound
}

func (c *LiveClient) BalanceOf(token, owner common.Address) (sdkmath.Int, error) {
	var out []interface{}
	if err := c.call(c.erc20(token), &out, "balanceOf", owner); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return toSdkInt(*abi.ConvertType(out[0], new(*big.Int)).(**big.Int))
}

func (c *LiveClient) TotalSupply(token common.Address) (sdkmath.Int, error) {
	var out []interface{}
	if err := c.call(c.erc20(token), &out, "totalSupply"); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return toSdkInt(*abi.ConvertType(out[0], new(*big.Int)).(**big.Int))
}

func (c *LiveClient) Decimals(token common.Address) (uint8, error) {
	var out []interface{}
	if err := c.call(c.erc20(token), &out, "decimals"); err != nil {
		return 0, err
	}
	return *abi.ConvertType(out[0], new(uint8)).(*uint8), nil
}

func (c *LiveClient) Approve(token, spender common.Address, amount sdkmath.Int) error {
	return c.transact(c.erc20(token), "approve", spender, amount.BigInt())
}

// --- RouterV2 ---

func (c *LiveClient) SwapExactTokensForTokens(amountIn, amountOutMin sdkmath.Int, path []common.Address, to common.Address) (sdkmath.Int, error) {
	deadline := swapDeadlineArg()

	var out []interface{}
	if err := c.call(c.routerV2, &out, "swapExactTokensForTokens", amountIn.BigInt(), amountOutMin.BigInt(), path, to, deadline); err != nil {
		return sdkmath.ZeroInt(), err
	}
	amounts := *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int)
	if len(amounts) == 0 {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: empty amounts from router", ErrCallFailed)
	}
	received, err := toSdkInt(amounts[len(amounts)-1])
	if err != nil {
		return sdkmath.ZeroInt(), err
	}

	if err := c.transact(c.routerV2, "swapExactTokensForTokens", amountIn.BigInt(), amountOutMin.BigInt(), path, to, deadline); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return received, nil
}

func (c *LiveClient) GetAmountsOut(amountIn sdkmath.Int, path []common.Address) ([]sdkmath.Int, error) {
	var out []interface{}
	if err := c.call(c.routerV2, &out, "getAmountsOut", amountIn.BigInt(), path); err != nil {
		return nil, err
	}
	rawAmounts := *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int)

	amounts := make([]sdkmath.Int, 0, len(rawAmounts))
	for _, raw := range rawAmounts {
		amount, err := toSdkInt(raw)
		if err != nil {
			return nil, err
		}
		amounts = append(amounts, amount)
	}
	return amounts, nil
}

// --- RouterV3 ---

type exactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Fee               *big.Int
	Recipient         common.Address
	Deadline          *big.Int
	AmountIn          *big.Int
	AmountOutMinimum  *big.Int
	SqrtPriceLimitX96 *big.Int
}

type exactInputParams struct {
	Path             []byte
	Recipient        common.Address
	Deadline         *big.Int
	AmountIn         *big.Int
	AmountOutMinimum *big.Int
}

func (c *LiveClient) ExactInputSingle(params types.SingleHopSwap) (sdkmath.Int, error) {
	args := exactInputSingleParams{
		TokenIn:           params.TokenIn,
		TokenOut:          params.TokenOut,
		Fee:               new(big.Int).SetUint64(uint64(params.Fee)),
		Recipient:         params.Recipient,
		Deadline:          swapDeadlineArg(),
		AmountIn:          params.AmountIn.BigInt(),
		AmountOutMinimum:  params.AmountOutMinimum.BigInt(),
		SqrtPriceLimitX96: big.NewInt(0),
	}

	var out []interface{}
	if err := c.call(c.routerV3, &out, "exactInputSingle", args); err != nil {
		return sdkmath.ZeroInt(), err
	}
	received, err := toSdkInt(*abi.ConvertType(out[0], new(*big.Int)).(**big.Int))
	if err != nil {
		return sdkmath.ZeroInt(), err
	}

	if err := c.transact(c.routerV3, "exactInputSingle", args); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return received, nil
}

func (c *LiveClient) ExactInput(params types.MultiHopSwap) (sdkmath.Int, error) {
	args := exactInputParams{
		Path:             params.Path,
		Recipient:        params.Recipient,
		Deadline:         swapDeadlineArg(),
		AmountIn:         params.AmountIn.BigInt(),
		AmountOutMinimum: params.AmountOutMinimum.BigInt(),
	}

	var out []interface{}
	if err := c.call(c.routerV3, &out, "exactInput", args); err != nil {
		return sdkmath.ZeroInt(), err
	}
	received, err := toSdkInt(*abi.ConvertType(out[0], new(*big.Int)).(**big.Int))
	if err != nil {
		return sdkmath.ZeroInt(), err
	}

	if err := c.transact(c.routerV3, "exactInput", args); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return received, nil
}

func (c *LiveClient) QuoteExactInput(path []byte, amountIn sdkmath.Int) (sdkmath.Int, error) {
	if c.quoter == nil {
		return sdkmath.ZeroInt(), ErrNoQuoter
	}
	// the quoter mutates state internally, but eth_call keeps it free
	var out []interface{}
	if err := c.call(c.quoter, &out, "quoteExactInput", path, amountIn.BigInt()); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return toSdkInt(*abi.ConvertType(out[0], new(*big.Int)).(**big.Int))
}
