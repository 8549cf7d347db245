package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
)

// AppConfig holds all application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// Mode selects how pool calls are executed: "live" sends real
	// transactions over JSON-RPC, anything else runs the in-memory client.
	Mode string

	// StrategyAddress is the on-chain address the strategy acts as.
	StrategyAddress common.Address
	// AssetAddress is the underlying asset being lent.
	AssetAddress common.Address
	// PoolAddress is the lending pool proxy.
	PoolAddress common.Address
	// DataProviderAddress is the protocol data provider companion contract.
	DataProviderAddress common.Address
	// RewardsControllerAddress is the native incentives controller.
	RewardsControllerAddress common.Address
	// RouterV2Address and RouterV3Address are the swap router endpoints.
	RouterV2Address common.Address
	RouterV3Address common.Address
	// BaseTokenAddress is the intermediate token all multi-hop swaps route through.
	BaseTokenAddress common.Address

	// RPCEndpoint is the JSON-RPC URL for live mode.
	RPCEndpoint string
	// PrivateKey is the hex-encoded signing key for live mode.
	PrivateKey string
	// ChainID is the EVM chain ID of the target network.
	ChainID int64

	// ReferralCode is forwarded on every pool supply call.
	ReferralCode uint16
	// ClaimRewards toggles native incentive claiming during harvest.
	ClaimRewards bool
	// HarvestIntervalMinutes is the spacing between harvest cycles.
	HarvestIntervalMinutes int
	// MinAmountToSell is the global dust floor for reward sales, base units.
	MinAmountToSell string

	// WebPort is the port the HTTP API listens on.
	WebPort string
	// LogLevel sets the zerolog level ("debug", "info", ...).
	LogLevel string
)

// LoadConfig loads configuration from environment variables and sets the global config vars.
// Variables only needed in live mode are validated only when Mode is "live".
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	Mode = getEnvWithDefault("STRATEGY_MODE", "paper")
	LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	WebPort = getEnvWithDefault("WEB_PORT", "8080")

	StrategyAddress, err = getEnvAsAddress("STRATEGY_ADDRESS")
	if err != nil {
		return err
	}

	AssetAddress, err = getEnvAsAddress("ASSET_ADDRESS")
	if err != nil {
		return err
	}

	BaseTokenAddress, err = getEnvAsAddress("BASE_TOKEN_ADDRESS")
	if err != nil {
		return err
	}

	if Mode == "live" {
		PoolAddress, err = getEnvAsAddress("POOL_ADDRESS")
		if err != nil {
			return err
		}
		DataProviderAddress, err = getEnvAsAddress("DATA_PROVIDER_ADDRESS")
		if err != nil {
			return err
		}
		RewardsControllerAddress, err = getEnvAsAddress("REWARDS_CONTROLLER_ADDRESS")
		if err != nil {
			return err
		}
		RouterV2Address, err = getEnvAsAddress("ROUTER_V2_ADDRESS")
		if err != nil {
			return err
		}
		RouterV3Address, err = getEnvAsAddress("ROUTER_V3_ADDRESS")
		if err != nil {
			return err
		}
		RPCEndpoint, err = getEnv("RPC_ENDPOINT")
		if err != nil {
			return err
		}
		PrivateKey, err = getEnv("PRIVATE_KEY")
		if err != nil {
			return err
		}
		ChainID, err = getEnvAsInt64("CHAIN_ID")
		if err != nil {
			return err
		}
	}

	referral, err := getEnvAsInt64WithDefault("REFERRAL_CODE", 0)
	if err != nil {
		return err
	}
	if referral < 0 || referral > 65535 {
		return errors.New("environment variable REFERRAL_CODE must fit in uint16")
	}
	ReferralCode = uint16(referral)

	ClaimRewards = getEnvWithDefault("CLAIM_REWARDS", "true") == "true"
	MinAmountToSell = getEnvWithDefault("MIN_AMOUNT_TO_SELL", "0")

	interval, err := getEnvAsInt64WithDefault("HARVEST_INTERVAL_MINUTES", 60)
	if err != nil {
		return err
	}
	if interval <= 0 {
		return errors.New("environment variable HARVEST_INTERVAL_MINUTES must be positive")
	}
	HarvestIntervalMinutes = int(interval)

	log.Debug().
		Str("Mode", Mode).
		Str("Asset", AssetAddress.Hex()).
		Int("HarvestIntervalMinutes", HarvestIntervalMinutes).
		Msg("Configuration loaded successfully.")

	return nil
}

// DBConfigFromEnv reads the database connection parameters. Returns ok=false
// when DB_HOST is unset, which disables persistence entirely.
func DBConfigFromEnv() (host string, port int, user, password, dbname, sslmode string, ok bool) {
	host, exists := os.LookupEnv("DB_HOST")
	if !exists || host == "" {
		return "", 0, "", "", "", "", false
	}

	port = 5432
	if portStr, exists := os.LookupEnv("DB_PORT"); exists {
		if parsed, err := strconv.Atoi(portStr); err == nil {
			port = parsed
		}
	}

	user = getEnvWithDefault("DB_USER", "postgres")
	password = getEnvWithDefault("DB_PASSWORD", "")
	dbname = getEnvWithDefault("DB_NAME", "lender_strategy")
	sslmode = getEnvWithDefault("DB_SSLMODE", "disable")
	return host, port, user, password, dbname, sslmode, true
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvWithDefault retrieves a string environment variable with a fallback.
func getEnvWithDefault(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

// getEnvAsAddress retrieves an environment variable as a checksummed EVM
// address. Returns error if not set or not a valid hex address.
func getEnvAsAddress(key string) (common.Address, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return common.Address{}, err
	}
	if !common.IsHexAddress(valueStr) {
		return common.Address{}, errors.New("environment variable " + key + " must be a valid hex address, got: " + valueStr)
	}
	return common.HexToAddress(valueStr), nil
}

// getEnvAsInt64 retrieves an environment variable as an int64. Returns error if not set or invalid.
func getEnvAsInt64(key string) (int64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid int64, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsInt64WithDefault is getEnvAsInt64 with a fallback for unset keys.
func getEnvAsInt64WithDefault(key string, fallback int64) (int64, error) {
	if _, exists := os.LookupEnv(key); !exists {
		return fallback, nil
	}
	return getEnvAsInt64(key)
}
