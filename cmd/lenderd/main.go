package main

import (
	"context"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/pitfidev/lender-strategy/internal/config"
	"github.com/pitfidev/lender-strategy/internal/logger"
	"github.com/pitfidev/lender-strategy/internal/pool"
	"github.com/pitfidev/lender-strategy/internal/rates"
	"github.com/pitfidev/lender-strategy/internal/state"
	"github.com/pitfidev/lender-strategy/internal/strategy"
	"github.com/pitfidev/lender-strategy/internal/swap"
	"github.com/pitfidev/lender-strategy/internal/web"
)

// main is the entry point for the lender strategy daemon.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(config.LogLevel)
	log.Info().Str("mode", config.Mode).Msg("Lender strategy starting...")

	// Database is optional: without DB_HOST the daemon runs with in-memory
	// cycle counting and no report persistence.
	if host, port, user, password, dbname, sslmode, ok := config.DBConfigFromEnv(); ok {
		dbCfg := state.DBConfig{
			Host: host, Port: port,
			User: user, Password: password,
			DBName: dbname, SSLMode: sslmode,
		}
		if err := state.InitDB(dbCfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database")
		}
		defer state.CloseDB()
		if err := state.EnsureSchema(); err != nil {
			log.Fatal().Err(err).Msg("Failed to ensure database schema")
		}
	} else {
		log.Warn().Msg("DB_HOST not set, running without report persistence")
	}

	// --- 2. Pool Client Initialization (with Safety Switch) ---
	var (
		lendingPool pool.LendingPool
		provider    pool.DataProvider
		models      pool.RateModels
		rewards     pool.RewardsController
		escrow      pool.RewardsEscrow
		erc20       pool.ERC20
		routerV2    pool.RouterV2
		routerV3    pool.RouterV3
		self        common.Address
	)

	if config.Mode == "live" {
		log.Warn().Msg("Initializing in LIVE mode. Real transactions will be broadcast.")

		liveClient, err := pool.NewLiveClient(pool.LiveConfig{
			RPCEndpoint:       config.RPCEndpoint,
			PrivateKey:        config.PrivateKey,
			ChainID:           config.ChainID,
			Pool:              config.PoolAddress,
			DataProvider:      config.DataProviderAddress,
			RewardsController: config.RewardsControllerAddress,
			RouterV2:          config.RouterV2Address,
			RouterV3:          config.RouterV3Address,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize live pool client")
		}
		defer liveClient.Close()

		lendingPool, provider, models = liveClient, liveClient, liveClient
		rewards, erc20 = liveClient, liveClient
		routerV2, routerV3 = liveClient, liveClient
		self = liveClient.Self()
	} else {
		log.Info().Msg("Initializing in PAPER mode with an in-memory pool simulation.")

		self = config.StrategyAddress
		memClient, err := pool.NewMemoryClient(pool.MemoryConfig{
			Asset:         config.AssetAddress,
			ReceiptToken:  common.HexToAddress("0x00000000000000000000000000000000000000a1"),
			RateStrategy:  common.HexToAddress("0x00000000000000000000000000000000000000b1"),
			Strategy:      self,
			AssetDecimals: 6,
			// active reserve, no caps
			ConfigurationWord: uint256.NewInt(0),
			ReserveFactor:     sdkmath.NewInt(1000),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize in-memory pool client")
		}
		memClient.SetRateModel(common.HexToAddress("0x00000000000000000000000000000000000000b1"), pool.DefaultKinkRateModel())

		lendingPool, provider, models = memClient, memClient, memClient
		rewards, erc20 = memClient, memClient
		routerV2, routerV3 = memClient, memClient
	}

	// --- 3. Dependency Injection ---
	minToSell, ok := sdkmath.NewIntFromString(config.MinAmountToSell)
	if !ok {
		log.Fatal().Str("value", config.MinAmountToSell).Msg("MIN_AMOUNT_TO_SELL is not a valid integer")
	}

	swapper, err := swap.NewAdapter(swap.Config{
		ERC20:           erc20,
		RouterV2:        routerV2,
		RouterV3:        routerV3,
		RouterV2Addr:    config.RouterV2Address,
		RouterV3Addr:    config.RouterV3Address,
		Self:            self,
		Base:            config.BaseTokenAddress,
		MinAmountToSell: minToSell,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create swap adapter")
	}

	strat, err := strategy.New(strategy.Config{
		Pool:         lendingPool,
		ERC20:        erc20,
		Rewards:      rewards,
		Escrow:       escrow,
		Swapper:      swapper,
		Self:         self,
		Asset:        config.AssetAddress,
		ReferralCode: config.ReferralCode,
		ClaimRewards: config.ClaimRewards,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create strategy instance")
	}

	projector, err := rates.NewProjector(rates.Config{
		Pool:     lendingPool,
		Provider: provider,
		Models:   models,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create rate projector")
	}

	// --- 4. Start Web Server ---
	webServer := web.NewWebServer(config.WebPort, strat, projector)
	go func() {
		log.Info().Str("port", config.WebPort).Msg("Starting web API")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed to start")
		}
	}()

	// --- 5. Start Harvest Loop ---
	interval := time.Duration(config.HarvestIntervalMinutes) * time.Minute
	log.Info().Str("interval", interval.String()).Msg("Starting harvest main loop")

	ctx := context.Background()
	strat.RunLoop(ctx, interval)
}
