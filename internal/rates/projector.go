/*

This package projects the reserve's supply APR after a hypothetical change
to variable debt. It only reads reserve state; it shares nothing with the
accounting path and is safe to call from off-path consumers such as an APR
oracle.

*/

package rates

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/pitfidev/lender-strategy/internal/logger"
	"github.com/pitfidev/lender-strategy/internal/pool"
	"github.com/pitfidev/lender-strategy/internal/types"
	"github.com/pitfidev/lender-strategy/internal/utils"
)

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidPool     = errors.New("lending pool is invalid")
	ErrInvalidProvider = errors.New("data provider is invalid")
	ErrInvalidModels   = errors.New("rate models are invalid")
	ErrDeltaNil        = errors.New("debt delta is nil")
)

// Projector recomputes the reserve's supply rate under a hypothetical
// liquidity change via the pool's configured rate-curve model.
type Projector struct {
	logger zerolog.Logger

	pool     pool.LendingPool
	provider pool.DataProvider
	models   pool.RateModels
}

// Config holds the dependencies for creating a Projector.
type Config struct {
	Pool     pool.LendingPool
	Provider pool.DataProvider
	Models   pool.RateModels
}

// NewProjector creates a rate projector.
func NewProjector(cfg Config) (*Projector, error) {
	if cfg.Pool == nil {
		return nil, ErrInvalidPool
	}
	if cfg.Provider == nil {
		return nil, ErrInvalidProvider
	}
	if cfg.Models == nil {
		return nil, ErrInvalidModels
	}
	return &Projector{
		logger:   logger.GetForComponent("rate_projector"),
		pool:     cfg.Pool,
		provider: cfg.Provider,
		models:   cfg.Models,
	}, nil
}

// AprAfterDebtChange returns the projected supply APR in wad (1e18) after
// applying the signed debt delta. A positive delta adds liquidity, a
// negative delta takes it; zero queries the current APR. Read-only.
//
// The rate model returns ray (1e27); the rescale to wad divides by 1e9
// exactly, truncating sub-1e9 precision.
func (p *Projector) AprAfterDebtChange(asset common.Address, delta sdkmath.Int) (sdkmath.Int, error) {
	if delta.IsNil() {
		return sdkmath.ZeroInt(), ErrDeltaNil
	}

	data, err := p.pool.GetReserveData(asset)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to get reserve data: %w", err)
	}
	metrics, err := p.provider.GetReserveMetrics(asset)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to get reserve metrics: %w", err)
	}
	reserveFactor, err := p.provider.GetReserveFactor(asset)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to get reserve factor: %w", err)
	}

	// the curve takes two unsigned magnitudes, not one signed quantity
	liquidityAdded := sdkmath.ZeroInt()
	liquidityTaken := sdkmath.ZeroInt()
	if delta.IsPositive() {
		liquidityAdded = delta
	} else if delta.IsNegative() {
		liquidityTaken = delta.Neg()
	}

	out, err := p.models.CalculateInterestRates(data.RateStrategy, types.RateInput{
		Asset:                   asset,
		Unbacked:                metrics.Unbacked,
		LiquidityAdded:          liquidityAdded,
		LiquidityTaken:          liquidityTaken,
		TotalStableDebt:         metrics.TotalStableDebt,
		TotalVariableDebt:       metrics.TotalVariableDebt,
		AverageStableBorrowRate: metrics.AverageStableBorrowRate,
		ReserveFactor:           reserveFactor,
		ReceiptToken:            data.ReceiptToken,
	})
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("rate model call failed: %w", err)
	}

	apr, err := utils.RayToWad(out.LiquidityRate)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to rescale liquidity rate: %w", err)
	}

	p.logger.Debug().
		Str("asset", asset.Hex()).
		Str("delta", delta.String()).
		Str("aprWad", apr.String()).
		Msg("Projected supply APR after debt change")

	return apr, nil
}
