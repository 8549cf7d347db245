package pool

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/pitfidev/lender-strategy/internal/types"
	"github.com/pitfidev/lender-strategy/internal/utils"
)

// bps denominator for the reserve factor
const percentageFactor = 10_000

// KinkRateModel is a two-slope interest-rate curve: gentle below the
// optimal utilization point, steep above it. All parameters are ray.
type KinkRateModel struct {
	OptimalUtilization sdkmath.Int
	BaseVariableRate   sdkmath.Int
	Slope1             sdkmath.Int
	Slope2             sdkmath.Int
}

// DefaultKinkRateModel returns a standard curve: 0% base, 4% first slope,
// 75% second slope, 80% optimal utilization.
func DefaultKinkRateModel() *KinkRateModel {
	return &KinkRateModel{
		OptimalUtilization: rayPercent(80),
		BaseVariableRate:   sdkmath.ZeroInt(),
		Slope1:             rayPercent(4),
		Slope2:             rayPercent(75),
	}
}

// Calculate evaluates the curve for the given reserve state plus the
// hypothetical liquidity change already folded into availableLiquidity.
// Returns rates in ray.
func (k *KinkRateModel) Calculate(input types.RateInput, availableLiquidity sdkmath.Int) (types.RateOutput, error) {
	totalDebt := input.TotalStableDebt.Add(input.TotalVariableDebt)

	variableRate := k.BaseVariableRate
	borrowUsage := sdkmath.ZeroInt()
	supplyUsage := sdkmath.ZeroInt()

	if !totalDebt.IsZero() {
		var err error
		borrowUsage, err = utils.RayDiv(totalDebt, availableLiquidity.Add(totalDebt))
		if err != nil {
			return types.RateOutput{}, fmt.Errorf("borrow usage: %w", err)
		}
		supplyUsage, err = utils.RayDiv(totalDebt, availableLiquidity.Add(totalDebt).Add(input.Unbacked))
		if err != nil {
			return types.RateOutput{}, fmt.Errorf("supply usage: %w", err)
		}
	}

	if borrowUsage.GT(k.OptimalUtilization) {
		excess, err := utils.RayDiv(
			borrowUsage.Sub(k.OptimalUtilization),
			utils.Ray().Sub(k.OptimalUtilization),
		)
		if err != nil {
			return types.RateOutput{}, fmt.Errorf("excess usage: %w", err)
		}
		variableRate = variableRate.Add(k.Slope1).Add(utils.RayMul(k.Slope2, excess))
	} else if !borrowUsage.IsZero() {
		scaled, err := utils.RayDiv(borrowUsage, k.OptimalUtilization)
		if err != nil {
			return types.RateOutput{}, fmt.Errorf("scaled usage: %w", err)
		}
		variableRate = variableRate.Add(utils.RayMul(k.Slope1, scaled))
	}

	// overall borrow rate is the debt-weighted average of the variable
	// rate and the average stable rate
	overallBorrowRate := sdkmath.ZeroInt()
	if !totalDebt.IsZero() {
		weighted := input.TotalVariableDebt.Mul(variableRate).
			Add(input.TotalStableDebt.Mul(input.AverageStableBorrowRate))
		overallBorrowRate = weighted.Quo(totalDebt)
	}

	liquidityRate := utils.RayMul(overallBorrowRate, supplyUsage).
		MulRaw(percentageFactor - input.ReserveFactor.Int64()).
		QuoRaw(percentageFactor)

	return types.RateOutput{
		LiquidityRate:      liquidityRate,
		StableBorrowRate:   input.AverageStableBorrowRate,
		VariableBorrowRate: variableRate,
	}, nil
}

func rayPercent(pct int64) sdkmath.Int {
	return utils.Ray().MulRaw(pct).QuoRaw(100)
}
