/*

This file drives the periodic harvest loop. Each cycle gets a UUID so the
logs of a single harvest can be traced end to end, and every cycle leaves
a report row in the database whether it succeeded or not.

*/

package strategy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pitfidev/lender-strategy/internal/state"
	"github.com/pitfidev/lender-strategy/internal/types"
	"github.com/pitfidev/lender-strategy/internal/utils"
)

// RunLoop starts the main harvest loop with the specified interval.
func (s *Strategy) RunLoop(ctx context.Context, interval time.Duration) {
	s.logger.Info().
		Dur("interval", interval).
		Msg("Starting harvest main loop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run first cycle immediately
	s.cycleCount++
	s.logger.Info().Int("cycle", s.cycleCount).Msg("Initiating harvest cycle")
	s.RunCycle(ctx)
	s.logger.Info().Int("cycle", s.cycleCount).Msg("Harvest cycle completed")

	// Continue with ticker
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Harvest loop stopped due to context cancellation")
			return
		case <-ticker.C:
			s.cycleCount++
			s.logger.Info().Int("cycle", s.cycleCount).Msg("Initiating harvest cycle")
			s.RunCycle(ctx)
			s.logger.Info().Int("cycle", s.cycleCount).Msg("Harvest cycle completed")
		}
	}
}

// RunCycle executes one complete harvest cycle and persists its report.
func (s *Strategy) RunCycle(ctx context.Context) {
	cycleStartTime := time.Now()

	// Generate unique cycle ID for tracing logs across the entire cycle
	cycleID := uuid.New().String()
	cycleLogger := s.logger.With().Str("cycle_id", cycleID).Logger()

	cycleLogger.Info().Msg("--- Starting Harvest Cycle ---")

	// The persistent counter survives restarts; fall back to the in-memory
	// counter when no database is configured (paper runs)
	cycleNumber := s.cycleCount
	if state.DB != nil {
		persisted, err := state.IncrementHarvestCycle()
		if err != nil {
			cycleLogger.Warn().Err(err).Msg("Persistent cycle counter unavailable, using in-memory count")
		} else {
			cycleNumber = persisted
		}
	}

	report := types.HarvestReport{
		CycleNumber: cycleNumber,
		CycleID:     cycleID,
		Timestamp:   cycleStartTime,
	}

	outcome, err := s.Harvest()
	if err != nil {
		cycleLogger.Error().Err(err).Msg("Harvest cycle failed")
		report.Success = false
		report.Message = err.Error()
		report.TotalAssets = "0"
		report.PoolPosition = "0"
		report.IdleBalance = "0"
		s.persistReport(cycleLogger, report)
		return
	}

	report.Success = true
	report.TotalAssets = outcome.TotalAssets.String()
	report.PoolPosition = outcome.PoolPosition.String()
	report.IdleBalance = outcome.IdleBalance.String()
	report.RewardTokensClaimed = outcome.RewardTokensClaimed
	report.RewardTokensSold = outcome.RewardTokensSold
	report.Redeposited = outcome.Redeposited

	if tokens, convErr := utils.AmountToFloat64(outcome.TotalAssets, s.decimals); convErr == nil {
		report.TotalAssetsTokens = tokens
	}
	if tokens, convErr := utils.AmountToFloat64(outcome.PoolPosition, s.decimals); convErr == nil {
		report.PoolPositionTokens = tokens
	}
	if tokens, convErr := utils.AmountToFloat64(outcome.IdleBalance, s.decimals); convErr == nil {
		report.IdleBalanceTokens = tokens
	}

	cycleLogger.Info().
		Str("totalAssets", report.TotalAssets).
		Str("poolPosition", report.PoolPosition).
		Str("idleBalance", report.IdleBalance).
		Int("rewardTokensClaimed", report.RewardTokensClaimed).
		Int("rewardTokensSold", report.RewardTokensSold).
		Bool("redeposited", report.Redeposited).
		Dur("cycleDuration", time.Since(cycleStartTime)).
		Msg("--- Harvest Cycle Finished ---")

	s.persistReport(cycleLogger, report)
}

func (s *Strategy) persistReport(cycleLogger zerolog.Logger, report types.HarvestReport) {
	if state.DB == nil {
		cycleLogger.Debug().Msg("No database configured, skipping report persistence")
		return
	}
	reportID, err := state.SaveHarvestReport(report)
	if err != nil {
		cycleLogger.Error().Err(err).Msg("Failed to persist harvest report")
		return
	}
	cycleLogger.Info().Int64("reportID", reportID).Msg("Harvest report persisted")
}
