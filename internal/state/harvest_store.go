// ./internal/state/harvest_store.go
package state

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/pitfidev/lender-strategy/internal/types"
)

// SaveHarvestReport saves a completed harvest cycle report to the database.
func SaveHarvestReport(report types.HarvestReport) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	query := `
		INSERT INTO harvest_reports (
			cycle_number, cycle_id, report_timestamp,
			total_assets, pool_position, idle_balance,
			total_assets_tokens, pool_position_tokens, idle_balance_tokens,
			reward_tokens_claimed, reward_tokens_sold, redeposited,
			success, message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING report_id;
	`

	var reportID int64
	err := DB.QueryRow(
		query,
		report.CycleNumber, report.CycleID, report.Timestamp,
		report.TotalAssets, report.PoolPosition, report.IdleBalance,
		report.TotalAssetsTokens, report.PoolPositionTokens, report.IdleBalanceTokens,
		report.RewardTokensClaimed, report.RewardTokensSold, report.Redeposited,
		report.Success, report.Message,
	).Scan(&reportID)

	if err != nil {
		return 0, fmt.Errorf("failed to save harvest report: %w", err)
	}

	log.Info().
		Int64("report_id", reportID).
		Int("cycle_number", report.CycleNumber).
		Float64("total_assets_tokens", report.TotalAssetsTokens).
		Msg("Harvest report saved to database")

	return reportID, nil
}

// GetRecentReports retrieves the most recent harvest reports, newest first.
func GetRecentReports(limit int) ([]types.HarvestReport, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT report_id, cycle_number, cycle_id, report_timestamp,
		       total_assets, pool_position, idle_balance,
		       total_assets_tokens, pool_position_tokens, idle_balance_tokens,
		       reward_tokens_claimed, reward_tokens_sold, redeposited,
		       success, COALESCE(message, '')
		FROM harvest_reports
		ORDER BY report_timestamp DESC
		LIMIT $1;
	`

	rows, err := DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query harvest reports: %w", err)
	}
	defer rows.Close()

	var reports []types.HarvestReport
	for rows.Next() {
		var r types.HarvestReport
		if err := rows.Scan(
			&r.ReportID, &r.CycleNumber, &r.CycleID, &r.Timestamp,
			&r.TotalAssets, &r.PoolPosition, &r.IdleBalance,
			&r.TotalAssetsTokens, &r.PoolPositionTokens, &r.IdleBalanceTokens,
			&r.RewardTokensClaimed, &r.RewardTokensSold, &r.Redeposited,
			&r.Success, &r.Message,
		); err != nil {
			return nil, fmt.Errorf("failed to scan harvest report row: %w", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating harvest report rows: %w", err)
	}

	return reports, nil
}

// GetLatestReport retrieves the single most recent harvest report.
func GetLatestReport() (*types.HarvestReport, error) {
	reports, err := GetRecentReports(1)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, sql.ErrNoRows
	}
	return &reports[0], nil
}

// GetCurrentHarvestCycle retrieves the current cycle number from the database.
func GetCurrentHarvestCycle() (int, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	query := `SELECT current_cycle FROM harvest_cycle_counter WHERE id = 1;`

	var currentCycle int
	row := DB.QueryRow(query)
	err := row.Scan(&currentCycle)

	if err != nil {
		if err == sql.ErrNoRows {
			log.Warn().Msg("No cycle counter row found, initializing to 0")
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get current cycle number: %w", err)
	}

	return currentCycle, nil
}

// IncrementHarvestCycle increments the cycle counter and returns the new value.
func IncrementHarvestCycle() (int, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	updateQuery := `
		UPDATE harvest_cycle_counter
		SET current_cycle = current_cycle + 1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
		RETURNING current_cycle;`

	var newCycle int
	row := DB.QueryRow(updateQuery)
	err := row.Scan(&newCycle)

	if err != nil {
		return 0, fmt.Errorf("failed to increment cycle number: %w", err)
	}

	log.Info().Int("newCycle", newCycle).Msg("Incremented harvest cycle counter")
	return newCycle, nil
}
