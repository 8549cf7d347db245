/*

This file contains the persisted record of a harvest cycle. Amounts are
stored as base-unit decimal strings (they can exceed int64) alongside
float token figures for dashboards.

*/

package types

import "time"

// HarvestReport captures one harvestAndReport cycle end to end.
type HarvestReport struct {
	ReportID    int64     `json:"report_id,omitempty"` // Auto-incremented by DB
	CycleNumber int       `json:"cycle_number"`
	CycleID     string    `json:"cycle_id"` // UUID for tracing logs across the cycle
	Timestamp   time.Time `json:"timestamp"`

	// Accounting results, base units of the underlying asset.
	TotalAssets  string `json:"total_assets"`
	PoolPosition string `json:"pool_position"`
	IdleBalance  string `json:"idle_balance"`

	// Same figures in whole tokens, for the web API.
	TotalAssetsTokens  float64 `json:"total_assets_tokens"`
	PoolPositionTokens float64 `json:"pool_position_tokens"`
	IdleBalanceTokens  float64 `json:"idle_balance_tokens"`

	RewardTokensClaimed int    `json:"reward_tokens_claimed"`
	RewardTokensSold    int    `json:"reward_tokens_sold"`
	Redeposited         bool   `json:"redeposited"`
	Success             bool   `json:"success"`
	Message             string `json:"message,omitempty"`
}
