// ./internal/state/params_store.go
package state

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/elys-network/vbt/internal/types"
)

// SaveRebalanceParams stores a new versioned parameter set and, when
// activate is true, atomically makes it the single active version.
func SaveRebalanceParams(params types.RebalanceParams, notes string, activate bool) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	tx, err := DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if activate {
		if _, err := tx.Exec(`UPDATE rebalance_params SET is_active = FALSE WHERE is_active`); err != nil {
			return 0, fmt.Errorf("failed to deactivate previous params: %w", err)
		}
	}

	query := `
		INSERT INTO rebalance_params (
			is_active, notes,
			min_gas_multiple, target_rebalance_hours, band_width_vol_multiple,
			min_band_width, max_band_width, drift_threshold, trend_threshold,
			max_skew, rewards_claim_usd, swap_spread_bps,
			swap_impact_bps_per_1pct, mev_bps, avg_pool_range_width
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING params_id;
	`

	var paramsID int64
	err = tx.QueryRow(
		query,
		activate, notes,
		params.MinGasMultiple, params.TargetRebalanceHours, params.BandWidthVolMultiple,
		params.MinBandWidth, params.MaxBandWidth, params.DriftThreshold, params.TrendThreshold,
		params.MaxSkew, params.RewardsClaimUSD, params.SwapSpreadBps,
		params.SwapImpactBpsPer1Pct, params.MevBps, params.AvgPoolRangeWidth,
	).Scan(&paramsID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert rebalance params: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit rebalance params: %w", err)
	}

	log.Info().Int64("params_id", paramsID).Bool("active", activate).Msg("Saved rebalance parameters.")
	return paramsID, nil
}

// LoadActiveRebalanceParams returns the active parameter set and its ID.
// sql.ErrNoRows means no version has been activated yet.
func LoadActiveRebalanceParams() (types.RebalanceParams, int64, error) {
	var params types.RebalanceParams
	if DB == nil {
		return params, 0, fmt.Errorf("database not initialized")
	}

	query := `
		SELECT params_id,
		       min_gas_multiple, target_rebalance_hours, band_width_vol_multiple,
		       min_band_width, max_band_width, drift_threshold, trend_threshold,
		       max_skew, rewards_claim_usd, swap_spread_bps,
		       swap_impact_bps_per_1pct, mev_bps, avg_pool_range_width
		FROM rebalance_params
		WHERE is_active
		ORDER BY params_id DESC
		LIMIT 1;
	`

	var paramsID int64
	err := DB.QueryRow(query).Scan(
		&paramsID,
		&params.MinGasMultiple, &params.TargetRebalanceHours, &params.BandWidthVolMultiple,
		&params.MinBandWidth, &params.MaxBandWidth, &params.DriftThreshold, &params.TrendThreshold,
		&params.MaxSkew, &params.RewardsClaimUSD, &params.SwapSpreadBps,
		&params.SwapImpactBpsPer1Pct, &params.MevBps, &params.AvgPoolRangeWidth,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return params, 0, err
		}
		return params, 0, fmt.Errorf("failed to load active rebalance params: %w", err)
	}
	return params, paramsID, nil
}

// GetActiveRebalanceParamsID returns the active version's ID as a nullable
// value, suitable for attaching to saved runs.
func GetActiveRebalanceParamsID() sql.NullInt64 {
	if DB == nil {
		return sql.NullInt64{}
	}
	var id int64
	err := DB.QueryRow(`SELECT params_id FROM rebalance_params WHERE is_active ORDER BY params_id DESC LIMIT 1`).Scan(&id)
	if err != nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: id, Valid: true}
}
