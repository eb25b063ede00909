// ./internal/state/result_store.go
package state

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq" // PostgreSQL driver for array support
	"github.com/rs/zerolog/log"

	"github.com/elys-network/vbt/internal/types"
)

// StoredResult is one persisted backtest run with its database identity.
type StoredResult struct {
	RunID     string               `json:"run_id"`
	CreatedAt string               `json:"created_at"`
	Result    types.BacktestResult `json:"result"`
}

// SaveBacktestResult persists one completed backtest run under the given
// run ID. Run identity lives here, not in the engine, so the engine output
// stays byte-for-byte deterministic.
func SaveBacktestResult(runID string, result *types.BacktestResult, paramsID sql.NullInt64) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	configJSON, err := json.Marshal(result.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	summaryJSON, err := json.Marshal(result.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	curveJSON, err := json.Marshal(result.EquityCurve)
	if err != nil {
		return fmt.Errorf("failed to marshal equity_curve: %w", err)
	}
	actionsJSON, err := json.Marshal(result.Actions)
	if err != nil {
		return fmt.Errorf("failed to marshal action_log: %w", err)
	}

	strategies := make([]string, 0, 4)
	seen := make(map[string]bool)
	for _, entry := range result.Actions {
		if !seen[entry.Strategy] {
			seen[entry.Strategy] = true
			strategies = append(strategies, entry.Strategy)
		}
	}

	query := `
		INSERT INTO backtest_results (
			run_id, params_id, pool_type, start_ts_ms, end_ts_ms, tick_count,
			strategies_used, config, summary, equity_curve, action_log,
			total_return_pct, annualized_return_pct, max_drawdown_pct,
			end_value_usd, rebalance_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`

	_, err = DB.Exec(
		query,
		runID, paramsID, string(result.Config.PoolType),
		result.StartTsMs, result.EndTsMs, result.TickCount,
		pq.Array(strategies), configJSON, summaryJSON, curveJSON, actionsJSON,
		result.Summary.TotalReturnPct, result.Summary.AnnualizedReturnPct,
		result.Summary.MaxDrawdownPct, result.Summary.EndValueUSD,
		result.Summary.RebalanceCount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert backtest result: %w", err)
	}

	log.Info().Str("run_id", runID).Msg("Saved backtest result.")
	return nil
}

// GetRecentResults returns the most recent runs, newest first.
func GetRecentResults(limit int) ([]StoredResult, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `
		SELECT run_id, created_at, config, summary, equity_curve, action_log,
		       pool_type, start_ts_ms, end_ts_ms, tick_count
		FROM backtest_results
		ORDER BY created_at DESC
		LIMIT $1;
	`
	rows, err := DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query backtest results: %w", err)
	}
	defer rows.Close()

	var results []StoredResult
	for rows.Next() {
		stored, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, stored)
	}
	return results, rows.Err()
}

// GetLatestResult returns the most recent run, or sql.ErrNoRows.
func GetLatestResult() (StoredResult, error) {
	results, err := GetRecentResults(1)
	if err != nil {
		return StoredResult{}, err
	}
	if len(results) == 0 {
		return StoredResult{}, sql.ErrNoRows
	}
	return results[0], nil
}

// GetResultByID fetches one run by its UUID.
func GetResultByID(runID string) (StoredResult, error) {
	if DB == nil {
		return StoredResult{}, fmt.Errorf("database not initialized")
	}

	query := `
		SELECT run_id, created_at, config, summary, equity_curve, action_log,
		       pool_type, start_ts_ms, end_ts_ms, tick_count
		FROM backtest_results
		WHERE run_id = $1;
	`
	return scanResult(DB.QueryRow(query, runID))
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanResult(row rowScanner) (StoredResult, error) {
	var stored StoredResult
	var poolType string
	var configJSON, summaryJSON, curveJSON, actionsJSON []byte

	err := row.Scan(
		&stored.RunID, &stored.CreatedAt,
		&configJSON, &summaryJSON, &curveJSON, &actionsJSON,
		&poolType, &stored.Result.StartTsMs, &stored.Result.EndTsMs,
		&stored.Result.TickCount,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return StoredResult{}, err
		}
		return StoredResult{}, fmt.Errorf("failed to scan backtest result: %w", err)
	}

	if err := json.Unmarshal(configJSON, &stored.Result.Config); err != nil {
		return StoredResult{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := json.Unmarshal(summaryJSON, &stored.Result.Summary); err != nil {
		return StoredResult{}, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	if err := json.Unmarshal(curveJSON, &stored.Result.EquityCurve); err != nil {
		return StoredResult{}, fmt.Errorf("failed to unmarshal equity_curve: %w", err)
	}
	if err := json.Unmarshal(actionsJSON, &stored.Result.Actions); err != nil {
		return StoredResult{}, fmt.Errorf("failed to unmarshal action_log: %w", err)
	}
	stored.Result.Config.PoolType = types.PoolType(poolType)
	return stored, nil
}
