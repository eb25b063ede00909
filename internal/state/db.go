// ./internal/state/db.go
package state

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// DB is a global database connection pool.
var DB *sql.DB

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// InitDB initializes the database connection pool.
func InitDB(cfg DBConfig) error {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	var err error
	DB, err = sql.Open("postgres", psqlInfo)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	err = DB.Ping()
	if err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to the PostgreSQL database!")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		log.Info().Msg("Closing database connection...")
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
	}
}

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func EnsureSchema() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	schemaSQL := `
		CREATE TABLE IF NOT EXISTS rebalance_params (
			params_id SERIAL PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			notes TEXT,

			min_gas_multiple DOUBLE PRECISION NOT NULL,
			target_rebalance_hours DOUBLE PRECISION NOT NULL,
			band_width_vol_multiple DOUBLE PRECISION NOT NULL,
			min_band_width DOUBLE PRECISION NOT NULL,
			max_band_width DOUBLE PRECISION NOT NULL,
			drift_threshold DOUBLE PRECISION NOT NULL,
			trend_threshold DOUBLE PRECISION NOT NULL,
			max_skew DOUBLE PRECISION NOT NULL,
			rewards_claim_usd DOUBLE PRECISION NOT NULL,
			swap_spread_bps DOUBLE PRECISION NOT NULL,
			swap_impact_bps_per_1pct DOUBLE PRECISION NOT NULL,
			mev_bps DOUBLE PRECISION NOT NULL,
			avg_pool_range_width DOUBLE PRECISION NOT NULL
		);

		CREATE TABLE IF NOT EXISTS backtest_results (
			run_id UUID PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			params_id INTEGER REFERENCES rebalance_params(params_id),

			pool_type TEXT NOT NULL,
			start_ts_ms BIGINT NOT NULL,
			end_ts_ms BIGINT NOT NULL,
			tick_count INTEGER NOT NULL,
			strategies_used TEXT[],

			config JSONB NOT NULL,
			summary JSONB NOT NULL,
			equity_curve JSONB NOT NULL,
			action_log JSONB NOT NULL,

			total_return_pct DOUBLE PRECISION NOT NULL,
			annualized_return_pct DOUBLE PRECISION NOT NULL,
			max_drawdown_pct DOUBLE PRECISION NOT NULL,
			end_value_usd DOUBLE PRECISION NOT NULL,
			rebalance_count INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_backtest_results_created_at
			ON backtest_results (created_at DESC);
	`

	if _, err := DB.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to apply database schema: %w", err)
	}

	log.Info().Msg("Database schema is up to date.")
	return nil
}

// TestDBConnection pings the database to verify connectivity.
func TestDBConnection() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	return DB.Ping()
}
