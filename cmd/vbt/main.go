package main

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/elys-network/vbt/internal/config"
	"github.com/elys-network/vbt/internal/engine"
	"github.com/elys-network/vbt/internal/logger"
	"github.com/elys-network/vbt/internal/marketdata"
	"github.com/elys-network/vbt/internal/state"
	"github.com/elys-network/vbt/internal/types"
	"github.com/elys-network/vbt/internal/web"
)

// main is the entry point for the vault backtester.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(config.LogLevel)
	log.Info().Msg("Vault Backtester Starting...")

	// Initialize Database Connection (optional; runs work without it)
	if config.DatabaseConfigured() {
		host, port, user, password, dbname, sslmode, err := config.LoadDBConfigEnv()
		if err != nil {
			log.Fatal().Err(err).Msg("Incomplete database configuration")
		}
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
		log.Info().Msg("DB_HOST not set, running without persistence.")
	}

	// Load Rebalance Parameters
	cfg := config.BacktestConfigFromEnv()
	if state.DB != nil {
		params, paramsID, err := state.LoadActiveRebalanceParams()
		if err != nil {
			if err != sql.ErrNoRows {
				log.Fatal().Err(err).Msg("Failed to load active rebalance parameters")
			}
			log.Warn().Msg("No active rebalance parameters found, saving defaults.")
			if _, err := state.SaveRebalanceParams(config.DefaultRebalanceParams, "initial defaults", true); err != nil {
				log.Fatal().Err(err).Msg("Failed to save initial default rebalance parameters.")
			}
		} else {
			log.Info().Int64("params_id", paramsID).Msg("Rebalance parameters loaded successfully.")
			cfg.Rebalance = params
		}
	}

	// --- 2. Start Web Server ---
	serving := config.WebListenAddr != ""
	if serving {
		webServer := web.NewWebServer(config.WebListenAddr)
		go func() {
			log.Info().Str("addr", config.WebListenAddr).Msg("Starting backtester web dashboard")
			if err := webServer.Start(); err != nil {
				log.Error().Err(err).Msg("Web server failed to start")
			}
		}()
	}

	// --- 3. Build the Market Series ---
	series := buildSeries(cfg)
	if len(series) == 0 {
		log.Fatal().Msg("Market series is empty, nothing to backtest.")
	}

	// --- 4. Run the Backtest ---
	result, err := engine.Run(cfg, series)
	if err != nil {
		log.Fatal().Err(err).Msg("Backtest failed")
	}

	log.Info().
		Str("pool_type", string(cfg.PoolType)).
		Float64("start_value_usd", result.Summary.StartValueUSD).
		Float64("end_value_usd", result.Summary.EndValueUSD).
		Float64("total_return_pct", result.Summary.TotalReturnPct).
		Float64("annualized_return_pct", result.Summary.AnnualizedReturnPct).
		Float64("max_drawdown_pct", result.Summary.MaxDrawdownPct).
		Float64("total_fees_usd", result.Summary.TotalFeesUSD).
		Float64("total_gas_usd", result.Summary.TotalGasUSD).
		Int("rebalances", result.Summary.RebalanceCount).
		Msg("Backtest summary")

	if state.DB != nil {
		runID := uuid.New().String()
		if err := state.SaveBacktestResult(runID, result, state.GetActiveRebalanceParamsID()); err != nil {
			log.Error().Err(err).Msg("Failed to persist backtest result")
		}
	}

	// Keep serving until interrupted when the dashboard is enabled.
	if serving {
		log.Info().Msg("Backtest complete, web dashboard still serving.")
		select {}
	}
}

// buildSeries loads the CSV series when one is configured, otherwise
// generates a deterministic synthetic series matching the run window.
func buildSeries(cfg types.BacktestConfig) []types.MarketPoint {
	if config.DataCSVPath != "" {
		series, err := marketdata.LoadCSV(config.DataCSVPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", config.DataCSVPath).Msg("Failed to load market data CSV")
		}
		return series
	}

	points := cfg.LookbackDays * 24 * 60 / cfg.StepMinutes
	endTs := time.Now().UTC().Truncate(time.Hour)
	startTs := endTs.Add(-time.Duration(points) * time.Duration(cfg.StepMinutes) * time.Minute)

	return marketdata.GenerateSeries(marketdata.SyntheticConfig{
		Seed:             uint32(config.SyntheticSeed),
		StartTsMs:        startTs.UnixMilli(),
		StepMinutes:      cfg.StepMinutes,
		Points:           points,
		StartPrice:       2.50,
		AnnualDriftPct:   0,
		AnnualVolPct:     60,
		FeeAPR:           cfg.DefaultFeeAPR,
		EmissionAPR:      cfg.DefaultEmissionAPR,
		PoolLiquidityUSD: cfg.DefaultPoolLiquidityUSD,
		BaseGasUSD:       cfg.DefaultGasUSD,
	})
}
