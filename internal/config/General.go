package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/elys-network/vbt/internal/types"
)

// AppConfig holds all application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// PoolType selects the simulated pool kind: "cl", "volatile" or "stable".
	PoolType string
	// StepMinutes is the tick interval of the simulated series.
	StepMinutes int
	// LookbackDays is the length of the simulated window.
	LookbackDays int
	// InitialCapitalUSD is the vault's starting capital.
	InitialCapitalUSD float64

	// DataCSVPath points at a market data CSV; empty means synthetic data.
	DataCSVPath string
	// SyntheticSeed seeds the synthetic series generator.
	SyntheticSeed uint64

	// WebListenAddr is the dashboard bind address; empty disables the server.
	WebListenAddr string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string
)

// LoadConfig loads configuration from environment variables and sets the
// global config vars. Only the capital and window settings are required;
// everything else has a sensible default.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	PoolType, err = getEnvOrDefault("VBT_POOL_TYPE", string(types.PoolTypeCL))
	if err != nil {
		return err
	}
	switch types.PoolType(PoolType) {
	case types.PoolTypeCL, types.PoolTypeVolatile, types.PoolTypeStable:
	default:
		return errors.New("environment variable VBT_POOL_TYPE must be one of cl, volatile, stable, got: " + PoolType)
	}

	StepMinutes, err = getEnvAsIntOrDefault("VBT_STEP_MINUTES", 60)
	if err != nil {
		return err
	}
	if StepMinutes <= 0 {
		return errors.New("environment variable VBT_STEP_MINUTES must be positive")
	}

	LookbackDays, err = getEnvAsIntOrDefault("VBT_LOOKBACK_DAYS", 90)
	if err != nil {
		return err
	}

	InitialCapitalUSD, err = getEnvAsFloat64OrDefault("VBT_INITIAL_CAPITAL_USD", 100000)
	if err != nil {
		return err
	}

	DataCSVPath, _ = os.LookupEnv("VBT_DATA_CSV")
	WebListenAddr, _ = os.LookupEnv("VBT_WEB_LISTEN_ADDR")

	SyntheticSeed, err = getEnvAsUint64OrDefault("VBT_SYNTHETIC_SEED", 42)
	if err != nil {
		return err
	}

	LogLevel, err = getEnvOrDefault("LOG_LEVEL", "info")
	if err != nil {
		return err
	}

	log.Debug().
		Str("PoolType", PoolType).
		Int("StepMinutes", StepMinutes).
		Int("LookbackDays", LookbackDays).
		Float64("InitialCapitalUSD", InitialCapitalUSD).
		Msg("Configuration loaded successfully.")

	return nil
}

// DatabaseConfigured reports whether the DB_* environment variables are
// present. Persistence is optional; a pure backtest run works without it.
func DatabaseConfigured() bool {
	_, ok := os.LookupEnv("DB_HOST")
	return ok
}

// LoadDBConfigEnv reads the DB_* environment variables. All of them are
// required once DB_HOST is set.
func LoadDBConfigEnv() (host string, port int, user, password, dbname, sslmode string, err error) {
	host, err = getEnv("DB_HOST")
	if err != nil {
		return
	}
	port, err = getEnvAsIntOrDefault("DB_PORT", 5432)
	if err != nil {
		return
	}
	user, err = getEnv("DB_USER")
	if err != nil {
		return
	}
	password, err = getEnv("DB_PASSWORD")
	if err != nil {
		return
	}
	dbname, err = getEnv("DB_NAME")
	if err != nil {
		return
	}
	sslmode, err = getEnvOrDefault("DB_SSLMODE", "disable")
	return
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvOrDefault retrieves a string environment variable with a fallback.
func getEnvOrDefault(key, fallback string) (string, error) {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value, nil
	}
	return fallback, nil
}

// getEnvAsIntOrDefault retrieves an environment variable as an int with a fallback.
func getEnvAsIntOrDefault(key string, fallback int) (int, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid integer, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsUint64OrDefault retrieves an environment variable as a uint64 with a fallback.
func getEnvAsUint64OrDefault(key string, fallback uint64) (uint64, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return fallback, nil
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid uint64, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsFloat64OrDefault retrieves an environment variable as a float64 with a fallback.
func getEnvAsFloat64OrDefault(key string, fallback float64) (float64, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid float64, got: " + valueStr)
	}
	return value, nil
}
