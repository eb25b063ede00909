/*

This file loads market series from CSV files. The expected header is:

  ts_ms,price,fee_apr,emission_apr,pool_liquidity_usd,gas_usd,volume_usd

Timestamps must be strictly increasing and prices strictly positive; those
two columns are hard requirements. The economic columns may be empty or
unparseable, in which case they load as NaN and the engine substitutes its
configured defaults.

*/

package marketdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/elys-network/vbt/internal/logger"
	"github.com/elys-network/vbt/internal/types"
)

var (
	ErrEmptyCSV      = errors.New("CSV file contains no data rows")
	ErrBadCSVHeader  = errors.New("CSV header is missing required columns")
	ErrBadTimestamps = errors.New("CSV timestamps must be strictly increasing")
	ErrBadPrice      = errors.New("CSV prices must be positive")
)

var requiredColumns = []string{"ts_ms", "price"}

// LoadCSV reads a full market series from the file at path.
func LoadCSV(path string) ([]types.MarketPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening market data file: %w", err)
	}
	defer f.Close()

	series, err := ReadSeries(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	log := logger.GetForComponent("marketdata")
	log.Info().
		Str("path", path).
		Int("points", len(series)).
		Msg("Loaded market series from CSV")
	return series, nil
}

// ReadSeries parses a market series from CSV content.
func ReadSeries(r io.Reader) ([]types.MarketPoint, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, ErrEmptyCSV
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrBadCSVHeader, name)
		}
	}

	var series []types.MarketPoint
	var lastTs int64
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		row++

		ts, err := strconv.ParseInt(field(record, cols, "ts_ms"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing ts_ms: %w", row, err)
		}
		if len(series) > 0 && ts <= lastTs {
			return nil, fmt.Errorf("%w: row %d has ts_ms %d after %d", ErrBadTimestamps, row, ts, lastTs)
		}

		price := parseFloat(field(record, cols, "price"))
		if !(price > 0) || math.IsInf(price, 0) {
			return nil, fmt.Errorf("%w: row %d has price %q", ErrBadPrice, row, field(record, cols, "price"))
		}

		series = append(series, types.MarketPoint{
			TsMs:             ts,
			Price:            price,
			FeeAPR:           parseFloat(field(record, cols, "fee_apr")),
			EmissionAPR:      parseFloat(field(record, cols, "emission_apr")),
			PoolLiquidityUSD: parseFloat(field(record, cols, "pool_liquidity_usd")),
			GasUSD:           parseFloat(field(record, cols, "gas_usd")),
			VolumeUSD:        parseFloat(field(record, cols, "volume_usd")),
		})
		lastTs = ts
	}

	if len(series) == 0 {
		return nil, ErrEmptyCSV
	}
	return series, nil
}

func field(record []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return record[idx]
}

// parseFloat returns NaN for missing or malformed optional columns so the
// engine can substitute its defaults.
func parseFloat(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
