package marketdata

import (
	"context"
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/kabuquant/kabuquant/internal/types"
	"github.com/kabuquant/kabuquant/pkg/errors"
)

// CSVProvider reads candles from a local CSV file with a
// time,open,high,low,close,volume header. Timestamps are RFC 3339 or unix
// seconds. Rows must already be in ascending time order.
type CSVProvider struct {
	path string
}

// NewCSVProvider creates a provider reading from the given file path.
func NewCSVProvider(path string) *CSVProvider {
	return &CSVProvider{path: path}
}

// Candles implements CandleProvider. The symbol is ignored: one file holds
// one instrument. Rows older than pastDays are filtered out.
func (p *CSVProvider) Candles(_ context.Context, _ string, _ types.Duration, pastDays int) ([]types.Candle, error) {
	file, err := os.Open(p.path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to open csv file %s", p.path)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to read csv file %s", p.path)
	}

	if len(rows) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoDataFetched, "csv file %s is empty", p.path)
	}

	cutoff := time.Time{}
	if pastDays > 0 {
		cutoff = time.Now().AddDate(0, 0, -pastDays)
	}

	var candles []types.Candle

	for i, row := range rows {
		if i == 0 && row[0] == "time" {
			// Header row.
			continue
		}

		candle, err := parseCSVRow(row)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid csv row %d in %s", i+1, p.path)
		}

		if candle.Time.Before(cutoff) {
			continue
		}

		candles = append(candles, candle)
	}

	return candles, nil
}

func parseCSVRow(row []string) (types.Candle, error) {
	if len(row) < 6 {
		return types.Candle{}, errors.Newf(errors.ErrCodeMarketDataParseFailed,
			"expected 6 columns, got %d", len(row))
	}

	t, err := parseCSVTime(row[0])
	if err != nil {
		return types.Candle{}, err
	}

	prices := make([]float64, 4)

	for i := 0; i < 4; i++ {
		prices[i], err = strconv.ParseFloat(row[i+1], 64)
		if err != nil {
			return types.Candle{}, err
		}
	}

	volume, err := strconv.ParseInt(row[5], 10, 64)
	if err != nil {
		return types.Candle{}, err
	}

	return types.Candle{
		Time:   t,
		Open:   prices[0],
		High:   prices[1],
		Low:    prices[2],
		Close:  prices[3],
		Volume: volume,
	}, nil
}

func parseCSVTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}

	unix, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, err
	}

	return time.Unix(unix, 0).UTC(), nil
}
