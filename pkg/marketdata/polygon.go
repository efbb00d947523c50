package marketdata

import (
	"context"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"github.com/kabuquant/kabuquant/internal/types"
	"github.com/kabuquant/kabuquant/pkg/errors"
)

const polygonPageLimit = 50000

// PolygonProvider fetches historical aggregates from the Polygon REST API.
type PolygonProvider struct {
	client *polygon.Client
}

// NewPolygonProvider creates a Polygon-backed candle provider.
func NewPolygonProvider(apiKey string) (*PolygonProvider, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "polygon api key is required")
	}

	return &PolygonProvider{client: polygon.New(apiKey)}, nil
}

// Candles implements CandleProvider.
func (p *PolygonProvider) Candles(ctx context.Context, symbol string, duration types.Duration, pastDays int) ([]types.Candle, error) {
	multiplier, timespan, err := polygonTimespan(duration)
	if err != nil {
		return nil, err
	}

	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -pastDays)

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       models.Millis(startDate),
		To:         models.Millis(endDate),
	}.WithLimit(polygonPageLimit)

	iter := p.client.ListAggs(ctx, params)

	var candles []types.Candle

	for iter.Next() {
		agg := iter.Item()
		candles = append(candles, types.Candle{
			Time:   time.Time(agg.Timestamp),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: int64(agg.Volume),
		})
	}

	if iter.Err() != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, iter.Err(),
			"failed to list polygon aggregates for %s", symbol)
	}

	if len(candles) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoDataFetched, "polygon returned no aggregates for %s", symbol)
	}

	return candles, nil
}

func polygonTimespan(duration types.Duration) (int, models.Timespan, error) {
	switch duration {
	case types.Duration5s:
		return 5, models.Second, nil
	case types.Duration1m:
		return 1, models.Minute, nil
	case types.Duration1h:
		return 1, models.Hour, nil
	case types.Duration1d:
		return 1, models.Day, nil
	default:
		return 0, "", errors.NewUnknownDurationError(string(duration))
	}
}

var _ CandleProvider = (*PolygonProvider)(nil)
