// Package marketdata provides the external data collaborators of the
// engine: historical candle providers and streaming tick sources. All
// network handling (timeouts, reconnects) lives here; the engine only ever
// sees ordered candle slices and tick iterators.
package marketdata

import (
	"context"
	"iter"

	"github.com/kabuquant/kabuquant/internal/types"
	"github.com/kabuquant/kabuquant/pkg/errors"
)

// CandleProvider yields a finite, ascending-time candle series for
// backtests. No gap filling is guaranteed.
type CandleProvider interface {
	// Candles fetches up to pastDays days of history at the given duration.
	Candles(ctx context.Context, symbol string, duration types.Duration, pastDays int) ([]types.Candle, error)
}

// TickStream yields realtime tick observations. The iterator stops when
// the context is cancelled; transient source errors are yielded to the
// consumer, which decides whether to continue.
type TickStream interface {
	Stream(ctx context.Context, symbols []string) iter.Seq2[types.Tick, error]
}

// ProviderType identifies a candle provider implementation.
type ProviderType string

const (
	ProviderCSV     ProviderType = "csv"
	ProviderPolygon ProviderType = "polygon"
	ProviderBinance ProviderType = "binance"
)

// ProviderConfig carries the per-provider settings used by the factory.
type ProviderConfig struct {
	// CSVPath is the candle file path for the csv provider.
	CSVPath string
	// PolygonAPIKey authenticates the polygon provider.
	PolygonAPIKey string
}

// NewCandleProvider creates a candle provider of the given type.
func NewCandleProvider(providerType ProviderType, config ProviderConfig) (CandleProvider, error) {
	switch providerType {
	case ProviderCSV:
		return NewCSVProvider(config.CSVPath), nil
	case ProviderPolygon:
		return NewPolygonProvider(config.PolygonAPIKey)
	case ProviderBinance:
		return NewBinanceProvider(), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported candle provider %q", providerType)
	}
}
