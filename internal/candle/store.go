// Package candle owns candle persistence and the tick-to-candle
// aggregation path. Candles are keyed by (symbol, duration, bucket time):
// at most one candle exists per bucket.
package candle

import (
	"time"

	"github.com/kabuquant/kabuquant/internal/types"
)

// Store persists candles keyed by (symbol, duration, bucket time). A single
// generically-keyed store replaces any per-symbol schema: the composite key
// is part of every row.
type Store interface {
	// Get returns the candle at the exact bucket time, and whether it exists.
	Get(symbol string, duration types.Duration, bucketTime time.Time) (types.Candle, bool, error)
	// Upsert inserts or replaces the candle at its bucket time.
	Upsert(symbol string, duration types.Duration, candle types.Candle) error
	// All returns up to limit most recent candles in ascending time order.
	// A non-positive limit applies the default of 1000.
	All(symbol string, duration types.Duration, limit int) ([]types.Candle, error)
	// Count returns the number of stored candles for the key space.
	Count(symbol string, duration types.Duration) (int, error)
	// Close releases store resources.
	Close() error
}

// DefaultLimit caps how many candles All returns when the caller does not
// specify a limit.
const DefaultLimit = 1000
