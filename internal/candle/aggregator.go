package candle

import (
	"sync"

	"github.com/kabuquant/kabuquant/internal/logger"
	"github.com/kabuquant/kabuquant/internal/types"
	"go.uber.org/zap"
)

// Aggregator incrementally builds fixed-duration candles from a tick
// stream. Concurrent ticks for the same (symbol, duration) key serialize
// through a per-key mutex so at most one current candle exists per bucket.
type Aggregator struct {
	store Store
	log   *logger.Logger

	mu    sync.Mutex
	locks map[storeKey]*sync.Mutex
}

// NewAggregator creates an aggregator persisting into the given store.
func NewAggregator(store Store, log *logger.Logger) *Aggregator {
	return &Aggregator{
		store: store,
		log:   log,
		mu:    sync.Mutex{},
		locks: make(map[storeKey]*sync.Mutex),
	}
}

// Ingest folds one tick into the candle of its bucket under the given
// duration. It returns the resulting candle and whether a new bucket was
// opened; the new-bucket signal is what triggers downstream trade
// evaluation at the primary trading duration.
//
// An unrecognized duration fails with UnknownDurationError and affects
// this tick only.
func (a *Aggregator) Ingest(tick types.Tick, duration types.Duration) (types.Candle, bool, error) {
	bucketTime, err := tick.TruncateTime(duration)
	if err != nil {
		return types.Candle{}, false, err
	}

	lock := a.keyLock(tick.Symbol, duration)
	lock.Lock()
	defer lock.Unlock()

	current, found, err := a.store.Get(tick.Symbol, duration, bucketTime)
	if err != nil {
		return types.Candle{}, false, err
	}

	price := tick.MidPrice()

	if !found {
		created := types.NewCandle(bucketTime, price, tick.Volume)
		if err := a.store.Upsert(tick.Symbol, duration, created); err != nil {
			return types.Candle{}, false, err
		}

		a.log.Debug("opened candle bucket",
			zap.String("symbol", tick.Symbol),
			zap.String("duration", string(duration)),
			zap.Time("bucket", bucketTime),
		)

		return created, true, nil
	}

	current.Apply(price, tick.Volume)

	if err := a.store.Upsert(tick.Symbol, duration, current); err != nil {
		return types.Candle{}, false, err
	}

	return current, false, nil
}

// IngestAll folds one tick into every maintained duration and reports which
// durations opened a new bucket.
func (a *Aggregator) IngestAll(tick types.Tick) (map[types.Duration]bool, error) {
	opened := make(map[types.Duration]bool, len(types.Durations))

	for _, duration := range types.Durations {
		_, isNew, err := a.Ingest(tick, duration)
		if err != nil {
			return opened, err
		}

		opened[duration] = isNew
	}

	return opened, nil
}

func (a *Aggregator) keyLock(symbol string, duration types.Duration) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := storeKey{symbol: symbol, duration: duration}

	lock, ok := a.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		a.locks[key] = lock
	}

	return lock
}
