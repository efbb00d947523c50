package candle

import (
	"sort"
	"sync"
	"time"

	"github.com/kabuquant/kabuquant/internal/types"
)

// MemoryStore is an in-memory Store implementation. It backs the live
// ingestion path in tests and short-lived sessions where durability is not
// needed.
type MemoryStore struct {
	mu      sync.RWMutex
	buckets map[storeKey]map[int64]types.Candle
}

type storeKey struct {
	symbol   string
	duration types.Duration
}

// NewMemoryStore creates an empty in-memory candle store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mu:      sync.RWMutex{},
		buckets: make(map[storeKey]map[int64]types.Candle),
	}
}

// Get implements Store.
func (s *MemoryStore) Get(symbol string, duration types.Duration, bucketTime time.Time) (types.Candle, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candles, ok := s.buckets[storeKey{symbol: symbol, duration: duration}]
	if !ok {
		return types.Candle{}, false, nil
	}

	candle, ok := candles[bucketTime.Unix()]

	return candle, ok, nil
}

// Upsert implements Store.
func (s *MemoryStore) Upsert(symbol string, duration types.Duration, candle types.Candle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := storeKey{symbol: symbol, duration: duration}

	candles, ok := s.buckets[key]
	if !ok {
		candles = make(map[int64]types.Candle)
		s.buckets[key] = candles
	}

	candles[candle.Time.Unix()] = candle

	return nil
}

// All implements Store.
func (s *MemoryStore) All(symbol string, duration types.Duration, limit int) ([]types.Candle, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	candles, ok := s.buckets[storeKey{symbol: symbol, duration: duration}]
	if !ok {
		return nil, nil
	}

	all := make([]types.Candle, 0, len(candles))
	for _, candle := range candles {
		all = append(all, candle)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Time.Before(all[j].Time) })

	if len(all) > limit {
		all = all[len(all)-limit:]
	}

	return all, nil
}

// Count implements Store.
func (s *MemoryStore) Count(symbol string, duration types.Duration) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.buckets[storeKey{symbol: symbol, duration: duration}]), nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buckets = make(map[storeKey]map[int64]types.Candle)

	return nil
}

// Verify MemoryStore implements the Store interface.
var _ Store = (*MemoryStore)(nil)
