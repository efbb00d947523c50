package candle

import (
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/kabuquant/kabuquant/internal/logger"
	"github.com/kabuquant/kabuquant/internal/types"
	"github.com/kabuquant/kabuquant/pkg/errors"
	"go.uber.org/zap"
)

// DuckDBStore is a DuckDB-backed Store implementation. All symbols and
// durations share one table keyed by (symbol, duration, time).
type DuckDBStore struct {
	db  *sql.DB
	sq  squirrel.StatementBuilderType
	log *logger.Logger
}

// NewDuckDBStore opens (or creates) a DuckDB database at path and ensures
// the candles table exists. Use ":memory:" for an ephemeral store.
func NewDuckDBStore(path string, log *logger.Logger) (*DuckDBStore, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to open duckdb database at %s", path)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS candles (
			symbol TEXT NOT NULL,
			duration TEXT NOT NULL,
			time TIMESTAMP NOT NULL,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume BIGINT,
			PRIMARY KEY (symbol, duration, time)
		)
	`)
	if err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to create candles table", err)
	}

	return &DuckDBStore{
		db:  db,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		log: log,
	}, nil
}

// Get implements Store.
func (s *DuckDBStore) Get(symbol string, duration types.Duration, bucketTime time.Time) (types.Candle, bool, error) {
	query := s.sq.
		Select("time", "open", "high", "low", "close", "volume").
		From("candles").
		Where(squirrel.Eq{"symbol": symbol, "duration": string(duration), "time": bucketTime}).
		RunWith(s.db)

	var candle types.Candle

	err := query.QueryRow().Scan(&candle.Time, &candle.Open, &candle.High, &candle.Low, &candle.Close, &candle.Volume)
	if err == sql.ErrNoRows {
		return types.Candle{}, false, nil
	}

	if err != nil {
		return types.Candle{}, false, errors.Wrapf(errors.ErrCodeQueryFailed, err,
			"failed to query candle %s/%s@%s", symbol, duration, bucketTime)
	}

	return candle, true, nil
}

// Upsert implements Store.
func (s *DuckDBStore) Upsert(symbol string, duration types.Duration, candle types.Candle) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO candles (symbol, duration, time, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, symbol, string(duration), candle.Time, candle.Open, candle.High, candle.Low, candle.Close, candle.Volume)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeQueryFailed, err,
			"failed to upsert candle %s/%s@%s", symbol, duration, candle.Time)
	}

	return nil
}

// All implements Store. Selection is newest-first in SQL and reversed so the
// returned slice ascends in time.
func (s *DuckDBStore) All(symbol string, duration types.Duration, limit int) ([]types.Candle, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := s.sq.
		Select("time", "open", "high", "low", "close", "volume").
		From("candles").
		Where(squirrel.Eq{"symbol": symbol, "duration": string(duration)}).
		OrderBy("time DESC").
		Limit(uint64(limit)).
		RunWith(s.db)

	rows, err := query.Query()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err,
			"failed to query candles for %s/%s", symbol, duration)
	}
	defer rows.Close()

	var candles []types.Candle

	for rows.Next() {
		var candle types.Candle
		if err := rows.Scan(&candle.Time, &candle.Open, &candle.High, &candle.Low, &candle.Close, &candle.Volume); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan candle row", err)
		}

		candles = append(candles, candle)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate candle rows", err)
	}

	// Reverse into ascending time order.
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}

	return candles, nil
}

// Count implements Store.
func (s *DuckDBStore) Count(symbol string, duration types.Duration) (int, error) {
	query := s.sq.
		Select("COUNT(*)").
		From("candles").
		Where(squirrel.Eq{"symbol": symbol, "duration": string(duration)}).
		RunWith(s.db)

	var count int
	if err := query.QueryRow().Scan(&count); err != nil {
		return 0, errors.Wrapf(errors.ErrCodeQueryFailed, err,
			"failed to count candles for %s/%s", symbol, duration)
	}

	return count, nil
}

// Close implements Store.
func (s *DuckDBStore) Close() error {
	if err := s.db.Close(); err != nil {
		s.log.Error("failed to close duckdb store", zap.Error(err))

		return err
	}

	return nil
}

// Verify DuckDBStore implements the Store interface.
var _ Store = (*DuckDBStore)(nil)
