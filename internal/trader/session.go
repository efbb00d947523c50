package trader

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kabuquant/kabuquant/internal/backtest"
	"github.com/kabuquant/kabuquant/internal/candle"
	"github.com/kabuquant/kabuquant/internal/config"
	"github.com/kabuquant/kabuquant/internal/logger"
	"github.com/kabuquant/kabuquant/internal/optimizer"
	"github.com/kabuquant/kabuquant/internal/types"
	"github.com/kabuquant/kabuquant/pkg/marketdata"
)

// reoptimizeInterval is how many new trade-duration candles accumulate
// before the parameter grid is swept again.
const reoptimizeInterval = 60

// Session is the live trading loop. It folds the tick stream into candles
// and, whenever a new bucket opens at the trading duration, re-evaluates
// the currently best rule over the recent window. Evaluations pass through
// a coalescing guard so a burst of bucket openings produces one rerun, not
// a queue.
type Session struct {
	config     *config.Config
	store      candle.Store
	aggregator *candle.Aggregator
	engine     *backtest.Engine
	optimizer  *optimizer.Optimizer
	stream     marketdata.TickStream
	broker     Broker
	log        *logger.Logger

	guard CoalescingGuard

	mu          sync.Mutex
	bestParams  backtest.RuleParams
	optimizedAt int
	lastActed   time.Time
	positionQty int64
}

// NewSession wires a live trading session.
func NewSession(
	cfg *config.Config,
	store candle.Store,
	aggregator *candle.Aggregator,
	engine *backtest.Engine,
	opt *optimizer.Optimizer,
	stream marketdata.TickStream,
	broker Broker,
	log *logger.Logger,
) *Session {
	return &Session{
		config:     cfg,
		store:      store,
		aggregator: aggregator,
		engine:     engine,
		optimizer:  opt,
		stream:     stream,
		broker:     broker,
		log:        log,
	}
}

// Run consumes the tick stream until the context ends. In backtest mode
// the live loop does not run at all.
func (s *Session) Run(ctx context.Context) error {
	if s.config.BackTest {
		s.log.Info("live loop skipped", zap.String("reason", "back_test_mode"))

		return nil
	}

	duration := s.config.Duration()

	for tick, err := range s.stream.Stream(ctx, []string{s.config.ProductCode}) {
		if err != nil {
			s.log.Error("tick stream failed", zap.Error(err))

			return err
		}

		opened, err := s.aggregator.IngestAll(tick)
		if err != nil {
			s.log.Warn("tick ingestion failed",
				zap.String("symbol", tick.Symbol),
				zap.Error(err),
			)

			continue
		}

		if opened[duration] {
			s.guard.Schedule(func() { s.evaluate(ctx) })
		}
	}

	return ctx.Err()
}

// evaluate reruns the best rule over the recent candle window and acts on
// a signal generated by the latest closed bucket.
func (s *Session) evaluate(ctx context.Context) {
	symbol := s.config.ProductCode
	duration := s.config.Duration()

	candles, err := s.store.All(symbol, duration, candle.DefaultLimit)
	if err != nil {
		s.log.Error("failed to load candle window", zap.Error(err))

		return
	}

	if len(candles) == 0 {
		return
	}

	params, err := s.tradeParams(symbol, candles)
	if err != nil {
		s.log.Warn("parameter optimization failed", zap.Error(err))

		return
	}

	if params == nil {
		// Nothing tradable yet. The next sweep may find parameters once
		// more candles accumulate.
		return
	}

	result, err := s.engine.Run(symbol, candles, params, s.config.StopLimitPercent)
	if err != nil {
		s.log.Error("rule evaluation failed", zap.Error(err))

		return
	}

	if len(result.Events) == 0 {
		return
	}

	latest := result.Events[len(result.Events)-1]

	s.mu.Lock()
	stale := !latest.Time.Equal(candles[len(candles)-1].Time) || !latest.Time.After(s.lastActed)
	s.mu.Unlock()

	if stale {
		return
	}

	s.act(ctx, latest)
}

// tradeParams returns the cached best rule parameters, resweeping the
// grids once enough new candles have accumulated. Returns nil when no
// family has produced a result yet.
func (s *Session) tradeParams(symbol string, candles []types.Candle) (backtest.RuleParams, error) {
	s.mu.Lock()
	cached := s.bestParams
	fresh := cached != nil && len(candles)-s.optimizedAt < reoptimizeInterval
	s.mu.Unlock()

	if fresh {
		return cached, nil
	}

	reports, err := s.optimizer.RankAll(symbol, candles, s.config.Optimize,
		s.config.StopLimitPercent, s.config.NumRanking, optimizer.ModeSingleBest)
	if err != nil {
		return nil, err
	}

	var best backtest.RuleParams

	for _, report := range reports {
		if result, err := report.Best.Take(); err == nil {
			best = result.Params

			s.log.Info("trade parameters updated",
				zap.String("symbol", symbol),
				zap.String("indicator", string(report.Indicator)),
				zap.Float64("performance", result.Performance),
			)

			break
		}
	}

	s.mu.Lock()
	s.bestParams = best
	s.optimizedAt = len(candles)
	s.mu.Unlock()

	return best, nil
}

// act sizes and places the order for a fresh signal event.
func (s *Session) act(ctx context.Context, event types.SignalEvent) {
	s.mu.Lock()
	positionQty := s.positionQty
	s.mu.Unlock()

	var qty int64

	switch event.Side {
	case types.SideBuy:
		if positionQty > 0 {
			return
		}

		balance, err := s.broker.Balance(ctx)
		if err != nil {
			s.log.Error("failed to fetch balance", zap.Error(err))

			return
		}

		qty = int64(math.Floor(balance * s.config.UsePercent / event.Price))
	case types.SideSell:
		qty = positionQty
	}

	if qty <= 0 {
		return
	}

	trade, err := s.broker.PlaceOrder(ctx, Order{
		Symbol: event.Symbol,
		Side:   event.Side,
		Qty:    qty,
		Price:  0,
	})
	if err != nil {
		s.log.Error("order placement failed",
			zap.String("symbol", event.Symbol),
			zap.String("side", string(event.Side)),
			zap.Error(err),
		)

		return
	}

	s.mu.Lock()

	s.lastActed = event.Time

	if event.Side == types.SideBuy {
		s.positionQty = trade.Qty
	} else {
		s.positionQty = 0
	}

	s.mu.Unlock()

	s.log.Info("order filled",
		zap.String("trade_id", trade.ID),
		zap.String("symbol", trade.Symbol),
		zap.String("side", string(trade.Side)),
		zap.Int64("qty", trade.Qty),
		zap.Float64("price", trade.Price),
		zap.String("indicator", string(event.Indicator)),
	)
}
