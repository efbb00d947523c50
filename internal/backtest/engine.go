// Package backtest implements the signal engine: it evaluates an
// indicator-based trading rule over a candle series and produces the
// chronological buy/sell events plus a realized profit summary.
package backtest

import (
	"github.com/kabuquant/kabuquant/internal/logger"
	"github.com/kabuquant/kabuquant/internal/types"
	"github.com/kabuquant/kabuquant/pkg/errors"
	"go.uber.org/zap"
)

// Result summarizes one signal engine run.
type Result struct {
	// Events is the chronological sequence of buy/sell events.
	Events []types.SignalEvent `json:"events" yaml:"events"`
	// Profit is the sum of per-trade fractional returns.
	Profit float64 `json:"profit" yaml:"profit"`
	// Performance is Profit expressed as a percentage.
	Performance float64 `json:"performance" yaml:"performance"`
	// OpenPosition reports whether a position was still open at series end.
	// Open positions are not force-closed.
	OpenPosition bool `json:"open_position" yaml:"open_position"`
}

// Engine evaluates trading rules over candle series. It is stateless
// across runs; each Run owns its ledger.
type Engine struct {
	log *logger.Logger
}

// NewEngine creates a new signal engine.
func NewEngine(log *logger.Logger) *Engine {
	return &Engine{log: log}
}

// Run evaluates the rule described by params over the candle series.
//
// stopLimitPercent is the maximum tolerated adverse move from the entry
// price before a forced exit, e.g. 5.0 for 5%.
//
// An empty series fails with InsufficientDataError. A non-empty series too
// short for the rule's warm-up, or one that never satisfies a trigger,
// returns a result with zero events.
func (e *Engine) Run(symbol string, candles []types.Candle, params RuleParams, stopLimitPercent float64) (*Result, error) {
	if len(candles) == 0 {
		return nil, errors.NewInsufficientDataErrorf(1, 0, symbol,
			"cannot run %s backtest on an empty candle series", params.Indicator())
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}

	if stopLimitPercent < 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidStopLimit,
			"stop limit percent must not be negative, got %f", stopLimitPercent)
	}

	ledger := NewLedger(symbol, params.Indicator())

	if len(candles) >= params.MinCandles() {
		stop := stopRule{percent: stopLimitPercent}

		switch p := params.(type) {
		case SMACrossParams:
			e.runSMACross(ledger, candles, p, stop)
		case EMACrossParams:
			e.runEMACross(ledger, candles, p, stop)
		case BollingerParams:
			e.runBollinger(ledger, candles, p, stop)
		case IchimokuParams:
			e.runIchimoku(ledger, candles, stop)
		case RSIParams:
			e.runRSI(ledger, candles, p, stop)
		case MACDParams:
			e.runMACD(ledger, candles, p, stop)
		default:
			return nil, errors.Newf(errors.ErrCodeUnsupportedRule,
				"unsupported rule parameter type %T", params)
		}
	}

	result := &Result{
		Events:       ledger.Events(),
		Profit:       ledger.Profit(),
		Performance:  ledger.Performance(),
		OpenPosition: ledger.Holding(),
	}

	e.log.Debug("backtest run finished",
		zap.String("symbol", symbol),
		zap.String("indicator", string(params.Indicator())),
		zap.Int("candles", len(candles)),
		zap.Int("events", len(result.Events)),
		zap.Float64("performance", result.Performance),
	)

	return result, nil
}

// stopRule implements the forced-exit check applied on every candle while
// a position is open.
type stopRule struct {
	percent float64
}

// shouldExit reports whether the price has fallen by more than the
// configured percentage from the entry price.
func (s stopRule) shouldExit(ledger *Ledger, price float64) bool {
	if !ledger.Holding() {
		return false
	}

	return price < ledger.EntryPrice()*(1-s.percent/100)
}
