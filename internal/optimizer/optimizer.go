// Package optimizer sweeps indicator parameter grids, invoking the signal
// engine once per valid combination and selecting the best-performing
// parameters by realized profit.
package optimizer

import (
	"github.com/kabuquant/kabuquant/internal/backtest"
	"github.com/kabuquant/kabuquant/internal/logger"
	"github.com/kabuquant/kabuquant/internal/types"
	"github.com/kabuquant/kabuquant/pkg/errors"
	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// Mode selects how much of the sweep is retained.
type Mode string

const (
	// ModeSingleBest tracks only the running best combination. Bounded
	// memory, suited for quick optimization.
	ModeSingleBest Mode = "single_best"
	// ModeExhaustive retains every combination's result for inspection.
	// Memory grows with the grid size.
	ModeExhaustive Mode = "exhaustive"
)

// Result is the outcome of evaluating one parameter combination.
type Result struct {
	Params      backtest.RuleParams `json:"params" yaml:"params"`
	Performance float64             `json:"performance" yaml:"performance"`
	EventCount  int                 `json:"event_count" yaml:"event_count"`
}

// Report aggregates one grid sweep for one indicator family.
//
// Best is None when no combination could be evaluated at all (empty or
// too-short series). A best with zero or negative performance is still a
// Some: the sweep ran and found nothing profitable, which is a valid
// outcome, not an error.
type Report struct {
	Indicator types.IndicatorType     `json:"indicator" yaml:"indicator"`
	Best      optional.Option[Result] `json:"best" yaml:"best"`
	All       []Result                `json:"all,omitempty" yaml:"all,omitempty"`
	Evaluated int                     `json:"evaluated" yaml:"evaluated"`
	Skipped   int                     `json:"skipped" yaml:"skipped"`
}

// Optimizer runs grid sweeps against the signal engine.
type Optimizer struct {
	engine       *backtest.Engine
	log          *logger.Logger
	showProgress bool
}

// New creates a new Optimizer. When showProgress is set, exhaustive sweeps
// render a progress bar on stderr.
func New(engine *backtest.Engine, log *logger.Logger, showProgress bool) *Optimizer {
	return &Optimizer{
		engine:       engine,
		log:          log,
		showProgress: showProgress,
	}
}

// Optimize sweeps the grid of the requested indicator family.
func (o *Optimizer) Optimize(symbol string, candles []types.Candle, ind types.IndicatorType, grids GridSet, stopLimitPercent float64, mode Mode) (*Report, error) {
	switch ind {
	case types.IndicatorTypeSMA:
		return o.sweep(symbol, candles, ind, grids.SMA.Combos(), stopLimitPercent, mode)
	case types.IndicatorTypeEMA:
		return o.sweep(symbol, candles, ind, grids.EMA.Combos(), stopLimitPercent, mode)
	case types.IndicatorTypeBollingerBands:
		return o.sweep(symbol, candles, ind, grids.Bollinger.Combos(), stopLimitPercent, mode)
	case types.IndicatorTypeIchimoku:
		return o.sweep(symbol, candles, ind, []backtest.RuleParams{backtest.IchimokuParams{}}, stopLimitPercent, mode)
	case types.IndicatorTypeRSI:
		return o.sweep(symbol, candles, ind, grids.RSI.Combos(), stopLimitPercent, mode)
	case types.IndicatorTypeMACD:
		return o.sweep(symbol, candles, ind, grids.MACD.Combos(), stopLimitPercent, mode)
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedRule, "unsupported indicator family %s", ind)
	}
}

// sweep evaluates the combinations in their given (lexicographic) order.
// Degenerate combinations are skipped silently; the first strictly best
// performance wins ties.
func (o *Optimizer) sweep(symbol string, candles []types.Candle, ind types.IndicatorType, combos []backtest.RuleParams, stopLimitPercent float64, mode Mode) (*Report, error) {
	if len(combos) == 0 {
		return nil, errors.Newf(errors.ErrCodeEmptyGrid, "parameter grid for %s is empty", ind)
	}

	report := &Report{
		Indicator: ind,
		Best:      optional.None[Result](),
		All:       nil,
		Evaluated: 0,
		Skipped:   0,
	}

	var bar *progressbar.ProgressBar
	if o.showProgress && mode == ModeExhaustive {
		bar = progressbar.Default(int64(len(combos)), string(ind))
	}

	bestSet := false

	var best Result

	for _, params := range combos {
		if bar != nil {
			_ = bar.Add(1)
		}

		if err := params.Validate(); err != nil {
			if errors.IsDegenerateParameterError(err) {
				report.Skipped++

				continue
			}

			return nil, err
		}

		// Combinations the series cannot warm up are not evaluated; if
		// none can be, the report carries the explicit no-result sentinel.
		if len(candles) < params.MinCandles() {
			report.Skipped++

			continue
		}

		result, err := o.engine.Run(symbol, candles, params, stopLimitPercent)
		if err != nil {
			return nil, err
		}

		report.Evaluated++

		entry := Result{
			Params:      params,
			Performance: result.Performance,
			EventCount:  len(result.Events),
		}

		if mode == ModeExhaustive {
			report.All = append(report.All, entry)
		}

		if !bestSet || entry.Performance > best.Performance {
			best = entry
			bestSet = true
		}
	}

	if bestSet {
		report.Best = optional.Some(best)
	}

	o.log.Info("optimization sweep finished",
		zap.String("symbol", symbol),
		zap.String("indicator", string(ind)),
		zap.Int("combinations", len(combos)),
		zap.Int("evaluated", report.Evaluated),
		zap.Int("skipped", report.Skipped),
		zap.Bool("has_result", bestSet),
	)

	return report, nil
}
