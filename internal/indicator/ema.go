package indicator

import (
	"fmt"

	"github.com/kabuquant/kabuquant/internal/types"
)

// EMA indicator implements Exponential Moving Average calculation.
type EMA struct {
	period int
}

// NewEMA creates a new EMA indicator with default configuration.
func NewEMA() Indicator {
	return &EMA{
		period: 20, // Default period
	}
}

// Name returns the name of the indicator.
func (e *EMA) Name() types.IndicatorType {
	return types.IndicatorTypeEMA
}

// Config configures the EMA indicator. Expected parameters: period (int).
func (e *EMA) Config(params ...any) error {
	if len(params) != 1 {
		return fmt.Errorf("Config expects 1 parameter: period (int)")
	}

	period, ok := params[0].(int)
	if !ok {
		return fmt.Errorf("invalid type for period parameter, expected int")
	}

	if period <= 0 {
		return fmt.Errorf("period must be a positive integer, got %d", period)
	}

	e.period = period

	return nil
}

// Compute derives the EMA series from the candle closes.
func (e *EMA) Compute(candles []types.Candle) (types.DerivedSeries, error) {
	if err := checkNotEmpty(candles, e.Name()); err != nil {
		return nil, err
	}

	return types.DerivedSeries{
		"ema": EMASeries(types.Closes(candles), e.period),
	}, nil
}

// EMASeries computes an exponential moving average with smoothing factor
// alpha = 2/(period+1). The first defined value, at index period-1, is
// seeded with the simple average of the first period values; subsequent
// values follow EMA = value*alpha + prevEMA*(1-alpha). Positions before
// index period-1 hold NaN.
func EMASeries(values []float64, period int) []float64 {
	result := nanSeries(len(values))
	if period <= 0 || len(values) < period {
		return result
	}

	seed := 0.0
	for i := 0; i < period; i++ {
		seed += values[i]
	}

	seed /= float64(period)

	alpha := 2.0 / float64(period+1)

	ema := seed
	result[period-1] = ema

	for i := period; i < len(values); i++ {
		ema = values[i]*alpha + ema*(1-alpha)
		result[i] = ema
	}

	return result
}
