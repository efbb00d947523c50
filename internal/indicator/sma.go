package indicator

import (
	"fmt"

	"github.com/kabuquant/kabuquant/internal/types"
)

// SMA indicator implements Simple Moving Average calculation.
type SMA struct {
	period int
}

// NewSMA creates a new SMA indicator with default configuration.
func NewSMA() Indicator {
	return &SMA{
		period: 14, // Default period
	}
}

// Name returns the name of the indicator.
func (s *SMA) Name() types.IndicatorType {
	return types.IndicatorTypeSMA
}

// Config configures the SMA indicator. Expected parameters: period (int).
func (s *SMA) Config(params ...any) error {
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

	s.period = period

	return nil
}

// Compute derives the SMA series from the candle closes.
func (s *SMA) Compute(candles []types.Candle) (types.DerivedSeries, error) {
	if err := checkNotEmpty(candles, s.Name()); err != nil {
		return nil, err
	}

	return types.DerivedSeries{
		"sma": SMASeries(types.Closes(candles), s.period),
	}, nil
}

// SMASeries computes the arithmetic mean of a trailing window of period
// values. Positions before the window is filled hold NaN.
func SMASeries(values []float64, period int) []float64 {
	result := nanSeries(len(values))
	if period <= 0 || len(values) < period {
		return result
	}

	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}

		if i >= period-1 {
			result[i] = sum / float64(period)
		}
	}

	return result
}
