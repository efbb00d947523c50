package indicator

import (
	"fmt"

	"github.com/kabuquant/kabuquant/internal/types"
)

// RSI represents the Relative Strength Index indicator.
type RSI struct {
	period int
}

// NewRSI creates a new RSI indicator with default configuration.
func NewRSI() Indicator {
	return &RSI{
		period: 14, // Default period
	}
}

// Name returns the name of the indicator.
func (r *RSI) Name() types.IndicatorType {
	return types.IndicatorTypeRSI
}

// Config configures the RSI indicator. Expected parameters: period (int).
func (r *RSI) Config(params ...any) error {
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

	r.period = period

	return nil
}

// Compute derives the RSI series from the candle closes.
func (r *RSI) Compute(candles []types.Candle) (types.DerivedSeries, error) {
	if err := checkNotEmpty(candles, r.Name()); err != nil {
		return nil, err
	}

	return types.DerivedSeries{
		"rsi": RSISeries(types.Closes(candles), r.period),
	}, nil
}

// RSISeries computes Wilder's Relative Strength Index over trailing average
// gains and losses of period changes. The first defined value is at index
// period; earlier positions hold NaN. Values are bounded to [0, 100], with
// 100 for a window containing no losses.
func RSISeries(values []float64, period int) []float64 {
	result := nanSeries(len(values))
	if period <= 0 || len(values) < period+1 {
		return result
	}

	avgGain := 0.0
	avgLoss := 0.0

	// First averages over the initial period changes.
	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}

	avgGain /= float64(period)
	avgLoss /= float64(period)
	result[period] = rsiFromAverages(avgGain, avgLoss)

	// Subsequent averages use Wilder's smoothing.
	for i := period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]

		gain := 0.0
		loss := 0.0

		if change > 0 {
			gain = change
		} else {
			loss = -change
		}

		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		result[i] = rsiFromAverages(avgGain, avgLoss)
	}

	return result
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss

	return 100 - (100 / (1 + rs))
}
