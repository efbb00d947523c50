package indicator

import (
	"fmt"
	"math"

	"github.com/kabuquant/kabuquant/internal/types"
)

// BollingerBands indicator implements Bollinger Bands calculation.
type BollingerBands struct {
	period int
	k      float64
}

// NewBollingerBands creates a new Bollinger Bands indicator with default configuration.
func NewBollingerBands() Indicator {
	return &BollingerBands{
		period: 20,  // Default period
		k:      2.0, // Default standard deviation multiplier
	}
}

// Name returns the name of the indicator.
func (b *BollingerBands) Name() types.IndicatorType {
	return types.IndicatorTypeBollingerBands
}

// Config configures the indicator. Expected parameters: period (int), k (float64).
func (b *BollingerBands) Config(params ...any) error {
	if len(params) != 2 {
		return fmt.Errorf("Config expects 2 parameters: period (int), k (float64)")
	}

	period, ok := params[0].(int)
	if !ok {
		return fmt.Errorf("invalid type for period parameter, expected int")
	}

	if period <= 0 {
		return fmt.Errorf("period must be a positive integer, got %d", period)
	}

	k, ok := params[1].(float64)
	if !ok {
		return fmt.Errorf("invalid type for k parameter, expected float64")
	}

	if k <= 0 {
		return fmt.Errorf("k must be positive, got %f", k)
	}

	b.period = period
	b.k = k

	return nil
}

// Compute derives the middle, upper and lower band series from the candle closes.
func (b *BollingerBands) Compute(candles []types.Candle) (types.DerivedSeries, error) {
	if err := checkNotEmpty(candles, b.Name()); err != nil {
		return nil, err
	}

	middle, upper, lower := BollingerSeries(types.Closes(candles), b.period, b.k)

	return types.DerivedSeries{
		"middle": middle,
		"upper":  upper,
		"lower":  lower,
	}, nil
}

// BollingerSeries computes the Bollinger Bands: middle = SMA(period),
// upper/lower = middle ± k * rolling population standard deviation over
// the same window.
func BollingerSeries(values []float64, period int, k float64) (middle, upper, lower []float64) {
	middle = SMASeries(values, period)
	upper = nanSeries(len(values))
	lower = nanSeries(len(values))

	if period <= 0 || len(values) < period {
		return middle, upper, lower
	}

	for i := period - 1; i < len(values); i++ {
		mean := middle[i]

		variance := 0.0
		for j := i - period + 1; j <= i; j++ {
			diff := values[j] - mean
			variance += diff * diff
		}

		variance /= float64(period)

		stddev := math.Sqrt(variance)
		upper[i] = mean + k*stddev
		lower[i] = mean - k*stddev
	}

	return middle, upper, lower
}
