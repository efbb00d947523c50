package indicator

import (
	"fmt"
	"math"

	"github.com/kabuquant/kabuquant/internal/types"
)

// MACD represents the Moving Average Convergence Divergence indicator.
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

// NewMACD creates a new MACD indicator with default configuration.
func NewMACD() Indicator {
	return &MACD{
		fastPeriod:   12, // Default fast period
		slowPeriod:   26, // Default slow period
		signalPeriod: 9,  // Default signal period
	}
}

// Name returns the name of the indicator.
func (m *MACD) Name() types.IndicatorType {
	return types.IndicatorTypeMACD
}

// Config configures the MACD indicator.
// Expected parameters: fastPeriod (int), slowPeriod (int), signalPeriod (int).
func (m *MACD) Config(params ...any) error {
	if len(params) != 3 {
		return fmt.Errorf("Config expects 3 parameters: fastPeriod (int), slowPeriod (int), signalPeriod (int)")
	}

	periods := make([]int, 3)

	for i, p := range params {
		period, ok := p.(int)
		if !ok {
			return fmt.Errorf("invalid type for parameter %d, expected int", i)
		}

		if period <= 0 {
			return fmt.Errorf("period must be a positive integer, got %d", period)
		}

		periods[i] = period
	}

	if periods[0] >= periods[1] {
		return fmt.Errorf("fastPeriod must be smaller than slowPeriod, got %d >= %d", periods[0], periods[1])
	}

	m.fastPeriod = periods[0]
	m.slowPeriod = periods[1]
	m.signalPeriod = periods[2]

	return nil
}

// Compute derives the macd, signal and histogram series from the candle closes.
func (m *MACD) Compute(candles []types.Candle) (types.DerivedSeries, error) {
	if err := checkNotEmpty(candles, m.Name()); err != nil {
		return nil, err
	}

	macd, signal, histogram := MACDSeries(types.Closes(candles), m.fastPeriod, m.slowPeriod, m.signalPeriod)

	return types.DerivedSeries{
		"macd":      macd,
		"signal":    signal,
		"histogram": histogram,
	}, nil
}

// MACDSeries computes MACD = EMA(fast) - EMA(slow), the signal line as an
// EMA(signalPeriod) of the MACD values, and histogram = MACD - signal.
// The MACD line is defined from index slow-1; the signal line and histogram
// from index slow-1+signalPeriod-1.
func MACDSeries(values []float64, fast, slow, signal int) (macd, signalLine, histogram []float64) {
	length := len(values)
	macd = nanSeries(length)
	signalLine = nanSeries(length)
	histogram = nanSeries(length)

	if fast <= 0 || slow <= 0 || signal <= 0 || length < slow {
		return macd, signalLine, histogram
	}

	fastEMA := EMASeries(values, fast)
	slowEMA := EMASeries(values, slow)

	for i := slow - 1; i < length; i++ {
		macd[i] = fastEMA[i] - slowEMA[i]
	}

	// The signal line is an EMA over the defined portion of the MACD line.
	defined := macd[slow-1:]

	signalDefined := EMASeries(defined, signal)
	for i, v := range signalDefined {
		signalLine[slow-1+i] = v
	}

	for i := range histogram {
		if !math.IsNaN(macd[i]) && !math.IsNaN(signalLine[i]) {
			histogram[i] = macd[i] - signalLine[i]
		}
	}

	return macd, signalLine, histogram
}
