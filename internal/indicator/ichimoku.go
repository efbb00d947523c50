package indicator

import (
	"fmt"
	"math"

	"github.com/kabuquant/kabuquant/internal/types"
)

// Standard Ichimoku window lengths and cloud displacement.
const (
	ichimokuConversionPeriod = 9
	ichimokuBasePeriod       = 26
	ichimokuSpanBPeriod      = 52
	ichimokuDisplacement     = 26
)

// Ichimoku indicator implements the five-line Ichimoku Cloud calculation
// with the conventional 9/26/52 windows. It takes no parameters.
type Ichimoku struct{}

// NewIchimoku creates a new Ichimoku indicator.
func NewIchimoku() Indicator {
	return &Ichimoku{}
}

// Name returns the name of the indicator.
func (ic *Ichimoku) Name() types.IndicatorType {
	return types.IndicatorTypeIchimoku
}

// Config configures the indicator. Ichimoku uses fixed conventional windows
// and accepts no parameters.
func (ic *Ichimoku) Config(params ...any) error {
	if len(params) != 0 {
		return fmt.Errorf("Config expects no parameters, got %d", len(params))
	}

	return nil
}

// Compute derives the five Ichimoku lines from the candle series.
func (ic *Ichimoku) Compute(candles []types.Candle) (types.DerivedSeries, error) {
	if err := checkNotEmpty(candles, ic.Name()); err != nil {
		return nil, err
	}

	tenkan, kijun, senkouA, senkouB, chikou := IchimokuSeries(
		types.Highs(candles), types.Lows(candles), types.Closes(candles))

	return types.DerivedSeries{
		"tenkan":   tenkan,
		"kijun":    kijun,
		"senkou_a": senkouA,
		"senkou_b": senkouB,
		"chikou":   chikou,
	}, nil
}

// IchimokuSeries computes the five standard Ichimoku lines:
//
//	tenkan  = midpoint of the 9-period high/low range
//	kijun   = midpoint of the 26-period high/low range
//	senkouA = (tenkan+kijun)/2 displaced 26 periods forward
//	senkouB = midpoint of the 52-period range displaced 26 periods forward
//	chikou  = close displaced 26 periods backward
//
// All series are aligned to the input length; displaced positions that fall
// outside the series hold NaN.
func IchimokuSeries(highs, lows, closes []float64) (tenkan, kijun, senkouA, senkouB, chikou []float64) {
	length := len(closes)

	tenkan = midpointSeries(highs, lows, ichimokuConversionPeriod)
	kijun = midpointSeries(highs, lows, ichimokuBasePeriod)
	senkouA = nanSeries(length)
	senkouB = nanSeries(length)
	chikou = nanSeries(length)

	spanBBase := midpointSeries(highs, lows, ichimokuSpanBPeriod)

	for i := 0; i < length; i++ {
		if i >= ichimokuDisplacement {
			src := i - ichimokuDisplacement
			if !math.IsNaN(tenkan[src]) && !math.IsNaN(kijun[src]) {
				senkouA[i] = (tenkan[src] + kijun[src]) / 2
			}

			senkouB[i] = spanBBase[src]
		}

		if i+ichimokuDisplacement < length {
			chikou[i] = closes[i+ichimokuDisplacement]
		}
	}

	return tenkan, kijun, senkouA, senkouB, chikou
}

// midpointSeries computes (rolling max(high) + rolling min(low)) / 2 over a
// trailing window of period values.
func midpointSeries(highs, lows []float64, period int) []float64 {
	result := nanSeries(len(highs))
	if period <= 0 || len(highs) < period {
		return result
	}

	for i := period - 1; i < len(highs); i++ {
		highest := highs[i]
		lowest := lows[i]

		for j := i - period + 1; j <= i; j++ {
			if highs[j] > highest {
				highest = highs[j]
			}

			if lows[j] < lowest {
				lowest = lows[j]
			}
		}

		result[i] = (highest + lowest) / 2
	}

	return result
}
