// Package indicator provides technical indicator computations over candle
// series. Every computation is a pure function of the ordered input series
// plus its parameters: repeated invocation on the same input yields
// identical output. Positions where a rolling window is not yet filled
// hold math.NaN().
package indicator

import (
	"math"

	"github.com/kabuquant/kabuquant/internal/types"
	"github.com/kabuquant/kabuquant/pkg/errors"
)

// Indicator is implemented by every indicator family. Compute returns a
// derived series aligned to the input candle series; column names are
// family specific (e.g. "upper"/"middle"/"lower" for Bollinger Bands).
type Indicator interface {
	// Name returns the indicator family identifier.
	Name() types.IndicatorType
	// Config configures the indicator parameters.
	Config(params ...any) error
	// Compute derives the indicator series from the candle series.
	// An empty candle series fails with InsufficientDataError.
	Compute(candles []types.Candle) (types.DerivedSeries, error)
}

// nanSeries returns a series of the given length filled with NaN.
func nanSeries(length int) []float64 {
	values := make([]float64, length)
	for i := range values {
		values[i] = math.NaN()
	}

	return values
}

// checkNotEmpty enforces the zero-candle failure contract shared by all
// indicator Compute implementations.
func checkNotEmpty(candles []types.Candle, name types.IndicatorType) error {
	if len(candles) == 0 {
		return errors.NewInsufficientDataErrorf(1, 0, "",
			"cannot compute %s on an empty candle series", name)
	}

	return nil
}
