package indicator_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/kabuquant/kabuquant/internal/indicator"
	"github.com/kabuquant/kabuquant/internal/types"
	"github.com/kabuquant/kabuquant/pkg/errors"
)

// candlesFromCloses builds a candle series where open, high, low and close
// all equal the given close values.
func candlesFromCloses(closes []float64) []types.Candle {
	candles := make([]types.Candle, len(closes))
	base := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	for i, c := range closes {
		candles[i] = types.Candle{
			Time:   base.Add(time.Duration(i) * time.Minute),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1,
		}
	}

	return candles
}

type IndicatorTestSuite struct {
	suite.Suite
}

func TestIndicatorSuite(t *testing.T) {
	suite.Run(t, new(IndicatorTestSuite))
}

func (suite *IndicatorTestSuite) TestSMASeriesKnownValues() {
	values := []float64{1, 2, 3, 4, 5}
	result := indicator.SMASeries(values, 3)

	suite.True(math.IsNaN(result[0]))
	suite.True(math.IsNaN(result[1]))
	suite.InDelta(2.0, result[2], 1e-9)
	suite.InDelta(3.0, result[3], 1e-9)
	suite.InDelta(4.0, result[4], 1e-9)
}

func (suite *IndicatorTestSuite) TestSMASeriesShorterThanPeriod() {
	result := indicator.SMASeries([]float64{1, 2}, 3)
	for _, v := range result {
		suite.True(math.IsNaN(v))
	}
}

func (suite *IndicatorTestSuite) TestEMASeriesSeededWithSMA() {
	// period 3 gives alpha = 0.5: seed at index 2 is (1+2+3)/3 = 2,
	// then 4*0.5 + 2*0.5 = 3 and 5*0.5 + 3*0.5 = 4.
	values := []float64{1, 2, 3, 4, 5}
	result := indicator.EMASeries(values, 3)

	suite.True(math.IsNaN(result[0]))
	suite.True(math.IsNaN(result[1]))
	suite.InDelta(2.0, result[2], 1e-9)
	suite.InDelta(3.0, result[3], 1e-9)
	suite.InDelta(4.0, result[4], 1e-9)
}

func (suite *IndicatorTestSuite) TestBollingerSeriesKnownValues() {
	values := []float64{1, 2, 3, 4, 5}
	middle, upper, lower := indicator.BollingerSeries(values, 3, 2.0)

	suite.True(math.IsNaN(middle[1]))

	// Population stddev of any 3 consecutive integers is sqrt(2/3).
	sd := math.Sqrt(2.0 / 3.0)

	suite.InDelta(2.0, middle[2], 1e-9)
	suite.InDelta(2.0+2*sd, upper[2], 1e-9)
	suite.InDelta(2.0-2*sd, lower[2], 1e-9)
	suite.InDelta(4.0, middle[4], 1e-9)
	suite.InDelta(4.0+2*sd, upper[4], 1e-9)
}

func (suite *IndicatorTestSuite) TestBollingerBandsOrdered() {
	values := []float64{10, 12, 11, 13, 15, 14, 16, 18, 17, 19}
	_, upper, lower := indicator.BollingerSeries(values, 5, 2.0)

	for i := 4; i < len(values); i++ {
		suite.GreaterOrEqual(upper[i], lower[i])
	}
}

func (suite *IndicatorTestSuite) TestRSISeriesAlternatingValues() {
	// period 2 over +1/-1 alternation: first window balances to 50, then
	// Wilder smoothing gives 75 and 37.5.
	values := []float64{1, 2, 1, 2, 1}
	result := indicator.RSISeries(values, 2)

	suite.True(math.IsNaN(result[0]))
	suite.True(math.IsNaN(result[1]))
	suite.InDelta(50.0, result[2], 1e-9)
	suite.InDelta(75.0, result[3], 1e-9)
	suite.InDelta(37.5, result[4], 1e-9)
}

func (suite *IndicatorTestSuite) TestRSISeriesAllGainsIsHundred() {
	values := []float64{1, 2, 3, 4, 5, 6}
	result := indicator.RSISeries(values, 3)

	for i := 3; i < len(values); i++ {
		suite.InDelta(100.0, result[i], 1e-9)
	}
}

func (suite *IndicatorTestSuite) TestMACDSeriesFlatInput() {
	values := make([]float64, 40)
	for i := range values {
		values[i] = 100
	}

	macd, signal, histogram := indicator.MACDSeries(values, 12, 26, 9)

	suite.True(math.IsNaN(macd[24]))
	suite.InDelta(0.0, macd[25], 1e-9)
	suite.InDelta(0.0, macd[39], 1e-9)
	suite.InDelta(0.0, signal[39], 1e-9)
	suite.InDelta(0.0, histogram[39], 1e-9)
}

func (suite *IndicatorTestSuite) TestMACDSeriesHistogramIsDifference() {
	values := make([]float64, 60)
	for i := range values {
		values[i] = 100 + 10*math.Sin(float64(i)/5)
	}

	macd, signal, histogram := indicator.MACDSeries(values, 12, 26, 9)

	for i := range values {
		if math.IsNaN(histogram[i]) {
			continue
		}

		suite.InDelta(macd[i]-signal[i], histogram[i], 1e-9)
	}
}

func (suite *IndicatorTestSuite) TestIchimokuSeriesConstantInput() {
	length := 120
	highs := make([]float64, length)
	lows := make([]float64, length)
	closes := make([]float64, length)

	for i := 0; i < length; i++ {
		highs[i] = 100
		lows[i] = 100
		closes[i] = 100
	}

	tenkan, kijun, senkouA, senkouB, chikou := indicator.IchimokuSeries(highs, lows, closes)

	suite.True(math.IsNaN(tenkan[7]))
	suite.InDelta(100.0, tenkan[8], 1e-9)
	suite.True(math.IsNaN(kijun[24]))
	suite.InDelta(100.0, kijun[25], 1e-9)

	// Span A needs kijun defined 26 back: first at 25+26 = 51.
	suite.True(math.IsNaN(senkouA[50]))
	suite.InDelta(100.0, senkouA[51], 1e-9)

	// Span B needs the 52-period midpoint 26 back: first at 51+26 = 77.
	suite.True(math.IsNaN(senkouB[76]))
	suite.InDelta(100.0, senkouB[77], 1e-9)

	// Chikou is the close shifted 26 back; undefined near the series end.
	suite.InDelta(100.0, chikou[0], 1e-9)
	suite.InDelta(100.0, chikou[length-27], 1e-9)
	suite.True(math.IsNaN(chikou[length-26]))
}

func (suite *IndicatorTestSuite) TestComputeOnEmptySeriesFails() {
	for _, ind := range []indicator.Indicator{
		indicator.NewSMA(),
		indicator.NewEMA(),
		indicator.NewBollingerBands(),
		indicator.NewIchimoku(),
		indicator.NewRSI(),
		indicator.NewMACD(),
	} {
		_, err := ind.Compute(nil)
		suite.Require().Error(err, "indicator %s", ind.Name())
		suite.True(errors.IsInsufficientDataError(err), "indicator %s", ind.Name())
	}
}

func (suite *IndicatorTestSuite) TestComputeIsDeterministic() {
	candles := candlesFromCloses([]float64{10, 11, 9, 12, 13, 12, 14, 15, 13, 16})

	sma := indicator.NewSMA()
	suite.Require().NoError(sma.Config(3))

	first, err := sma.Compute(candles)
	suite.Require().NoError(err)

	second, err := sma.Compute(candles)
	suite.Require().NoError(err)

	suite.Equal(first, second)
}

func (suite *IndicatorTestSuite) TestConfigValidation() {
	sma := indicator.NewSMA()
	suite.Error(sma.Config())
	suite.Error(sma.Config("three"))
	suite.Error(sma.Config(0))
	suite.NoError(sma.Config(7))

	macd := indicator.NewMACD()
	suite.Error(macd.Config(26, 12, 9), "fast must be below slow")
	suite.NoError(macd.Config(12, 26, 9))

	ichimoku := indicator.NewIchimoku()
	suite.Error(ichimoku.Config(9))
	suite.NoError(ichimoku.Config())

	bbands := indicator.NewBollingerBands()
	suite.Error(bbands.Config(20))
	suite.NoError(bbands.Config(20, 2.0))
}

func (suite *IndicatorTestSuite) TestRegistry() {
	registry := indicator.NewDefaultIndicatorRegistry()

	suite.Len(registry.ListIndicators(), 6)

	sma, err := registry.GetIndicator(types.IndicatorTypeSMA)
	suite.Require().NoError(err)
	suite.Equal(types.IndicatorTypeSMA, sma.Name())

	_, err = registry.GetIndicator(types.IndicatorType("vwap"))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeIndicatorNotFound))

	err = registry.RegisterIndicator(indicator.NewSMA())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeIndicatorAlreadyExists))

	suite.Require().NoError(registry.RemoveIndicator(types.IndicatorTypeSMA))
	suite.Len(registry.ListIndicators(), 5)

	err = registry.RemoveIndicator(types.IndicatorTypeSMA)
	suite.True(errors.HasCode(err, errors.ErrCodeIndicatorNotFound))
}
