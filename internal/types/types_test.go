package types_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/kabuquant/kabuquant/internal/types"
	"github.com/kabuquant/kabuquant/pkg/errors"
)

type TypesTestSuite struct {
	suite.Suite
}

func TestTypesSuite(t *testing.T) {
	suite.Run(t, new(TypesTestSuite))
}

func (suite *TypesTestSuite) TestDurationTruncate() {
	tests := []struct {
		name     string
		duration types.Duration
		input    time.Time
		expected time.Time
	}{
		{
			name:     "5s floors seconds to lower multiple of five",
			duration: types.Duration5s,
			input:    time.Date(2024, 1, 15, 12, 0, 3, 500000000, time.UTC),
			expected: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
		},
		{
			name:     "5s keeps exact bucket boundary",
			duration: types.Duration5s,
			input:    time.Date(2024, 1, 15, 12, 0, 5, 0, time.UTC),
			expected: time.Date(2024, 1, 15, 12, 0, 5, 0, time.UTC),
		},
		{
			name:     "5s second bucket",
			duration: types.Duration5s,
			input:    time.Date(2024, 1, 15, 12, 0, 9, 0, time.UTC),
			expected: time.Date(2024, 1, 15, 12, 0, 5, 0, time.UTC),
		},
		{
			name:     "1m truncates to the minute",
			duration: types.Duration1m,
			input:    time.Date(2024, 1, 15, 12, 34, 56, 0, time.UTC),
			expected: time.Date(2024, 1, 15, 12, 34, 0, 0, time.UTC),
		},
		{
			name:     "1h truncates to the hour",
			duration: types.Duration1h,
			input:    time.Date(2024, 1, 15, 12, 34, 56, 0, time.UTC),
			expected: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			got, err := tc.duration.Truncate(tc.input)
			suite.Require().NoError(err)
			suite.True(got.Equal(tc.expected), "got %s, expected %s", got, tc.expected)
		})
	}
}

func (suite *TypesTestSuite) TestParseDuration() {
	for _, value := range []string{"5s", "1m", "1h", "1d"} {
		duration, err := types.ParseDuration(value)
		suite.Require().NoError(err)
		suite.Equal(types.Duration(value), duration)
	}

	_, err := types.ParseDuration("3m")
	suite.Require().Error(err)
	suite.True(errors.IsUnknownDurationError(err))
}

func (suite *TypesTestSuite) TestUnknownDurationTruncate() {
	_, err := types.Duration("7s").Truncate(time.Now())
	suite.Require().Error(err)
	suite.True(errors.IsUnknownDurationError(err))
}

func (suite *TypesTestSuite) TestNewCandleStartsAllPricesAtTradePrice() {
	bucket := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	candle := types.NewCandle(bucket, 100.0, 10)

	suite.Equal(100.0, candle.Open)
	suite.Equal(100.0, candle.High)
	suite.Equal(100.0, candle.Low)
	suite.Equal(100.0, candle.Close)
	suite.Equal(int64(10), candle.Volume)
	suite.True(candle.Time.Equal(bucket))
}

func (suite *TypesTestSuite) TestCandleApply() {
	candle := types.NewCandle(time.Now(), 100.0, 10)

	candle.Apply(105.0, 5)
	candle.Apply(98.0, 3)

	suite.Equal(100.0, candle.Open)
	suite.Equal(105.0, candle.High)
	suite.Equal(98.0, candle.Low)
	suite.Equal(98.0, candle.Close)
	suite.Equal(int64(18), candle.Volume)

	// OHLC invariant: low <= open, close <= high.
	suite.LessOrEqual(candle.Low, candle.Open)
	suite.LessOrEqual(candle.Low, candle.Close)
	suite.GreaterOrEqual(candle.High, candle.Open)
	suite.GreaterOrEqual(candle.High, candle.Close)
}

func (suite *TypesTestSuite) TestTickMidPrice() {
	tick := types.Tick{Symbol: "1459", Timestamp: 1700000000, Bid: 99.0, Ask: 101.0, Volume: 1}
	suite.Equal(100.0, tick.MidPrice())
}

func (suite *TypesTestSuite) TestTickTruncateTime() {
	tick := types.Tick{
		Symbol:    "1459",
		Timestamp: time.Date(2024, 1, 15, 12, 0, 7, 0, time.UTC).Unix(),
	}

	bucket, err := tick.TruncateTime(types.Duration5s)
	suite.Require().NoError(err)
	suite.Equal(time.Date(2024, 1, 15, 12, 0, 5, 0, time.UTC).Unix(), bucket.Unix())
}

func (suite *TypesTestSuite) TestSeriesExtractors() {
	candles := []types.Candle{
		{Open: 1, High: 2, Low: 0.5, Close: 1.5},
		{Open: 1.5, High: 3, Low: 1, Close: 2.5},
	}

	suite.Equal([]float64{1.5, 2.5}, types.Closes(candles))
	suite.Equal([]float64{2, 3}, types.Highs(candles))
	suite.Equal([]float64{0.5, 1}, types.Lows(candles))
}
