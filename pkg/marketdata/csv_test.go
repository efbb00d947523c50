package marketdata_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/kabuquant/kabuquant/internal/types"
	"github.com/kabuquant/kabuquant/pkg/errors"
	"github.com/kabuquant/kabuquant/pkg/marketdata"
)

type CSVProviderTestSuite struct {
	suite.Suite
	dir string
}

func TestCSVProviderSuite(t *testing.T) {
	suite.Run(t, new(CSVProviderTestSuite))
}

func (suite *CSVProviderTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
}

func (suite *CSVProviderTestSuite) writeFile(name, content string) string {
	path := filepath.Join(suite.dir, name)
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0o600))

	return path
}

func (suite *CSVProviderTestSuite) TestReadsHeaderedFile() {
	recent := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)

	content := "time,open,high,low,close,volume\n" +
		recent.Format(time.RFC3339) + ",100,105,98,102,1000\n" +
		recent.Add(time.Minute).Format(time.RFC3339) + ",102,104,101,103,500\n"

	provider := marketdata.NewCSVProvider(suite.writeFile("candles.csv", content))

	candles, err := provider.Candles(context.Background(), "1459", types.Duration1m, 0)
	suite.Require().NoError(err)
	suite.Require().Len(candles, 2)

	suite.Equal(100.0, candles[0].Open)
	suite.Equal(105.0, candles[0].High)
	suite.Equal(98.0, candles[0].Low)
	suite.Equal(102.0, candles[0].Close)
	suite.Equal(int64(1000), candles[0].Volume)
	suite.True(candles[0].Time.Equal(recent))
}

func (suite *CSVProviderTestSuite) TestAcceptsUnixTimestamps() {
	content := "time,open,high,low,close,volume\n1700000000,10,11,9,10.5,42\n"
	provider := marketdata.NewCSVProvider(suite.writeFile("unix.csv", content))

	candles, err := provider.Candles(context.Background(), "1459", types.Duration1m, 0)
	suite.Require().NoError(err)
	suite.Require().Len(candles, 1)
	suite.Equal(time.Unix(1700000000, 0).UTC(), candles[0].Time)
	suite.Equal(int64(42), candles[0].Volume)
}

func (suite *CSVProviderTestSuite) TestFiltersByPastDays() {
	old := time.Now().AddDate(0, 0, -30).UTC()
	recent := time.Now().Add(-time.Hour).UTC()

	content := "time,open,high,low,close,volume\n" +
		old.Format(time.RFC3339) + ",1,1,1,1,1\n" +
		recent.Format(time.RFC3339) + ",2,2,2,2,2\n"

	provider := marketdata.NewCSVProvider(suite.writeFile("window.csv", content))

	candles, err := provider.Candles(context.Background(), "1459", types.Duration1m, 7)
	suite.Require().NoError(err)
	suite.Require().Len(candles, 1)
	suite.Equal(2.0, candles[0].Open)
}

func (suite *CSVProviderTestSuite) TestMalformedRowFails() {
	content := "time,open,high,low,close,volume\nnot-a-time,1,2,3,4,5\n"
	provider := marketdata.NewCSVProvider(suite.writeFile("bad.csv", content))

	_, err := provider.Candles(context.Background(), "1459", types.Duration1m, 0)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataParseFailed))
}

func (suite *CSVProviderTestSuite) TestEmptyFileFails() {
	provider := marketdata.NewCSVProvider(suite.writeFile("empty.csv", ""))

	_, err := provider.Candles(context.Background(), "1459", types.Duration1m, 0)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeNoDataFetched))
}

func (suite *CSVProviderTestSuite) TestMissingFileFails() {
	provider := marketdata.NewCSVProvider(filepath.Join(suite.dir, "nope.csv"))

	_, err := provider.Candles(context.Background(), "1459", types.Duration1m, 0)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataFetchFailed))
}

func (suite *CSVProviderTestSuite) TestFactory() {
	path := suite.writeFile("factory.csv", "time,open,high,low,close,volume\n1700000000,1,1,1,1,1\n")

	provider, err := marketdata.NewCandleProvider(marketdata.ProviderCSV, marketdata.ProviderConfig{CSVPath: path})
	suite.Require().NoError(err)
	suite.NotNil(provider)

	_, err = marketdata.NewCandleProvider(marketdata.ProviderType("ftp"), marketdata.ProviderConfig{})
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	_, err = marketdata.NewCandleProvider(marketdata.ProviderPolygon, marketdata.ProviderConfig{})
	suite.Require().Error(err, "polygon without an api key must fail")
}
