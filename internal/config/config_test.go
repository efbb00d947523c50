package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/kabuquant/kabuquant/internal/config"
	"github.com/kabuquant/kabuquant/internal/types"
	"github.com/kabuquant/kabuquant/pkg/errors"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestParseFullConfig() {
	yaml := `
product_code: "1459"
trade_duration: 1m
past_period: 180
stop_limit_percent: 3.5
use_percent: 0.8
num_ranking: 3
back_test: true
db_path: candles.duckdb
web_port: 9000
optimize:
  ema:
    short: {min: 5, max: 10}
    long: {min: 12, max: 20}
`

	cfg, err := config.Parse([]byte(yaml))
	suite.Require().NoError(err)

	suite.Equal("1459", cfg.ProductCode)
	suite.Equal(types.Duration1m, cfg.Duration())
	suite.Equal(180, cfg.PastPeriod)
	suite.InDelta(3.5, cfg.StopLimitPercent, 1e-9)
	suite.InDelta(0.8, cfg.UsePercent, 1e-9)
	suite.Equal(3, cfg.NumRanking)
	suite.True(cfg.BackTest)
	suite.Equal("candles.duckdb", cfg.DBPath)
	suite.Equal(9000, cfg.WebPort)
	suite.Equal(5, cfg.Optimize.EMA.Short.Min)
	suite.Equal(20, cfg.Optimize.EMA.Long.Max)
}

func (suite *ConfigTestSuite) TestDefaultsApplied() {
	cfg, err := config.Parse([]byte("product_code: \"1459\"\ntrade_duration: 5s\n"))
	suite.Require().NoError(err)

	suite.InDelta(5.0, cfg.StopLimitPercent, 1e-9)
	suite.InDelta(0.9, cfg.UsePercent, 1e-9)
	suite.Equal(365, cfg.PastPeriod)
	suite.Equal(8080, cfg.WebPort)

	// Unset grids fall back to the reference grids.
	suite.NotZero(cfg.Optimize.SMA.Short.Max)
	suite.NotZero(cfg.Optimize.EMA.Short.Max)
	suite.NotZero(cfg.Optimize.Bollinger.Period.Max)
	suite.NotZero(cfg.Optimize.RSI.Period.Max)
	suite.NotZero(cfg.Optimize.MACD.Fast.Max)
}

func (suite *ConfigTestSuite) TestMissingProductCodeFails() {
	_, err := config.Parse([]byte("trade_duration: 1m\n"))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestInvalidTradeDurationFails() {
	_, err := config.Parse([]byte("product_code: \"1459\"\ntrade_duration: 3m\n"))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestUsePercentAboveOneFails() {
	_, err := config.Parse([]byte("product_code: \"1459\"\ntrade_duration: 1m\nuse_percent: 1.5\n"))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestStopLimitAtOrAboveHundredFails() {
	_, err := config.Parse([]byte("product_code: \"1459\"\ntrade_duration: 1m\nstop_limit_percent: 100\n"))
	suite.Require().Error(err)
}

func (suite *ConfigTestSuite) TestMalformedYAMLFails() {
	_, err := config.Parse([]byte("product_code: [unclosed"))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestLoadFromFile() {
	dir := suite.T().TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := "product_code: \"1459\"\ntrade_duration: 1h\n"
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.Load(path)
	suite.Require().NoError(err)
	suite.Equal(types.Duration1h, cfg.Duration())

	_, err = config.Load(filepath.Join(dir, "missing.yaml"))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}
