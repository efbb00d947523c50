// Package config loads and validates the YAML configuration shared by the
// backtest, trader and server CLIs.
package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kabuquant/kabuquant/internal/optimizer"
	"github.com/kabuquant/kabuquant/internal/types"
	"github.com/kabuquant/kabuquant/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	// ProductCode is the instrument code traded and backtested, e.g. "1459".
	ProductCode string `yaml:"product_code" validate:"required"`
	// TradeDuration is the primary trading granularity.
	TradeDuration string `yaml:"trade_duration" validate:"required,oneof=5s 1m 1h"`
	// PastPeriod is the number of days of history fetched for backtests.
	PastPeriod int `yaml:"past_period" validate:"gt=0"`
	// StopLimitPercent is the maximum tolerated adverse move before a
	// forced exit, e.g. 5.0 for 5%.
	StopLimitPercent float64 `yaml:"stop_limit_percent" validate:"gte=0,lt=100"`
	// UsePercent is the capital fraction committed per trade. Informational
	// to the engine; the live loop sizes orders with it.
	UsePercent float64 `yaml:"use_percent" validate:"gt=0,lte=1"`
	// NumRanking is how many top-performing indicator families the
	// optimizer ranking keeps. Zero keeps all.
	NumRanking int `yaml:"num_ranking" validate:"gte=0"`
	// BackTest disables live order placement when set.
	BackTest bool `yaml:"back_test"`
	// DBPath is the DuckDB candle database path. Empty means in-memory.
	DBPath string `yaml:"db_path"`
	// WebPort is the dashboard API listen port.
	WebPort int `yaml:"web_port" validate:"gte=0,lte=65535"`
	// Optimize declares the per-family parameter grids. Unset families
	// fall back to the default grids.
	Optimize optimizer.GridSet `yaml:"optimize"`
}

// Load reads, parses and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
	}

	return Parse(data)
}

// Parse parses and validates raw YAML configuration.
func Parse(data []byte) (*Config, error) {
	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config yaml", err)
	}

	config.applyDefaults()

	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	return config, nil
}

// Duration returns the validated primary trading duration.
func (c *Config) Duration() types.Duration {
	duration, err := types.ParseDuration(c.TradeDuration)
	if err != nil {
		// Unreachable after validation; default to the finest granularity.
		return types.Duration5s
	}

	return duration
}

func (c *Config) applyDefaults() {
	if c.StopLimitPercent == 0 {
		c.StopLimitPercent = 5.0
	}

	if c.UsePercent == 0 {
		c.UsePercent = 0.9
	}

	if c.PastPeriod == 0 {
		c.PastPeriod = 365
	}

	if c.WebPort == 0 {
		c.WebPort = 8080
	}

	defaults := optimizer.DefaultGridSet()

	if c.Optimize.SMA.Short.Max == 0 {
		c.Optimize.SMA = defaults.SMA
	}

	if c.Optimize.EMA.Short.Max == 0 {
		c.Optimize.EMA = defaults.EMA
	}

	if c.Optimize.Bollinger.Period.Max == 0 {
		c.Optimize.Bollinger = defaults.Bollinger
	}

	if c.Optimize.RSI.Period.Max == 0 {
		c.Optimize.RSI = defaults.RSI
	}

	if c.Optimize.MACD.Fast.Max == 0 {
		c.Optimize.MACD = defaults.MACD
	}
}
