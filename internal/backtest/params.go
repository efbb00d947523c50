package backtest

import (
	"github.com/kabuquant/kabuquant/internal/types"
	"github.com/kabuquant/kabuquant/pkg/errors"
)

// RuleParams describes the parameter set of one trading rule family.
// Implementations carry the indicator parameters and the rule's warm-up
// requirement.
type RuleParams interface {
	// Indicator returns the indicator family this rule is based on.
	Indicator() types.IndicatorType
	// MinCandles returns the smallest series length that can produce a
	// signal. Shorter (non-empty) series run to completion with zero events.
	MinCandles() int
	// Validate reports a DegenerateParameterError when the parameters
	// violate the family's ordering constraint.
	Validate() error
}

// SMACrossParams parameterizes the SMA golden-cross/dead-cross rule.
type SMACrossParams struct {
	ShortPeriod int `json:"short_period" yaml:"short_period"`
	LongPeriod  int `json:"long_period" yaml:"long_period"`
}

func (p SMACrossParams) Indicator() types.IndicatorType { return types.IndicatorTypeSMA }

func (p SMACrossParams) MinCandles() int { return p.LongPeriod + 1 }

func (p SMACrossParams) Validate() error {
	if p.ShortPeriod <= 0 || p.LongPeriod <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod,
			"sma periods must be positive, got short=%d long=%d", p.ShortPeriod, p.LongPeriod)
	}

	if p.ShortPeriod >= p.LongPeriod {
		return errors.NewDegenerateParameterError("sma short period must be smaller than long period")
	}

	return nil
}

// EMACrossParams parameterizes the EMA crossover rule.
type EMACrossParams struct {
	ShortPeriod int `json:"short_period" yaml:"short_period"`
	LongPeriod  int `json:"long_period" yaml:"long_period"`
}

func (p EMACrossParams) Indicator() types.IndicatorType { return types.IndicatorTypeEMA }

func (p EMACrossParams) MinCandles() int { return p.LongPeriod + 1 }

func (p EMACrossParams) Validate() error {
	if p.ShortPeriod <= 0 || p.LongPeriod <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod,
			"ema periods must be positive, got short=%d long=%d", p.ShortPeriod, p.LongPeriod)
	}

	if p.ShortPeriod >= p.LongPeriod {
		return errors.NewDegenerateParameterError("ema short period must be smaller than long period")
	}

	return nil
}

// BollingerParams parameterizes the Bollinger band-touch rule.
type BollingerParams struct {
	Period int     `json:"period" yaml:"period"`
	K      float64 `json:"k" yaml:"k"`
}

func (p BollingerParams) Indicator() types.IndicatorType { return types.IndicatorTypeBollingerBands }

func (p BollingerParams) MinCandles() int { return p.Period + 1 }

func (p BollingerParams) Validate() error {
	if p.Period <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod,
			"bollinger period must be positive, got %d", p.Period)
	}

	if p.K <= 0 {
		return errors.NewDegenerateParameterError("bollinger k must be positive")
	}

	return nil
}

// IchimokuParams parameterizes the Ichimoku cloud-breakout rule. The windows
// are the conventional 9/26/52 and are not tunable.
type IchimokuParams struct{}

func (p IchimokuParams) Indicator() types.IndicatorType { return types.IndicatorTypeIchimoku }

// MinCandles covers the 52-period span B window displaced 26 forward plus
// the 26-back lagging span needed on the previous candle.
func (p IchimokuParams) MinCandles() int { return 104 }

func (p IchimokuParams) Validate() error { return nil }

// RSIParams parameterizes the RSI threshold-recovery rule.
type RSIParams struct {
	Period        int     `json:"period" yaml:"period"`
	BuyThreshold  float64 `json:"buy_threshold" yaml:"buy_threshold"`
	SellThreshold float64 `json:"sell_threshold" yaml:"sell_threshold"`
}

func (p RSIParams) Indicator() types.IndicatorType { return types.IndicatorTypeRSI }

func (p RSIParams) MinCandles() int { return p.Period + 2 }

func (p RSIParams) Validate() error {
	if p.Period <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod,
			"rsi period must be positive, got %d", p.Period)
	}

	if p.BuyThreshold >= p.SellThreshold {
		return errors.NewDegenerateParameterError("rsi buy threshold must be below sell threshold")
	}

	return nil
}

// MACDParams parameterizes the MACD/signal crossover rule.
type MACDParams struct {
	FastPeriod   int `json:"fast_period" yaml:"fast_period"`
	SlowPeriod   int `json:"slow_period" yaml:"slow_period"`
	SignalPeriod int `json:"signal_period" yaml:"signal_period"`
}

func (p MACDParams) Indicator() types.IndicatorType { return types.IndicatorTypeMACD }

func (p MACDParams) MinCandles() int { return p.SlowPeriod + p.SignalPeriod }

func (p MACDParams) Validate() error {
	if p.FastPeriod <= 0 || p.SlowPeriod <= 0 || p.SignalPeriod <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod,
			"macd periods must be positive, got fast=%d slow=%d signal=%d",
			p.FastPeriod, p.SlowPeriod, p.SignalPeriod)
	}

	if p.FastPeriod >= p.SlowPeriod {
		return errors.NewDegenerateParameterError("macd fast period must be smaller than slow period")
	}

	return nil
}
