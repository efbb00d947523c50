package optimizer

import (
	"github.com/kabuquant/kabuquant/internal/backtest"
)

// IntRange is an inclusive integer parameter range swept with the given
// step. A zero Step is treated as 1.
type IntRange struct {
	Min  int `json:"min" yaml:"min"`
	Max  int `json:"max" yaml:"max"`
	Step int `json:"step,omitempty" yaml:"step,omitempty"`
}

// Values enumerates the range in ascending order.
func (r IntRange) Values() []int {
	step := r.Step
	if step <= 0 {
		step = 1
	}

	var values []int
	for v := r.Min; v <= r.Max; v += step {
		values = append(values, v)
	}

	return values
}

// FloatRange is an inclusive float parameter range swept with the given
// step. A zero Step is treated as 1. Values are generated by index to avoid
// accumulating floating point error across steps.
type FloatRange struct {
	Min  float64 `json:"min" yaml:"min"`
	Max  float64 `json:"max" yaml:"max"`
	Step float64 `json:"step,omitempty" yaml:"step,omitempty"`
}

// Values enumerates the range in ascending order.
func (r FloatRange) Values() []float64 {
	step := r.Step
	if step <= 0 {
		step = 1
	}

	var values []float64
	for i := 0; ; i++ {
		v := r.Min + float64(i)*step
		if v > r.Max+step/2 {
			break
		}

		values = append(values, v)
	}

	return values
}

// SMAGrid declares the SMA crossover parameter space.
type SMAGrid struct {
	Short IntRange `json:"short" yaml:"short"`
	Long  IntRange `json:"long" yaml:"long"`
}

// Combos enumerates the grid in lexicographic order.
func (g SMAGrid) Combos() []backtest.RuleParams {
	var combos []backtest.RuleParams

	for _, short := range g.Short.Values() {
		for _, long := range g.Long.Values() {
			combos = append(combos, backtest.SMACrossParams{ShortPeriod: short, LongPeriod: long})
		}
	}

	return combos
}

// EMAGrid declares the EMA crossover parameter space.
type EMAGrid struct {
	Short IntRange `json:"short" yaml:"short"`
	Long  IntRange `json:"long" yaml:"long"`
}

// Combos enumerates the grid in lexicographic order.
func (g EMAGrid) Combos() []backtest.RuleParams {
	var combos []backtest.RuleParams

	for _, short := range g.Short.Values() {
		for _, long := range g.Long.Values() {
			combos = append(combos, backtest.EMACrossParams{ShortPeriod: short, LongPeriod: long})
		}
	}

	return combos
}

// BollingerGrid declares the Bollinger band parameter space.
type BollingerGrid struct {
	Period IntRange   `json:"period" yaml:"period"`
	K      FloatRange `json:"k" yaml:"k"`
}

// Combos enumerates the grid in lexicographic order.
func (g BollingerGrid) Combos() []backtest.RuleParams {
	var combos []backtest.RuleParams

	for _, period := range g.Period.Values() {
		for _, k := range g.K.Values() {
			combos = append(combos, backtest.BollingerParams{Period: period, K: k})
		}
	}

	return combos
}

// RSIGrid declares the RSI parameter space.
type RSIGrid struct {
	Period IntRange   `json:"period" yaml:"period"`
	Buy    FloatRange `json:"buy" yaml:"buy"`
	Sell   FloatRange `json:"sell" yaml:"sell"`
}

// Combos enumerates the grid in lexicographic order.
func (g RSIGrid) Combos() []backtest.RuleParams {
	var combos []backtest.RuleParams

	for _, period := range g.Period.Values() {
		for _, buy := range g.Buy.Values() {
			for _, sell := range g.Sell.Values() {
				combos = append(combos, backtest.RSIParams{Period: period, BuyThreshold: buy, SellThreshold: sell})
			}
		}
	}

	return combos
}

// MACDGrid declares the MACD parameter space.
type MACDGrid struct {
	Fast   IntRange `json:"fast" yaml:"fast"`
	Slow   IntRange `json:"slow" yaml:"slow"`
	Signal IntRange `json:"signal" yaml:"signal"`
}

// Combos enumerates the grid in lexicographic order.
func (g MACDGrid) Combos() []backtest.RuleParams {
	var combos []backtest.RuleParams

	for _, fast := range g.Fast.Values() {
		for _, slow := range g.Slow.Values() {
			for _, signal := range g.Signal.Values() {
				combos = append(combos, backtest.MACDParams{FastPeriod: fast, SlowPeriod: slow, SignalPeriod: signal})
			}
		}
	}

	return combos
}

// GridSet bundles one grid per indicator family. Ichimoku has no tunable
// parameters and therefore no grid.
type GridSet struct {
	SMA       SMAGrid       `json:"sma" yaml:"sma"`
	EMA       EMAGrid       `json:"ema" yaml:"ema"`
	Bollinger BollingerGrid `json:"bollinger" yaml:"bollinger"`
	RSI       RSIGrid       `json:"rsi" yaml:"rsi"`
	MACD      MACDGrid      `json:"macd" yaml:"macd"`
}

// DefaultGridSet returns the reference parameter grids: low tens to low
// hundreds of combinations per two-parameter family, a few thousand for
// the three-parameter families.
func DefaultGridSet() GridSet {
	return GridSet{
		SMA: SMAGrid{
			Short: IntRange{Min: 5, Max: 15, Step: 1},
			Long:  IntRange{Min: 12, Max: 30, Step: 1},
		},
		EMA: EMAGrid{
			Short: IntRange{Min: 5, Max: 15, Step: 1},
			Long:  IntRange{Min: 12, Max: 25, Step: 1},
		},
		Bollinger: BollingerGrid{
			Period: IntRange{Min: 10, Max: 20, Step: 1},
			K:      FloatRange{Min: 1.9, Max: 2.1, Step: 0.1},
		},
		RSI: RSIGrid{
			Period: IntRange{Min: 5, Max: 20, Step: 1},
			Buy:    FloatRange{Min: 20, Max: 35, Step: 1},
			Sell:   FloatRange{Min: 65, Max: 80, Step: 1},
		},
		MACD: MACDGrid{
			Fast:   IntRange{Min: 10, Max: 19, Step: 1},
			Slow:   IntRange{Min: 20, Max: 30, Step: 1},
			Signal: IntRange{Min: 5, Max: 15, Step: 1},
		},
	}
}
