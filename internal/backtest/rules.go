package backtest

import (
	"math"

	"github.com/kabuquant/kabuquant/internal/indicator"
	"github.com/kabuquant/kabuquant/internal/types"
)

const stopLimitReason = "stop limit"

// runSMACross trades the golden cross / dead cross of two simple moving
// averages: buy when the short average crosses above the long one, sell on
// the opposite cross.
func (e *Engine) runSMACross(ledger *Ledger, candles []types.Candle, p SMACrossParams, stop stopRule) {
	closes := types.Closes(candles)
	short := indicator.SMASeries(closes, p.ShortPeriod)
	long := indicator.SMASeries(closes, p.LongPeriod)

	for i := 1; i < len(candles); i++ {
		if stop.shouldExit(ledger, candles[i].Close) {
			ledger.Sell(candles[i].Time, candles[i].Close, stopLimitReason)

			continue
		}

		if math.IsNaN(short[i-1]) || math.IsNaN(long[i-1]) || math.IsNaN(short[i]) || math.IsNaN(long[i]) {
			continue
		}

		if short[i-1] <= long[i-1] && short[i] > long[i] {
			ledger.Buy(candles[i].Time, candles[i].Close, "sma golden cross")
		}

		if short[i-1] >= long[i-1] && short[i] < long[i] {
			ledger.Sell(candles[i].Time, candles[i].Close, "sma dead cross")
		}
	}
}

// runEMACross trades the crossover of two exponential moving averages.
func (e *Engine) runEMACross(ledger *Ledger, candles []types.Candle, p EMACrossParams, stop stopRule) {
	closes := types.Closes(candles)
	short := indicator.EMASeries(closes, p.ShortPeriod)
	long := indicator.EMASeries(closes, p.LongPeriod)

	for i := 1; i < len(candles); i++ {
		if stop.shouldExit(ledger, candles[i].Close) {
			ledger.Sell(candles[i].Time, candles[i].Close, stopLimitReason)

			continue
		}

		if math.IsNaN(short[i-1]) || math.IsNaN(long[i-1]) || math.IsNaN(short[i]) || math.IsNaN(long[i]) {
			continue
		}

		if short[i-1] < long[i-1] && short[i] >= long[i] {
			ledger.Buy(candles[i].Time, candles[i].Close, "ema golden cross")
		}

		if short[i-1] > long[i-1] && short[i] <= long[i] {
			ledger.Sell(candles[i].Time, candles[i].Close, "ema dead cross")
		}
	}
}

// runBollinger buys when the close recovers up through the lower band and
// sells when it falls back through the upper band.
func (e *Engine) runBollinger(ledger *Ledger, candles []types.Candle, p BollingerParams, stop stopRule) {
	closes := types.Closes(candles)
	_, upper, lower := indicator.BollingerSeries(closes, p.Period, p.K)

	for i := 1; i < len(candles); i++ {
		if stop.shouldExit(ledger, candles[i].Close) {
			ledger.Sell(candles[i].Time, candles[i].Close, stopLimitReason)

			continue
		}

		if math.IsNaN(upper[i-1]) || math.IsNaN(lower[i-1]) || math.IsNaN(upper[i]) || math.IsNaN(lower[i]) {
			continue
		}

		if lower[i-1] > candles[i-1].Close && lower[i] <= candles[i].Close {
			ledger.Buy(candles[i].Time, candles[i].Close, "close recovered above lower band")
		}

		if upper[i-1] < candles[i-1].Close && upper[i] >= candles[i].Close {
			ledger.Sell(candles[i].Time, candles[i].Close, "close fell below upper band")
		}
	}
}

// runIchimoku buys when the lagging span breaks above the highs while price
// sits above the cloud with a bullish tenkan/kijun alignment, and sells on
// the mirrored condition.
func (e *Engine) runIchimoku(ledger *Ledger, candles []types.Candle, stop stopRule) {
	tenkan, kijun, senkouA, senkouB, chikou := indicator.IchimokuSeries(
		types.Highs(candles), types.Lows(candles), types.Closes(candles))

	for i := 1; i < len(candles); i++ {
		if stop.shouldExit(ledger, candles[i].Close) {
			ledger.Sell(candles[i].Time, candles[i].Close, stopLimitReason)

			continue
		}

		if math.IsNaN(chikou[i-1]) || math.IsNaN(chikou[i]) ||
			math.IsNaN(senkouA[i]) || math.IsNaN(senkouB[i]) ||
			math.IsNaN(tenkan[i]) || math.IsNaN(kijun[i]) {
			continue
		}

		if chikou[i-1] < candles[i-1].High && chikou[i] >= candles[i].High &&
			senkouA[i] < candles[i].Low && senkouB[i] < candles[i].Low &&
			tenkan[i] > kijun[i] {
			ledger.Buy(candles[i].Time, candles[i].Close, "bullish cloud breakout")
		}

		if chikou[i-1] > candles[i-1].Low && chikou[i] <= candles[i].Low &&
			senkouA[i] > candles[i].High && senkouB[i] > candles[i].High &&
			tenkan[i] < kijun[i] {
			ledger.Sell(candles[i].Time, candles[i].Close, "bearish cloud breakdown")
		}
	}
}

// runRSI buys when the RSI recovers up through the buy threshold and sells
// when it falls back through the sell threshold.
func (e *Engine) runRSI(ledger *Ledger, candles []types.Candle, p RSIParams, stop stopRule) {
	values := indicator.RSISeries(types.Closes(candles), p.Period)

	for i := 1; i < len(candles); i++ {
		if stop.shouldExit(ledger, candles[i].Close) {
			ledger.Sell(candles[i].Time, candles[i].Close, stopLimitReason)

			continue
		}

		if math.IsNaN(values[i-1]) || math.IsNaN(values[i]) {
			continue
		}

		// Saturated readings carry no directional information.
		if values[i-1] == 0 || values[i-1] == 100 {
			continue
		}

		if values[i-1] < p.BuyThreshold && values[i] >= p.BuyThreshold {
			ledger.Buy(candles[i].Time, candles[i].Close, "rsi recovered above buy threshold")
		}

		if values[i-1] > p.SellThreshold && values[i] <= p.SellThreshold {
			ledger.Sell(candles[i].Time, candles[i].Close, "rsi fell below sell threshold")
		}
	}
}

// runMACD trades MACD/signal crossovers, taking longs only while both lines
// are below zero and exits only while both are above zero.
func (e *Engine) runMACD(ledger *Ledger, candles []types.Candle, p MACDParams, stop stopRule) {
	macd, signal, _ := indicator.MACDSeries(types.Closes(candles), p.FastPeriod, p.SlowPeriod, p.SignalPeriod)

	for i := 1; i < len(candles); i++ {
		if stop.shouldExit(ledger, candles[i].Close) {
			ledger.Sell(candles[i].Time, candles[i].Close, stopLimitReason)

			continue
		}

		if math.IsNaN(macd[i-1]) || math.IsNaN(signal[i-1]) || math.IsNaN(macd[i]) || math.IsNaN(signal[i]) {
			continue
		}

		if macd[i] < 0 && signal[i] < 0 && macd[i-1] < signal[i-1] && macd[i] >= signal[i] {
			ledger.Buy(candles[i].Time, candles[i].Close, "macd crossed above signal below zero")
		}

		if macd[i] > 0 && signal[i] > 0 && macd[i-1] > signal[i-1] && macd[i] <= signal[i] {
			ledger.Sell(candles[i].Time, candles[i].Close, "macd crossed below signal above zero")
		}
	}
}
