package types

import "time"

// Candle is the OHLCV summary of price activity within one fixed time
// bucket. Time is the bucket start, truncated to the duration's granularity.
type Candle struct {
	Time   time.Time `json:"time" yaml:"time" csv:"time"`
	Open   float64   `json:"open" yaml:"open" csv:"open"`
	High   float64   `json:"high" yaml:"high" csv:"high"`
	Low    float64   `json:"low" yaml:"low" csv:"low"`
	Close  float64   `json:"close" yaml:"close" csv:"close"`
	Volume int64     `json:"volume" yaml:"volume" csv:"volume"`
}

// NewCandle creates the candle for the first tick observed inside a bucket.
// All four prices start at the trade price.
func NewCandle(bucketTime time.Time, price float64, volume int64) Candle {
	return Candle{
		Time:   bucketTime,
		Open:   price,
		High:   price,
		Low:    price,
		Close:  price,
		Volume: volume,
	}
}

// Apply folds a subsequent trade of the same bucket into the candle.
func (c *Candle) Apply(price float64, volume int64) {
	if price > c.High {
		c.High = price
	}

	if price < c.Low {
		c.Low = price
	}

	c.Close = price
	c.Volume += volume
}

// Closes extracts the close series from a candle series.
func Closes(candles []Candle) []float64 {
	values := make([]float64, len(candles))
	for i, c := range candles {
		values[i] = c.Close
	}

	return values
}

// Highs extracts the high series from a candle series.
func Highs(candles []Candle) []float64 {
	values := make([]float64, len(candles))
	for i, c := range candles {
		values[i] = c.High
	}

	return values
}

// Lows extracts the low series from a candle series.
func Lows(candles []Candle) []float64 {
	values := make([]float64, len(candles))
	for i, c := range candles {
		values[i] = c.Low
	}

	return values
}
