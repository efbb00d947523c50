package types

import "time"

// Tick is an immutable point observation from a streaming quote source.
type Tick struct {
	// Symbol is the instrument code, e.g. "1459" or "BTCUSDT".
	Symbol string
	// Timestamp is the observation time in unix seconds.
	Timestamp int64
	// Bid is the best bid price. Bid <= Ask is not required.
	Bid float64
	// Ask is the best ask price.
	Ask float64
	// Volume is the traded quantity attributed to this observation.
	// Zero volume ticks are tolerated.
	Volume int64
}

// MidPrice is the trade price used for candle aggregation.
func (t Tick) MidPrice() float64 {
	return (t.Bid + t.Ask) / 2
}

// Time converts the unix timestamp to a time.Time.
func (t Tick) Time() time.Time {
	return time.Unix(t.Timestamp, 0)
}

// TruncateTime maps the tick's timestamp to the start of its containing
// bucket under the given duration.
func (t Tick) TruncateTime(d Duration) (time.Time, error) {
	return d.Truncate(t.Time())
}
