package types

import "time"

// Side is the direction of a signal event.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// SignalEvent is a recorded buy or sell decision produced by the signal
// engine. Events are ordered chronologically within one backtest run.
type SignalEvent struct {
	// ID uniquely identifies the event.
	ID string `json:"id" yaml:"id"`
	// Time is the time of the candle that triggered the event.
	Time time.Time `json:"time" yaml:"time"`
	// Symbol is the instrument the event applies to.
	Symbol string `json:"symbol" yaml:"symbol"`
	// Side is buy or sell.
	Side Side `json:"side" yaml:"side"`
	// Price is the close of the triggering candle.
	Price float64 `json:"price" yaml:"price"`
	// Indicator is the indicator family that generated the event.
	Indicator IndicatorType `json:"indicator" yaml:"indicator"`
	// Reason describes the triggering condition.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}
