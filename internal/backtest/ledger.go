package backtest

import (
	"time"

	"github.com/google/uuid"
	"github.com/kabuquant/kabuquant/internal/types"
	"github.com/shopspring/decimal"
)

// Ledger tracks the FLAT/LONG position state of one backtest run and
// accumulates realized profit. Exactly one position may be open at a time:
// a buy while LONG and a sell while FLAT are rejected.
//
// Profit convention: realized profit is the additive sum of per-trade
// fractional returns (sellPrice - entryPrice) / entryPrice. An open
// position at series end contributes nothing.
type Ledger struct {
	symbol     string
	indicator  types.IndicatorType
	events     []types.SignalEvent
	holding    bool
	entryPrice float64
	profit     decimal.Decimal
}

// NewLedger creates an empty ledger in the FLAT state.
func NewLedger(symbol string, indicator types.IndicatorType) *Ledger {
	return &Ledger{
		symbol:     symbol,
		indicator:  indicator,
		events:     nil,
		holding:    false,
		entryPrice: 0,
		profit:     decimal.Zero,
	}
}

// CanBuy reports whether a buy transition is allowed.
func (l *Ledger) CanBuy() bool { return !l.holding }

// CanSell reports whether a sell transition is allowed.
func (l *Ledger) CanSell() bool { return l.holding }

// Buy records a buy event at the given candle close. Returns false when a
// position is already open (no pyramiding).
func (l *Ledger) Buy(t time.Time, price float64, reason string) bool {
	if !l.CanBuy() {
		return false
	}

	l.events = append(l.events, types.SignalEvent{
		ID:        uuid.New().String(),
		Time:      t,
		Symbol:    l.symbol,
		Side:      types.SideBuy,
		Price:     price,
		Indicator: l.indicator,
		Reason:    reason,
	})
	l.holding = true
	l.entryPrice = price

	return true
}

// Sell records a sell event at the given candle close and realizes the
// trade's fractional return. Returns false when no position is open.
func (l *Ledger) Sell(t time.Time, price float64, reason string) bool {
	if !l.CanSell() {
		return false
	}

	l.events = append(l.events, types.SignalEvent{
		ID:        uuid.New().String(),
		Time:      t,
		Symbol:    l.symbol,
		Side:      types.SideSell,
		Price:     price,
		Indicator: l.indicator,
		Reason:    reason,
	})

	if l.entryPrice != 0 {
		entry := decimal.NewFromFloat(l.entryPrice)
		exit := decimal.NewFromFloat(price)
		l.profit = l.profit.Add(exit.Sub(entry).Div(entry))
	}

	l.holding = false
	l.entryPrice = 0

	return true
}

// Events returns the chronological signal events recorded so far.
func (l *Ledger) Events() []types.SignalEvent { return l.events }

// Holding reports whether a position is open.
func (l *Ledger) Holding() bool { return l.holding }

// EntryPrice returns the open position's entry price, or 0 when FLAT.
func (l *Ledger) EntryPrice() float64 { return l.entryPrice }

// Profit returns the accumulated sum of fractional returns.
func (l *Ledger) Profit() float64 {
	profit, _ := l.profit.Float64()

	return profit
}

// Performance returns the realized profit as a percentage.
func (l *Ledger) Performance() float64 {
	performance, _ := l.profit.Mul(decimal.NewFromInt(100)).Float64()

	return performance
}
