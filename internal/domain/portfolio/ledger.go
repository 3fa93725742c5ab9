// Package portfolio implements the position/cash ledger: open/close
// semantics (including reduce and reverse), NAV accounting, and the
// read-only status views the orchestrator exposes.
package portfolio

import (
	"github.com/sawpanic/tradingcore/internal/domain/core"
)

// Ledger is a book of open positions plus cash. Invariant: NAV equals
// cash plus the sum of every position's market value.
type Ledger struct {
	cash      float64
	positions map[string]*core.Position

	navHistory  []float64
	peakNAV     float64
}

// New constructs a Ledger starting with startCash and nothing open.
func New(startCash float64) *Ledger {
	return &Ledger{
		cash:      startCash,
		positions: make(map[string]*core.Position),
		peakNAV:   startCash,
	}
}

// Cash returns current cash.
func (l *Ledger) Cash() float64 { return l.cash }

// Position returns the open position for symbol, if any.
func (l *Ledger) Position(symbol string) (core.Position, bool) {
	p, ok := l.positions[symbol]
	if !ok {
		return core.Position{}, false
	}
	return *p, true
}

// NAV returns cash plus the market value of every open position at its
// last-known price.
func (l *Ledger) NAV() float64 {
	nav := l.cash
	for _, p := range l.positions {
		nav += p.MarketValue()
	}
	return nav
}

// UpdatePrice updates the mark for an open position's unrealized P&L
// and NAV accounting, without touching cash.
func (l *Ledger) UpdatePrice(symbol string, price float64) {
	if p, ok := l.positions[symbol]; ok {
		p.CurrentPrice = price
	}
}

// OpenPosition applies open_position's five cases: create, same-
// direction add, partial close, full close, and close-then-reverse.
// Cash semantics: the single-add convention from Open Question 1 —
// reductions and reversals add quantity_closed*price (the closing
// notional) to cash, with realized P&L tracked and returned but never
// applied as a second cash adjustment.
func (l *Ledger) OpenPosition(symbol string, quantity, price float64, side core.OrderSide) float64 {
	existing, has := l.positions[symbol]
	if !has {
		l.createPosition(symbol, quantity, price, side)
		return 0
	}

	if existing.Side == side {
		newQty := existing.Quantity + quantity
		existing.AvgEntryPrice = (existing.Quantity*existing.AvgEntryPrice + quantity*price) / newQty
		existing.Quantity = newQty
		existing.CurrentPrice = price
		l.adjustCashForOpen(quantity, price, side)
		return 0
	}

	switch {
	case quantity < existing.Quantity:
		realized := quantity * (price - existing.AvgEntryPrice) * signOf(existing.Side)
		existing.Quantity -= quantity
		existing.CurrentPrice = price
		l.cash += quantity * price
		return realized

	case quantity == existing.Quantity:
		realized := quantity * (price - existing.AvgEntryPrice) * signOf(existing.Side)
		l.cash += quantity * price
		delete(l.positions, symbol)
		return realized

	default: // quantity > existing.Quantity: close old, open reversed remainder
		oldQty := existing.Quantity
		realized := oldQty * (price - existing.AvgEntryPrice) * signOf(existing.Side)
		l.cash += oldQty * price
		delete(l.positions, symbol)

		remaining := quantity - oldQty
		l.createPosition(symbol, remaining, price, side)
		return realized
	}
}

func (l *Ledger) createPosition(symbol string, quantity, price float64, side core.OrderSide) {
	l.positions[symbol] = &core.Position{
		Symbol:        symbol,
		Quantity:      quantity,
		AvgEntryPrice: price,
		CurrentPrice:  price,
		Side:          side,
	}
	l.adjustCashForOpen(quantity, price, side)
}

func (l *Ledger) adjustCashForOpen(quantity, price float64, side core.OrderSide) {
	if side == core.OrderSideBuy {
		l.cash -= quantity * price
	} else {
		l.cash += quantity * price
	}
}

func signOf(side core.OrderSide) float64 {
	if side == core.OrderSideBuy {
		return 1
	}
	return -1
}

// ClosePosition realizes on the full quantity of symbol's position and
// removes the entry, returning the realized P&L.
func (l *Ledger) ClosePosition(symbol string, price float64) float64 {
	p, ok := l.positions[symbol]
	if !ok {
		return 0
	}
	realized := p.Quantity * (price - p.AvgEntryPrice) * signOf(p.Side)
	l.cash += p.Quantity * price
	delete(l.positions, symbol)
	return realized
}

// RecordDailyPnL appends the current NAV to the ledger's own NAV
// history and advances its own (independently tracked) peak NAV.
func (l *Ledger) RecordDailyPnL() {
	nav := l.NAV()
	l.navHistory = append(l.navHistory, nav)
	if nav > l.peakNAV {
		l.peakNAV = nav
	}
}

// CalculateMaxDrawdown returns the largest peak-to-trough drawdown
// across the ledger's own recorded NAV history. Tracked independently
// of the Risk Manager's drawdown — each component owns its own state.
func (l *Ledger) CalculateMaxDrawdown() float64 {
	if len(l.navHistory) == 0 {
		return 0
	}
	peak := l.navHistory[0]
	maxDD := 0.0
	for _, nav := range l.navHistory {
		if nav > peak {
			peak = nav
		}
		dd := core.Drawdown(peak, nav)
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// GetPortfolioStats returns a flat snapshot for the status endpoint:
// NAV, cash, total/net exposure, unrealized P&L, and long/short counts.
func (l *Ledger) GetPortfolioStats() map[string]interface{} {
	var totalExposure, netExposure, unrealized float64
	var longCount, shortCount int
	for _, p := range l.positions {
		mv := p.MarketValue()
		totalExposure += absf(mv)
		if p.Side == core.OrderSideBuy {
			netExposure += mv
			longCount++
		} else {
			netExposure -= mv
			shortCount++
		}
		unrealized += p.UnrealizedPnL()
	}
	return map[string]interface{}{
		"nav":             l.NAV(),
		"cash":            l.cash,
		"total_exposure":  totalExposure,
		"net_exposure":    netExposure,
		"unrealized_pnl":  unrealized,
		"long_positions":  longCount,
		"short_positions": shortCount,
	}
}

// GetPositionsSummary returns a flat list of currently open positions.
func (l *Ledger) GetPositionsSummary() []core.Position {
	out := make([]core.Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, *p)
	}
	return out
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
