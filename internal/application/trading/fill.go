package trading

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/tradingcore/internal/domain/core"
	"github.com/sawpanic/tradingcore/internal/domain/execution"
)

// RecordFill applies a fill to a tracked order (by ClientOrderID) and
// runs the full on-fill feedback path: portfolio update first; for a
// closing leg, realized P&L flows to the Performance Tracker and Risk
// Manager, and the model most responsible for the position (max
// |value| in the decision log within the attribution window) receives
// a Thompson-sampling update via both the Model Selector and the
// Ensemble. An unknown order id is an execution anomaly: logged and
// ignored, with no state mutation.
func (ts *TradingSystem) RecordFill(orderID, symbol string, side core.OrderSide, quantity, price float64, now time.Time) {
	state, ok := ts.openOrders[orderID]
	if !ok {
		log.Warn().Str("order_id", orderID).Msg("fill for unknown order id")
		return
	}
	if state.Status != core.OrderStatusSubmitted && state.Status != core.OrderStatusPartial {
		log.Warn().Str("order_id", orderID).Str("status", string(state.Status)).Msg("fill for non-open order")
		return
	}

	state.ApplyFill(execution.Fill{Quantity: quantity, Price: price, At: now})

	realized := ts.ledger.OpenPosition(symbol, quantity, price, side)
	ts.ledger.UpdatePrice(symbol, price)

	if realized != 0 {
		modelName := ts.mostResponsibleModel(symbol, now)
		ts.tracker.RecordTrade(modelName, realized)
		ts.riskManager.UpdatePnL(realized)
		if modelName != "" {
			ts.riskManager.RecordStrategyTrade(modelName, realized)
			ts.selector.RecordOutcome(modelName, realized, realized > 0, now)
			ts.ensemble.RecordModelPerformance(modelName, realized)
		}
	}

	if state.Status == core.OrderStatusFilled || state.Status == core.OrderStatusCancelled {
		ts.execEngine.Complete(state)
		delete(ts.openOrders, orderID)
	}
}

// CancelOrder cancels a tracked open order. No-op (returns false) if
// the order is unknown or already terminal.
func (ts *TradingSystem) CancelOrder(orderID string) bool {
	state, ok := ts.openOrders[orderID]
	if !ok {
		return false
	}
	cancelled := state.Cancel()
	if cancelled {
		ts.execEngine.Complete(state)
		delete(ts.openOrders, orderID)
	}
	return cancelled
}

// mostResponsibleModel scans the decision log in reverse for entries
// on symbol within the attribution window of now, returning the
// non-ensemble model name with the largest |signal value| seen.
func (ts *TradingSystem) mostResponsibleModel(symbol string, now time.Time) string {
	var bestName string
	var bestAbs float64

	for i := len(ts.decisionLog) - 1; i >= 0; i-- {
		entry := ts.decisionLog[i]
		if now.Sub(entry.Timestamp) > fillAttributionWindow {
			break
		}
		if entry.Symbol != symbol {
			continue
		}
		for name, sig := range entry.Signals {
			if name == "ensemble" {
				continue
			}
			abs := sig.Value
			if abs < 0 {
				abs = -abs
			}
			if abs > bestAbs {
				bestAbs = abs
				bestName = name
			}
		}
	}
	return bestName
}
