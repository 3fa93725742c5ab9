package core

import "time"

// DecisionLog is an immutable record of one trading iteration.
type DecisionLog struct {
	Timestamp       time.Time
	Symbol          string
	Features        map[string]float64
	Signals         map[string]AlphaSignal
	Regime          Regime
	PositionBefore  float64
	PositionAfter   float64
	Order           *TradeOrder
}

// ToFlatMap serializes the log to a flat map suitable for append-only
// storage. Timestamps are ISO-8601.
func (d DecisionLog) ToFlatMap() map[string]any {
	out := map[string]any{
		"timestamp":       d.Timestamp.Format(time.RFC3339),
		"symbol":          d.Symbol,
		"regime":          string(d.Regime),
		"position_before": d.PositionBefore,
		"position_after":  d.PositionAfter,
	}
	signals := make(map[string]any, len(d.Signals))
	for name, sig := range d.Signals {
		signals[name] = map[string]any{
			"value":         sig.Value,
			"confidence":    sig.Confidence,
			"regime_filter": sig.RegimeFilter,
		}
	}
	out["signals"] = signals
	if d.Order != nil {
		out["order"] = map[string]any{
			"client_order_id": d.Order.ClientOrderID,
			"side":            string(d.Order.Side),
			"type":            string(d.Order.Type),
			"quantity":        d.Order.Quantity,
		}
	}
	return out
}

// DecisionLogCap is the maximum number of entries the orchestrator
// retains; on overflow the oldest entries are dropped and the most
// recent ones kept (insertion order preserved).
const DecisionLogCap = 10000
