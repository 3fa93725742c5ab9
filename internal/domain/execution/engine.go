// Package execution implements order creation, submission, slicing
// (TWAP/VWAP/Adaptive), and fill handling for the Execution Engine.
package execution

import (
	"math"
	"math/rand"
	"time"

	"github.com/sawpanic/tradingcore/internal/domain/core"
)

// Config bounds and tunes order creation and slicing.
type Config struct {
	MinOrderValue     float64
	MaxOrderValue     float64
	LargeOrderValue   float64
	TWAPMinutes       float64
	TWAPSlices        int
	TWAPRandomizePct  float64
	VWAPMinutes       float64
	VWAPSlices        int
	SlippageEta       float64
}

// DefaultConfig mirrors the reference defaults.
func DefaultConfig() Config {
	return Config{
		MinOrderValue:    10,
		MaxOrderValue:    1_000_000,
		LargeOrderValue:  50_000,
		TWAPMinutes:      60,
		TWAPSlices:       10,
		TWAPRandomizePct: 0.1,
		VWAPMinutes:      60,
		VWAPSlices:       10,
		SlippageEta:      0.1,
	}
}

// Fill is one execution against an order.
type Fill struct {
	Quantity float64
	Price    float64
	At       time.Time
}

// OrderState tracks a submitted order through its lifecycle, including
// the mid-price captured at submission (the reference price used to
// compute realized slippage on completion) and the fills received so
// far.
type OrderState struct {
	Order               core.TradeOrder
	Status              core.OrderStatus
	FilledQuantity      float64
	AvgFillPrice        float64
	Schedule            []ChildOrder
	SubmissionMidPrice  float64
	PredictedSlippageBps float64
	ActualSlippageBps   float64
}

// Engine creates, submits, and tracks orders and owns the slippage
// model shared across them.
type Engine struct {
	cfg      Config
	slippage *SlippageModel
	rng      *rand.Rand
}

// New constructs an Engine with cfg. rng drives TWAP timing/size
// jitter; pass a seeded source for reproducible tests.
func New(cfg Config, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Engine{cfg: cfg, slippage: NewSlippageModel(cfg.SlippageEta), rng: rng}
}

// CreateOrder implements create_order: compute the trade quantity
// needed to reach target from currentPosition, reject orders below the
// minimum notional, clamp orders above the maximum (preserving sign),
// and pick an order type by regime and size.
func (e *Engine) CreateOrder(symbol string, target core.PositionSize, currentPosition, currentPrice float64, regime core.Regime, now time.Time) (core.TradeOrder, bool) {
	tradeQty := target.NumUnits - currentPosition
	if tradeQty == 0 {
		return core.TradeOrder{}, false
	}

	notional := math.Abs(tradeQty) * currentPrice
	if notional < e.cfg.MinOrderValue {
		return core.TradeOrder{}, false
	}
	if notional > e.cfg.MaxOrderValue {
		maxQty := e.cfg.MaxOrderValue / currentPrice
		if tradeQty < 0 {
			tradeQty = -maxQty
		} else {
			tradeQty = maxQty
		}
	}

	side := core.OrderSideBuy
	if tradeQty < 0 {
		side = core.OrderSideSell
	}

	orderType := e.selectOrderType(math.Abs(tradeQty)*currentPrice, regime)

	order := core.NewTradeOrder(symbol, side, orderType, math.Abs(tradeQty), now)
	return order, true
}

// selectOrderType: large orders in NORMAL or LOW_VOLATILITY use TWAP
// (VWAP is never chosen here); HIGH_VOLATILITY uses LIMIT; everything
// else uses MARKET.
func (e *Engine) selectOrderType(notional float64, regime core.Regime) core.OrderType {
	large := notional >= e.cfg.LargeOrderValue
	switch {
	case large && (regime == core.RegimeNormal || regime == core.RegimeLowVolatility):
		return core.OrderTypeTWAP
	case regime == core.RegimeHighVolatility:
		return core.OrderTypeLimit
	default:
		return core.OrderTypeMarket
	}
}

// Submit estimates slippage, precomputes a child-order schedule for
// TWAP/VWAP orders, and transitions the order to submitted.
func (e *Engine) Submit(order core.TradeOrder, midPrice, dailyVolume, volatility, spreadBps float64) *OrderState {
	orderValue := order.Quantity * midPrice
	_, _, totalBps := e.slippage.EstimateCost(orderValue, dailyVolume, volatility, spreadBps)

	state := &OrderState{
		Order:                order,
		Status:               core.OrderStatusSubmitted,
		SubmissionMidPrice:   midPrice,
		PredictedSlippageBps: totalBps,
	}

	switch order.Type {
	case core.OrderTypeTWAP:
		state.Schedule = BuildTWAPSchedule(order.Quantity, e.cfg.TWAPMinutes, e.cfg.TWAPSlices, e.cfg.TWAPRandomizePct, e.rng)
	case core.OrderTypeVWAP:
		profile := DefaultVolumeProfile(e.cfg.VWAPSlices)
		state.Schedule = BuildVWAPSchedule(order.Quantity, e.cfg.VWAPMinutes, profile)
	}

	return state
}

// ApplyFill folds a new fill into the order's running VWAP fill price
// and filled quantity, transitioning status to partial or filled.
func (s *OrderState) ApplyFill(fill Fill) {
	qPrev, pPrev := s.FilledQuantity, s.AvgFillPrice
	qNew := qPrev + fill.Quantity
	if qNew > 0 {
		s.AvgFillPrice = (qPrev*pPrev + fill.Quantity*fill.Price) / qNew
	}
	s.FilledQuantity = qNew

	if s.FilledQuantity >= s.Order.Quantity {
		s.Status = core.OrderStatusFilled
	} else {
		s.Status = core.OrderStatusPartial
	}
}

// Cancel transitions a submitted/partial order to cancelled. It is a
// no-op on an order already in a terminal state.
func (s *OrderState) Cancel() bool {
	switch s.Status {
	case core.OrderStatusSubmitted, core.OrderStatusPartial:
		s.Status = core.OrderStatusCancelled
		return true
	default:
		return false
	}
}

// Complete records realized slippage against the submission mid-price
// and feeds both the predicted and actual costs back into the shared
// slippage model for calibration.
func (e *Engine) Complete(state *OrderState) {
	side := string(state.Order.Side)
	state.ActualSlippageBps = SignedSlippageBps(side, state.SubmissionMidPrice, state.AvgFillPrice)
	e.slippage.RecordExecution(state.PredictedSlippageBps, state.ActualSlippageBps)
}

// Stats summarizes execution quality for the status endpoint.
type Stats struct {
	OrderCount    int
	StatusCounts  map[core.OrderStatus]int
	MeanSlippage  float64
	FillRatio     float64
}

// GetStatistics aggregates order count by status, mean actual slippage,
// and overall fill ratio across the given states.
func GetStatistics(states []*OrderState) Stats {
	stats := Stats{StatusCounts: make(map[core.OrderStatus]int)}
	var slippageSum, slippageN float64
	var totalQty, filledQty float64
	for _, s := range states {
		stats.OrderCount++
		stats.StatusCounts[s.Status]++
		totalQty += s.Order.Quantity
		filledQty += s.FilledQuantity
		if s.Status == core.OrderStatusFilled {
			slippageSum += s.ActualSlippageBps
			slippageN++
		}
	}
	if slippageN > 0 {
		stats.MeanSlippage = slippageSum / slippageN
	}
	if totalQty > 0 {
		stats.FillRatio = filledQty / totalQty
	}
	return stats
}
