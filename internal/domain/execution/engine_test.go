package execution

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/tradingcore/internal/domain/core"
)

func TestTWAPScheduleScenario(t *testing.T) {
	schedule := BuildTWAPSchedule(1000, 60, 10, 0, nil)
	assert.Len(t, schedule, 10)

	var cumulative float64
	for i, c := range schedule {
		cumulative += c.Quantity
		assert.GreaterOrEqual(t, c.Quantity, 90.0)
		assert.LessOrEqual(t, c.Quantity, 110.0)
		assert.Equal(t, time.Duration(i)*360*time.Second, c.ScheduledOffset)
	}
	assert.InDelta(t, 1000, cumulative, 1e-9)
}

func TestTWAPScheduleWithRandomizationStaysBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	schedule := BuildTWAPSchedule(1000, 60, 10, 0.1, rng)
	var cumulative float64
	for _, c := range schedule {
		cumulative += c.Quantity
	}
	assert.InDelta(t, 1000, cumulative, 1e-9)
}

func TestVWAPProfileSumsToOne(t *testing.T) {
	profile := DefaultVolumeProfile(10)
	var sum float64
	for _, p := range profile {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestVWAPScheduleQuantitiesSumToTotal(t *testing.T) {
	profile := DefaultVolumeProfile(5)
	schedule := BuildVWAPSchedule(500, 60, profile)
	var sum float64
	for _, c := range schedule {
		sum += c.Quantity
	}
	assert.InDelta(t, 500, sum, 1e-9)
}

func TestCreateOrderRejectsBelowMinValue(t *testing.T) {
	e := New(DefaultConfig(), rand.New(rand.NewSource(1)))
	target := core.PositionSize{NumUnits: 0.0001}
	_, ok := e.CreateOrder("BTC", target, 0, 100, core.RegimeNormal, time.Now())
	assert.False(t, ok)
}

func TestCreateOrderClampsAboveMaxValue(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxOrderValue = 10000
	e := New(cfg, rand.New(rand.NewSource(1)))
	target := core.PositionSize{NumUnits: 1000}
	order, ok := e.CreateOrder("BTC", target, 0, 100, core.RegimeNormal, time.Now())
	assert.True(t, ok)
	assert.InDelta(t, 100, order.Quantity, 1e-6)
}

func TestCreateOrderPicksTypeByRegime(t *testing.T) {
	cfg := DefaultConfig()
	e := New(cfg, rand.New(rand.NewSource(1)))

	large := core.PositionSize{NumUnits: 1000}
	order, _ := e.CreateOrder("BTC", large, 0, 100, core.RegimeNormal, time.Now())
	assert.Equal(t, core.OrderTypeTWAP, order.Type)

	orderHV, _ := e.CreateOrder("BTC", large, 0, 100, core.RegimeHighVolatility, time.Now())
	assert.Equal(t, core.OrderTypeLimit, orderHV.Type)

	small := core.PositionSize{NumUnits: 1}
	orderSmall, _ := e.CreateOrder("BTC", small, 0, 100, core.RegimeNormal, time.Now())
	assert.Equal(t, core.OrderTypeMarket, orderSmall.Type)
}

func TestApplyFillComputesVWAPAndTransitionsStatus(t *testing.T) {
	order := core.NewTradeOrder("BTC", core.OrderSideBuy, core.OrderTypeMarket, 10, time.Now())
	state := &OrderState{Order: order, Status: core.OrderStatusSubmitted}

	state.ApplyFill(Fill{Quantity: 4, Price: 100})
	assert.Equal(t, core.OrderStatusPartial, state.Status)
	assert.InDelta(t, 100, state.AvgFillPrice, 1e-9)

	state.ApplyFill(Fill{Quantity: 6, Price: 110})
	assert.Equal(t, core.OrderStatusFilled, state.Status)
	assert.InDelta(t, 106, state.AvgFillPrice, 1e-9)
}

func TestFillQuantityNeverExceedsOrderQuantity(t *testing.T) {
	order := core.NewTradeOrder("BTC", core.OrderSideBuy, core.OrderTypeMarket, 10, time.Now())
	state := &OrderState{Order: order, Status: core.OrderStatusSubmitted}
	state.ApplyFill(Fill{Quantity: 10, Price: 100})
	assert.LessOrEqual(t, state.FilledQuantity, state.Order.Quantity)
}

func TestCancelIsNoOpOnTerminalOrder(t *testing.T) {
	order := core.NewTradeOrder("BTC", core.OrderSideBuy, core.OrderTypeMarket, 10, time.Now())
	state := &OrderState{Order: order, Status: core.OrderStatusFilled}
	assert.False(t, state.Cancel())
	assert.Equal(t, core.OrderStatusFilled, state.Status)
}

func TestSlippageCostIsNonNegative(t *testing.T) {
	s := NewSlippageModel(0.1)
	spreadCost, impact, total := s.EstimateCost(50000, 1_000_000, 0.02, 10)
	assert.GreaterOrEqual(t, spreadCost, 0.0)
	assert.GreaterOrEqual(t, impact, 0.0)
	assert.Equal(t, spreadCost+impact, total)
}

func TestSlippageCalibrationAdjustsEta(t *testing.T) {
	s := NewSlippageModel(0.1)
	for i := 0; i < 60; i++ {
		s.RecordExecution(10, 15)
	}
	assert.Greater(t, s.Eta(), 0.1)
}
