package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/tradingcore/internal/domain/core"
)

func TestPortfolioRoundTripScenario(t *testing.T) {
	l := New(100000)

	l.OpenPosition("BTC", 1.0, 50000, core.OrderSideBuy)
	assert.InDelta(t, 50000, l.Cash(), 1e-9)

	l.UpdatePrice("BTC", 55000)
	pos, ok := l.Position("BTC")
	assert.True(t, ok)
	assert.InDelta(t, 5000, pos.UnrealizedPnL(), 1e-9)
	assert.InDelta(t, 105000, l.NAV(), 1e-9)

	realized := l.ClosePosition("BTC", 55000)
	assert.InDelta(t, 5000, realized, 1e-9)
	assert.InDelta(t, 105000, l.Cash(), 1e-9)
	_, stillOpen := l.Position("BTC")
	assert.False(t, stillOpen)
}

func TestOpenThenImmediateCloseAtSamePriceIsNoOp(t *testing.T) {
	l := New(100000)
	l.OpenPosition("ETH", 2.0, 3000, core.OrderSideBuy)
	realized := l.ClosePosition("ETH", 3000)
	assert.InDelta(t, 0, realized, 1e-9)
	assert.InDelta(t, 100000, l.Cash(), 1e-9)
}

func TestNAVInvariantHoldsThroughOpenAndPriceUpdate(t *testing.T) {
	l := New(100000)
	l.OpenPosition("BTC", 1.0, 50000, core.OrderSideBuy)
	l.UpdatePrice("BTC", 52000)

	var sumMV float64
	for _, p := range l.GetPositionsSummary() {
		sumMV += p.MarketValue()
	}
	assert.InDelta(t, l.NAV(), l.Cash()+sumMV, 1e-9)
}

func TestReverseTwiceRestoresOriginalSideAndQuantity(t *testing.T) {
	l := New(100000)
	l.OpenPosition("BTC", 1.0, 100, core.OrderSideBuy)
	// Reverse: sell 2 (1 closes, 1 opens short)
	l.OpenPosition("BTC", 2.0, 100, core.OrderSideSell)
	pos, _ := l.Position("BTC")
	assert.Equal(t, core.OrderSideSell, pos.Side)
	assert.InDelta(t, 1.0, pos.Quantity, 1e-9)

	// Reverse again: buy 2 (1 closes short, 1 opens long)
	l.OpenPosition("BTC", 2.0, 100, core.OrderSideBuy)
	pos2, _ := l.Position("BTC")
	assert.Equal(t, core.OrderSideBuy, pos2.Side)
	assert.InDelta(t, 1.0, pos2.Quantity, 1e-9)
}

func TestSameDirectionAddAveragesEntryPrice(t *testing.T) {
	l := New(1000000)
	l.OpenPosition("BTC", 1.0, 100, core.OrderSideBuy)
	l.OpenPosition("BTC", 1.0, 200, core.OrderSideBuy)
	pos, _ := l.Position("BTC")
	assert.InDelta(t, 150, pos.AvgEntryPrice, 1e-9)
	assert.InDelta(t, 2.0, pos.Quantity, 1e-9)
}

func TestPartialCloseReducesQuantityAndRealizes(t *testing.T) {
	l := New(100000)
	l.OpenPosition("BTC", 2.0, 100, core.OrderSideBuy)
	realized := l.OpenPosition("BTC", 1.0, 110, core.OrderSideSell)
	assert.InDelta(t, 10, realized, 1e-9)
	pos, ok := l.Position("BTC")
	assert.True(t, ok)
	assert.InDelta(t, 1.0, pos.Quantity, 1e-9)
}

func TestMaxDrawdownTracksOwnNAVHistory(t *testing.T) {
	l := New(100000)
	l.RecordDailyPnL()
	l.OpenPosition("BTC", 1.0, 100, core.OrderSideBuy)
	l.UpdatePrice("BTC", 50)
	l.RecordDailyPnL()
	dd := l.CalculateMaxDrawdown()
	assert.Greater(t, dd, 0.0)
}
