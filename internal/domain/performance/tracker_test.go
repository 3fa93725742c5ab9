package performance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSharpeZeroOnFlatReturns(t *testing.T) {
	tr := New()
	for i := 0; i < 30; i++ {
		tr.RecordDailyReturn(0.001)
	}
	assert.Equal(t, 0.0, tr.Sharpe())
}

func TestSharpePositiveOnTrendingReturns(t *testing.T) {
	tr := New()
	vals := []float64{0.01, -0.005, 0.02, 0.01, -0.003, 0.015, 0.008, -0.002, 0.012, 0.005}
	for _, v := range vals {
		tr.RecordDailyReturn(v)
	}
	assert.Greater(t, tr.Sharpe(), 0.0)
}

func TestSortinoFallsBackToSharpeWithFewNegatives(t *testing.T) {
	tr := New()
	for i := 0; i < 20; i++ {
		tr.RecordDailyReturn(0.01)
	}
	tr.RecordDailyReturn(-0.001)
	assert.Equal(t, tr.Sharpe(), tr.Sortino())
}

func TestCalmarZeroBelowDrawdownFloor(t *testing.T) {
	tr := New()
	tr.RecordDailyReturn(0.01)
	tr.RecordNAV(100000)
	tr.RecordNAV(100001)
	assert.Equal(t, 0.0, tr.Calmar())
}

func TestWinRateAndProfitFactor(t *testing.T) {
	tr := New()
	tr.RecordTrade("momentum", 100)
	tr.RecordTrade("momentum", -50)
	tr.RecordTrade("momentum", 200)
	tr.RecordTrade("momentum", -100)

	assert.InDelta(t, 0.5, tr.WinRate(), 1e-9)
	assert.InDelta(t, 300.0/150.0, tr.ProfitFactor(), 1e-9)
}

func TestGetModelPerformanceAggregatesByModel(t *testing.T) {
	tr := New()
	for i := 0; i < 12; i++ {
		pnl := -5.0
		if i%3 != 0 {
			pnl = 10.0
		}
		tr.RecordTrade("momentum", pnl)
	}
	perf := tr.GetModelPerformance("momentum")
	assert.Equal(t, 12, perf.TradeCount)
	assert.Greater(t, perf.WinRate, 0.5)
}

func TestEndOfDayResetsTodayCounters(t *testing.T) {
	tr := New()
	tr.RecordTrade("", 50)
	tr.EndOfDay()
	assert.Equal(t, 0, tr.todayTrades)
	assert.Equal(t, 0.0, tr.todayPnL)
}
