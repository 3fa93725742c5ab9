package trading

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/tradingcore/internal/domain/alpha"
	"github.com/sawpanic/tradingcore/internal/domain/core"
)

func defaultModels() map[string]alpha.Model {
	return map[string]alpha.Model{
		"momentum":            alpha.NewMomentum(alpha.DefaultMomentumConfig()),
		"mean_reversion":       alpha.NewMeanReversion(alpha.DefaultMeanReversionConfig()),
		"volatility_breakout": alpha.NewVolatilityBreakout(alpha.DefaultVolatilityBreakoutConfig()),
	}
}

func trendingBars(symbol string, n int, start time.Time) []core.MarketData {
	bars := make([]core.MarketData, n)
	price := 100.0
	for i := 0; i < n; i++ {
		price *= 1.003
		bars[i] = core.MarketData{
			Symbol:    symbol,
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Open:      price * 0.999,
			High:      price * 1.002,
			Low:       price * 0.998,
			Close:     price,
			Volume:    1000 + float64(i),
		}
	}
	return bars
}

func TestTradingIterationRequires50Bars(t *testing.T) {
	ts := New(DefaultConfig(), defaultModels(), rand.New(rand.NewSource(1)))
	now := time.Now()
	for _, bar := range trendingBars("BTC", 10, now.Add(-10*time.Minute)) {
		ts.UpdateBar(bar)
	}

	entry, err := ts.TradingIteration(context.Background(), "BTC", now, true)
	assert.NoError(t, err)
	assert.Equal(t, core.ReasonInsufficientData, entry.Signals["ensemble"].RegimeFilter)
}

func TestTradingIterationGeneratesDecisionLogOnTrendingMarket(t *testing.T) {
	ts := New(DefaultConfig(), defaultModels(), rand.New(rand.NewSource(2)))
	start := time.Now().Add(-200 * time.Minute)
	bars := trendingBars("BTC", 200, start)
	for _, bar := range bars {
		ts.UpdateBar(bar)
	}
	ts.SetSector("BTC", "crypto")

	now := bars[len(bars)-1].Timestamp.Add(time.Minute)
	entry, err := ts.TradingIteration(context.Background(), "BTC", now, true)
	assert.NoError(t, err)
	assert.Equal(t, "BTC", entry.Symbol)
	assert.Contains(t, entry.Signals, "ensemble")
	assert.LessOrEqual(t, math.Abs(entry.Signals["ensemble"].Value), 1.0)
}

func TestTradingIterationRespectsMinTradeIntervalUnlessForced(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinTradeIntervalSeconds = 3600
	ts := New(cfg, defaultModels(), rand.New(rand.NewSource(3)))
	start := time.Now().Add(-200 * time.Minute)
	for _, bar := range trendingBars("BTC", 200, start) {
		ts.UpdateBar(bar)
	}

	now := time.Now()
	ts.lastTradeTime["BTC"] = now
	entry, err := ts.TradingIteration(context.Background(), "BTC", now.Add(time.Second), false)
	assert.NoError(t, err)
	assert.Equal(t, core.DecisionLog{}, entry)
}

func TestTradingIterationAbortsOnCancelledContext(t *testing.T) {
	ts := New(DefaultConfig(), defaultModels(), rand.New(rand.NewSource(4)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ts.TradingIteration(ctx, "BTC", time.Now(), true)
	assert.Error(t, err)
}

func TestDecisionLogBoundedAt10000(t *testing.T) {
	ts := New(DefaultConfig(), defaultModels(), rand.New(rand.NewSource(5)))
	for i := 0; i < core.DecisionLogCap+50; i++ {
		ts.record(core.DecisionLog{Symbol: "BTC"})
	}
	assert.Len(t, ts.decisionLog, core.DecisionLogCap)
}

func TestRecordFillUnknownOrderIsIgnored(t *testing.T) {
	ts := New(DefaultConfig(), defaultModels(), rand.New(rand.NewSource(6)))
	ts.RecordFill("does-not-exist", "BTC", core.OrderSideBuy, 1, 100, time.Now())
	_, ok := ts.ledger.Position("BTC")
	assert.False(t, ok)
}

func TestGetStatusAssemblesSnapshot(t *testing.T) {
	ts := New(DefaultConfig(), defaultModels(), rand.New(rand.NewSource(7)))
	status := ts.GetStatus()
	assert.NotNil(t, status.PortfolioStats)
	assert.NotNil(t, status.RiskSummary)
	assert.Equal(t, 0, status.DecisionsLogged)
}
