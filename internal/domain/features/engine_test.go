package features

import (
	"math"
	"testing"
	"time"

	"github.com/sawpanic/tradingcore/internal/domain/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syntheticBars(n int, drift float64) []core.MarketData {
	bars := make([]core.MarketData, n)
	price := 100.0
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		price *= math.Exp(drift)
		bars[i] = core.MarketData{
			Symbol:    "BTC-USD",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Open:      price,
			High:      price * 1.001,
			Low:       price * 0.999,
			Close:     price,
			Volume:    1000,
		}
	}
	return bars
}

func TestEngineEmptyUntilTwoBars(t *testing.T) {
	e := NewEngine(0)
	fs := e.GetFeatures("BTC-USD", time.Now())
	assert.Empty(t, fs.Features)

	e.Update(syntheticBars(1, 0.001)[0])
	fs = e.GetFeatures("BTC-USD", time.Now())
	assert.Empty(t, fs.Features)
}

func TestEngineTrimsToMaxHistory(t *testing.T) {
	e := NewEngine(50)
	for _, b := range syntheticBars(100, 0.0005) {
		e.Update(b)
	}
	require.Len(t, e.GetOHLCV("BTC-USD"), 50)
}

func TestEngineCacheInvalidatedOnUpdate(t *testing.T) {
	e := NewEngine(0)
	for _, b := range syntheticBars(60, 0.001) {
		e.Update(b)
	}
	first := e.GetFeatures("BTC-USD", time.Now())
	require.NotEmpty(t, first.Features)

	bars := syntheticBars(61, 0.001)
	e.Update(bars[60])
	second := e.GetFeatures("BTC-USD", time.Now())
	assert.NotEqual(t, first.Features["log_return_1"], second.Features["log_return_1"])
}

func TestMomentumTrendingUpwardSeries(t *testing.T) {
	bars := syntheticBars(200, 0.002)
	e := NewEngine(0)
	for _, b := range bars {
		e.Update(b)
	}
	fs := e.GetFeatures("BTC-USD", time.Now())
	assert.Greater(t, fs.Get("momentum_20", 0), 0.0)
}

func TestPointInTimeNoLookAhead(t *testing.T) {
	e := NewEngine(0)
	bars := syntheticBars(60, 0.001)
	for _, b := range bars[:55] {
		e.Update(b)
	}
	before := e.GetFeatures("BTC-USD", time.Now())

	for _, b := range bars[55:] {
		e.Update(b)
	}
	after := e.GetFeatures("BTC-USD", time.Now())

	assert.NotEqual(t, before.Features["log_return_1"], after.Features["log_return_1"])
}
