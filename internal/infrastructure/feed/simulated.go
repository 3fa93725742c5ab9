package feed

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/sawpanic/tradingcore/internal/domain/core"
)

// SimulatedFeed generates a synthetic geometric random walk bar stream
// for a fixed symbol set, for offline runs with no venue connectivity.
type SimulatedFeed struct {
	symbols []string
	drift   float64
	volPct  float64
	period  time.Duration
	rng     *rand.Rand
	bars    chan core.MarketData
	prices  map[string]float64
}

// NewSimulatedFeed starts every symbol at a $100 reference price and
// steps it by a drift/vol geometric walk once per period.
func NewSimulatedFeed(symbols []string, period time.Duration, rng *rand.Rand) *SimulatedFeed {
	prices := make(map[string]float64, len(symbols))
	for _, s := range symbols {
		prices[s] = 100.0
	}
	return &SimulatedFeed{
		symbols: symbols,
		drift:   0.0001,
		volPct:  0.004,
		period:  period,
		rng:     rng,
		bars:    make(chan core.MarketData, 256),
		prices:  prices,
	}
}

// Bars returns the channel new bars are published on.
func (f *SimulatedFeed) Bars() <-chan core.MarketData { return f.bars }

// Run emits one bar per symbol every period until ctx is cancelled.
func (f *SimulatedFeed) Run(ctx context.Context) error {
	defer close(f.bars)

	ticker := time.NewTicker(f.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			for _, symbol := range f.symbols {
				bar := f.step(symbol, now)
				select {
				case f.bars <- bar:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}

func (f *SimulatedFeed) step(symbol string, now time.Time) core.MarketData {
	prev := f.prices[symbol]
	shock := f.rng.NormFloat64() * f.volPct
	next := prev * math.Exp(f.drift+shock)
	f.prices[symbol] = next

	high := math.Max(prev, next) * (1 + 0.0005)
	low := math.Min(prev, next) * (1 - 0.0005)
	spread := next * 0.0002

	return core.MarketData{
		Symbol:    symbol,
		Timestamp: now,
		Open:      prev,
		High:      high,
		Low:       low,
		Close:     next,
		Volume:    1000 + f.rng.Float64()*500,
		Bid:       next - spread/2,
		Ask:       next + spread/2,
		BidSize:   50 + f.rng.Float64()*50,
		AskSize:   50 + f.rng.Float64()*50,
	}
}
