package alpha

import (
	"math"
	"time"

	"github.com/sawpanic/tradingcore/internal/domain/core"
)

const signalHistoryCap = 1000

// Model is the shared capability every alpha model implements: turn an
// OHLCV snapshot plus an optional feature set into a signal, and report
// which features it needs. This is a narrow dispatch surface rather
// than a class hierarchy — Momentum, MeanReversion, and
// VolatilityBreakout each embed baseModel by value and add their own
// generation logic.
type Model interface {
	GenerateSignal(bars []core.MarketData, features core.FeatureSet) core.AlphaSignal
	RequiredFeatures() []string
	Name() string
}

// baseModel holds behavior shared by every concrete alpha model:
// minimum-data validation and a bounded signal history for diagnostics.
type baseModel struct {
	name             string
	minDataPoints    int
	history          []core.AlphaSignal
}

func newBaseModel(name string, minDataPoints int) baseModel {
	return baseModel{name: name, minDataPoints: minDataPoints}
}

func (b *baseModel) Name() string { return b.name }

// validate reports whether bars has enough rows and every close price
// is a finite, positive number.
func (b *baseModel) validate(bars []core.MarketData) bool {
	if len(bars) < b.minDataPoints {
		return false
	}
	for _, bar := range bars {
		if bar.Close <= 0 || isNaN(bar.Close) || math.IsInf(bar.Close, 0) {
			return false
		}
	}
	return true
}

func (b *baseModel) nullSignal(reason string, ts time.Time) core.AlphaSignal {
	sig := core.NullSignal(reason, b.name, ts)
	b.store(sig)
	return sig
}

func (b *baseModel) store(sig core.AlphaSignal) {
	b.history = append(b.history, sig)
	if len(b.history) > signalHistoryCap {
		b.history = b.history[len(b.history)-signalHistoryCap:]
	}
}

// SignalStats summarizes a model's recent signal history for
// diagnostics.
type SignalStats struct {
	Count          int
	ActiveRatio    float64
	MeanAbsValue   float64
	MeanConfidence float64
}

// Stats exposes signalStats for consumers outside the package, such as
// the ensemble's diagnostics surface.
func (b *baseModel) Stats() SignalStats { return b.signalStats() }

// LastSignal returns the most recently generated signal, if any.
func (b *baseModel) LastSignal() (core.AlphaSignal, bool) {
	if len(b.history) == 0 {
		return core.AlphaSignal{}, false
	}
	return b.history[len(b.history)-1], true
}

func (b *baseModel) signalStats() SignalStats {
	if len(b.history) == 0 {
		return SignalStats{}
	}
	var active int
	var absValSum, confSum float64
	for _, sig := range b.history {
		if sig.IsActive() {
			active++
		}
		absValSum += absf(sig.Value)
		confSum += sig.Confidence
	}
	n := float64(len(b.history))
	return SignalStats{
		Count:          len(b.history),
		ActiveRatio:    float64(active) / n,
		MeanAbsValue:   absValSum / n,
		MeanConfidence: confSum / n,
	}
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func isNaN(v float64) bool {
	return v != v
}
