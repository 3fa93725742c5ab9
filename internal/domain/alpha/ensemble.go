package alpha

import (
	"math"
	"math/rand"

	"github.com/sawpanic/tradingcore/internal/domain/core"
)

const (
	minModelConfidence = 0.1
	thompsonDecay      = 0.99
	thompsonFloor      = 1.0
	perfHistoryCap     = 1000
)

// regimeWeights is the fixed initial-deployment weight table, keyed by
// regime then model name.
var regimeWeights = map[core.Regime]map[string]float64{
	core.RegimeTrendingUp:    {"momentum": 0.6, "mean_reversion": 0.1, "volatility_breakout": 0.3},
	core.RegimeTrendingDown:  {"momentum": 0.6, "mean_reversion": 0.1, "volatility_breakout": 0.3},
	core.RegimeMeanReverting: {"momentum": 0.1, "mean_reversion": 0.7, "volatility_breakout": 0.2},
	core.RegimeHighVolatility: {"momentum": 0.3, "mean_reversion": 0.2, "volatility_breakout": 0.5},
	core.RegimeLowVolatility:  {"momentum": 0.4, "mean_reversion": 0.5, "volatility_breakout": 0.1},
	core.RegimeCrisis:        {"momentum": 0, "mean_reversion": 0, "volatility_breakout": 0},
	core.RegimeNormal:        {"momentum": 0.4, "mean_reversion": 0.4, "volatility_breakout": 0.2},
}

// banditState tracks Thompson-sampling Beta(alpha, beta) parameters and
// bounded P&L history for one model.
type banditState struct {
	alpha   float64
	beta    float64
	pnlHist []float64
}

func newBanditState() *banditState {
	return &banditState{alpha: 1.0, beta: 1.0}
}

// Ensemble combines Momentum, MeanReversion, and VolatilityBreakout
// into a single regime-weighted (or Thompson-sampled) signal.
type Ensemble struct {
	models  map[string]Model
	bandits map[string]*banditState
	rng     *rand.Rand
}

// NewEnsemble wires the three named models into a combined signal
// generator. rng drives Thompson sampling; pass a seeded source for
// reproducible tests.
func NewEnsemble(models map[string]Model, rng *rand.Rand) *Ensemble {
	bandits := make(map[string]*banditState, len(models))
	for name := range models {
		bandits[name] = newBanditState()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Ensemble{models: models, bandits: bandits, rng: rng}
}

// GenerateCombinedSignal runs every model, drops signals below the
// minimum confidence, and blends the rest using either the regime
// weight table or a Thompson sample, scaled by per-signal confidence.
func (e *Ensemble) GenerateCombinedSignal(bars []core.MarketData, features core.FeatureSet, regime core.Regime, useThompson bool) core.AlphaSignal {
	ts := latestTimestamp(bars)
	weights := e.weightsFor(regime, useThompson)

	var numerator, wSum, confWeightedSum float64
	components := make(map[string]float64, len(e.models))
	for name, model := range e.models {
		sig := model.GenerateSignal(bars, features)
		if sig.Confidence < minModelConfidence {
			continue
		}
		w := weights[name]
		wPrime := w * sig.Confidence
		numerator += wPrime * sig.Value
		wSum += wPrime
		confWeightedSum += w * sig.Confidence
		components[name] = sig.Value
	}

	var value float64
	if wSum > 0 {
		value = numerator / wSum
	}
	confidence := math.Min(confWeightedSum, 1.0)

	return core.NewAlphaSignal(value, confidence, string(regime), "ensemble", components, ts)
}

// weightsFor returns the regime row, or a Thompson-sampled distribution
// normalized to sum to 1 when useThompson is set.
func (e *Ensemble) weightsFor(regime core.Regime, useThompson bool) map[string]float64 {
	if !useThompson {
		if row, ok := regimeWeights[regime]; ok {
			return row
		}
		return regimeWeights[core.RegimeNormal]
	}

	samples := make(map[string]float64, len(e.bandits))
	var total float64
	for name, b := range e.bandits {
		theta := sampleBeta(e.rng, b.alpha, b.beta)
		samples[name] = theta
		total += theta
	}
	if total == 0 {
		return regimeWeights[core.RegimeNormal]
	}
	for name := range samples {
		samples[name] /= total
	}
	return samples
}

// RecordModelPerformance updates the named model's Thompson parameters
// from a realized P&L, then decays both toward the floor.
func (e *Ensemble) RecordModelPerformance(name string, pnl float64) {
	b, ok := e.bandits[name]
	if !ok {
		b = newBanditState()
		e.bandits[name] = b
	}

	b.pnlHist = append(b.pnlHist, pnl)
	if len(b.pnlHist) > perfHistoryCap {
		b.pnlHist = b.pnlHist[len(b.pnlHist)-perfHistoryCap:]
	}

	magnitude := math.Min(math.Abs(pnl)*10, 1.0)
	if pnl > 0 {
		b.alpha += magnitude
	} else {
		b.beta += magnitude
	}

	b.alpha = math.Max(b.alpha*thompsonDecay, thompsonFloor)
	b.beta = math.Max(b.beta*thompsonDecay, thompsonFloor)
}

// ModelStatistics summarizes one model's bandit state and signal
// history for diagnostics.
type ModelStatistics struct {
	Alpha      float64
	Beta       float64
	WinRate    float64
	TradeCount int
	Signal     SignalStats
}

// GetModelStatistics reports bandit and signal diagnostics for name.
func (e *Ensemble) GetModelStatistics(name string) ModelStatistics {
	b, ok := e.bandits[name]
	if !ok {
		return ModelStatistics{}
	}
	var wins int
	for _, pnl := range b.pnlHist {
		if pnl > 0 {
			wins++
		}
	}
	var winRate float64
	if len(b.pnlHist) > 0 {
		winRate = float64(wins) / float64(len(b.pnlHist))
	}

	stats := ModelStatistics{
		Alpha:      b.alpha,
		Beta:       b.beta,
		WinRate:    winRate,
		TradeCount: len(b.pnlHist),
	}
	if model, ok := e.models[name]; ok {
		if bm, ok := model.(interface{ Stats() SignalStats }); ok {
			stats.Signal = bm.Stats()
		}
	}
	return stats
}

// SetRegimeWeights overrides the fixed weight row for regime. Intended
// for operator tuning and tests, not runtime self-adjustment.
func SetRegimeWeights(regime core.Regime, weights map[string]float64) {
	regimeWeights[regime] = weights
}

// GetActiveModels returns the names of models whose most recent stored
// signal (if any) is active.
func (e *Ensemble) GetActiveModels() []string {
	var active []string
	for name, model := range e.models {
		if bm, ok := model.(interface{ LastSignal() (core.AlphaSignal, bool) }); ok {
			if sig, has := bm.LastSignal(); has && sig.IsActive() {
				active = append(active, name)
			}
		}
	}
	return active
}

// sampleBeta draws a Beta(alpha, beta) sample via two Gamma draws,
// the standard construction when no direct Beta sampler is available.
func sampleBeta(rng *rand.Rand, alpha, beta float64) float64 {
	x := sampleGamma(rng, alpha)
	y := sampleGamma(rng, beta)
	if x+y == 0 {
		return 0.5
	}
	return x / (x + y)
}

// sampleGamma implements Marsaglia and Tsang's method for shape >= 1,
// with the Ahrens-Dieter boost for shape < 1.
func sampleGamma(rng *rand.Rand, shape float64) float64 {
	if shape < 1 {
		u := rng.Float64()
		return sampleGamma(rng, shape+1) * math.Pow(u, 1/shape)
	}
	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9*d)
	for {
		var x, v float64
		for {
			x = rng.NormFloat64()
			v = 1 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}
