// Package learner implements the Model Selector (Thompson-sampling
// multi-armed bandit over registered model versions) and the Online
// Learner (retrain scheduling, walk-forward validation, and
// promotion/demotion policy).
package learner

import (
	"math"
	"math/rand"
	"sort"
	"time"
)

const (
	pnlHistoryCap          = 100
	defaultExplorationRate = 0.1
	defaultMinTradesForSel = 20
	defaultDecayFactor     = 0.99
	sharpeMinTrades        = 10
	annualizationDays      = 252
	alphaBetaDecayFloor    = 1.0
)

// ModelRecord is the Model Selector's track record for one (name,
// version) pair.
type ModelRecord struct {
	Name         string
	Version      string
	IsProduction bool
	IsShadow     bool
	CreatedAt    time.Time
	LastUpdated  time.Time

	TradeCount int
	TotalPnL   float64
	Sharpe     float64
	WinRate    float64
	PnLHistory []float64

	Alpha float64
	Beta  float64
}

// Selection is one recorded Thompson-sampling draw across all
// registered models.
type Selection struct {
	Timestamp time.Time
	Selected  string
	Samples   map[string]float64
}

// Selector is a multi-armed bandit over registered model versions,
// selecting by Thompson sampling on a per-model Beta(alpha, beta)
// posterior fit to trading outcomes.
type Selector struct {
	explorationRate    float64
	minTradesForSelect int
	decayFactor        float64
	rng                *rand.Rand

	models           map[string]*ModelRecord
	selectionHistory []Selection
}

// NewSelector constructs a Selector. rng drives Thompson draws and
// must be supplied by the caller for reproducibility.
func NewSelector(explorationRate float64, minTradesForSelect int, decayFactor float64, rng *rand.Rand) *Selector {
	if explorationRate <= 0 {
		explorationRate = defaultExplorationRate
	}
	if minTradesForSelect <= 0 {
		minTradesForSelect = defaultMinTradesForSel
	}
	if decayFactor <= 0 {
		decayFactor = defaultDecayFactor
	}
	return &Selector{
		explorationRate:    explorationRate,
		minTradesForSelect: minTradesForSelect,
		decayFactor:        decayFactor,
		rng:                rng,
		models:             make(map[string]*ModelRecord),
	}
}

// RegisterModel adds a model to the bandit with fresh Thompson state.
func (s *Selector) RegisterModel(name, version string, isProduction, isShadow bool, now time.Time) {
	s.models[name] = &ModelRecord{
		Name:         name,
		Version:      version,
		IsProduction: isProduction,
		IsShadow:     isShadow,
		CreatedAt:    now,
		LastUpdated:  now,
		Alpha:        1.0,
		Beta:         1.0,
	}
}

// RecordOutcome appends a trading outcome for model name, recomputes
// win rate on every call and Sharpe once the bounded P&L history
// exceeds 10 entries, and
// updates the Thompson (alpha, beta) state with a decayed, floored
// update.
func (s *Selector) RecordOutcome(name string, pnl float64, wasCorrect bool, now time.Time) {
	record, ok := s.models[name]
	if !ok {
		return
	}

	record.TradeCount++
	record.TotalPnL += pnl
	record.PnLHistory = append(record.PnLHistory, pnl)
	if len(record.PnLHistory) > pnlHistoryCap {
		record.PnLHistory = record.PnLHistory[len(record.PnLHistory)-pnlHistoryCap:]
	}
	record.LastUpdated = now

	if len(record.PnLHistory) > 0 {
		record.WinRate = winRateOf(record.PnLHistory)
		if len(record.PnLHistory) > sharpeMinTrades {
			record.Sharpe = sharpeOf(record.PnLHistory)
		}
	}

	magnitude := math.Min(math.Abs(pnl)*100, 1.0)
	if wasCorrect {
		record.Alpha += magnitude
	} else {
		record.Beta += magnitude
	}
	record.Alpha = math.Max(alphaBetaDecayFloor, record.Alpha*s.decayFactor)
	record.Beta = math.Max(alphaBetaDecayFloor, record.Beta*s.decayFactor)
}

// SelectModel draws a Thompson sample per registered model (Beta(1,1)
// for models below the minimum trade count, Beta(alpha, beta)
// otherwise) and returns the argmax model name. Empty string if no
// models are registered.
func (s *Selector) SelectModel(now time.Time) string {
	if len(s.models) == 0 {
		return ""
	}

	samples := make(map[string]float64, len(s.models))
	for name, record := range s.models {
		if record.TradeCount < s.minTradesForSelect {
			samples[name] = sampleBeta(s.rng, 1, 1)
		} else {
			samples[name] = sampleBeta(s.rng, record.Alpha, record.Beta)
		}
	}

	var selected string
	best := math.Inf(-1)
	names := make([]string, 0, len(samples))
	for name := range samples {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if samples[name] > best {
			best = samples[name]
			selected = name
		}
	}

	s.selectionHistory = append(s.selectionHistory, Selection{
		Timestamp: now,
		Selected:  selected,
		Samples:   samples,
	})
	return selected
}

// GetModelWeights returns allocation weights per model from the
// Thompson posterior mean alpha/(alpha+beta), normalized to sum to 1.
// Distinct from, and feeding a different consumer than, the ensemble's
// own per-tick Thompson weighting.
func (s *Selector) GetModelWeights() map[string]float64 {
	weights := make(map[string]float64, len(s.models))
	var total float64
	for name, record := range s.models {
		ev := record.Alpha / (record.Alpha + record.Beta)
		weights[name] = ev
		total += ev
	}
	if total > 0 {
		for name := range weights {
			weights[name] /= total
		}
	}
	return weights
}

// LeaderboardEntry is one row of GetLeaderboard's output.
type LeaderboardEntry struct {
	Name         string
	Version      string
	IsProduction bool
	TradeCount   int
	TotalPnL     float64
	Sharpe       float64
	WinRate      float64
	ThompsonMean float64
}

// GetLeaderboard returns all registered models sorted by Sharpe
// descending.
func (s *Selector) GetLeaderboard() []LeaderboardEntry {
	out := make([]LeaderboardEntry, 0, len(s.models))
	for _, r := range s.models {
		out = append(out, LeaderboardEntry{
			Name:         r.Name,
			Version:      r.Version,
			IsProduction: r.IsProduction,
			TradeCount:   r.TradeCount,
			TotalPnL:     r.TotalPnL,
			Sharpe:       r.Sharpe,
			WinRate:      r.WinRate,
			ThompsonMean: r.Alpha / (r.Alpha + r.Beta),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sharpe > out[j].Sharpe })
	return out
}

// GetModelRecord exposes a model's record for diagnostics.
func (s *Selector) GetModelRecord(name string) (ModelRecord, bool) {
	r, ok := s.models[name]
	if !ok {
		return ModelRecord{}, false
	}
	return *r, true
}

func winRateOf(pnls []float64) float64 {
	if len(pnls) == 0 {
		return 0
	}
	var wins int
	for _, p := range pnls {
		if p > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(pnls))
}

func sharpeOf(pnls []float64) float64 {
	mean := meanf(pnls)
	std := stdevSample(pnls)
	if std <= 0 {
		return 0
	}
	return mean / std * math.Sqrt(annualizationDays)
}

func meanf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

func stdevSample(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	mean := meanf(xs)
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n))
}

// sampleBeta draws from Beta(alpha, beta) via two Gamma draws, the
// standard Gamma-ratio construction. Duplicated from the ensemble's
// identical construction since no shared distribution package exists
// in this module's dependency surface.
func sampleBeta(rng *rand.Rand, alpha, beta float64) float64 {
	x := sampleGamma(rng, alpha)
	y := sampleGamma(rng, beta)
	if x+y == 0 {
		return 0.5
	}
	return x / (x + y)
}

// sampleGamma implements Marsaglia-Tsang for shape >= 1, with the
// Ahrens-Dieter boost (Gamma(shape+1) scaled by U^(1/shape)) for
// shape < 1.
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
