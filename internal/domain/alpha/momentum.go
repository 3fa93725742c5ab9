package alpha

import (
	"math"
	"time"

	"github.com/sawpanic/tradingcore/internal/domain/core"
)

// MomentumConfig parametrizes the Momentum model.
type MomentumConfig struct {
	Lookbacks   []int
	DecayLambda float64
	ADXPeriod   int
	ADXThreshold float64
	MaxSignal   float64
}

// DefaultMomentumConfig mirrors the reference defaults.
func DefaultMomentumConfig() MomentumConfig {
	return MomentumConfig{
		Lookbacks:    []int{5, 10, 20, 60},
		DecayLambda:  0.1,
		ADXPeriod:    14,
		ADXThreshold: 25.0,
		MaxSignal:    3.0,
	}
}

// Momentum is the Volatility-Adjusted-Momentum + ADX-filtered alpha
// model. It combines VAM across several lookbacks and gates the
// combined value on trend strength via ADX(14).
type Momentum struct {
	baseModel
	cfg MomentumConfig
}

// NewMomentum constructs a Momentum model with cfg. minDataPoints is the
// largest lookback plus twice the ADX period plus one, the longest
// history any sub-computation needs.
func NewMomentum(cfg MomentumConfig) *Momentum {
	maxLookback := 0
	for _, lb := range cfg.Lookbacks {
		if lb > maxLookback {
			maxLookback = lb
		}
	}
	min := maxLookback + cfg.ADXPeriod*2 + 1
	return &Momentum{baseModel: newBaseModel("momentum", min), cfg: cfg}
}

func (m *Momentum) RequiredFeatures() []string { return nil }

// GenerateSignal implements Model.
func (m *Momentum) GenerateSignal(bars []core.MarketData, features core.FeatureSet) core.AlphaSignal {
	ts := latestTimestamp(bars)
	if !m.validate(bars) {
		return m.nullSignal(core.ReasonInsufficientData, ts)
	}

	prices := closes(bars)
	high := highs(bars)
	low := lows(bars)

	var vams []float64
	for _, lb := range m.cfg.Lookbacks {
		if v, ok := volAdjustedMomentum(prices, lb, m.cfg.DecayLambda); ok {
			vams = append(vams, v)
		}
	}
	if len(vams) == 0 {
		return m.nullSignal(core.ReasonInsufficientData, ts)
	}
	meanVAM := meanf(vams)

	adxSeries := wilderADX(high, low, prices, m.cfg.ADXPeriod)
	adx := adxSeries[len(adxSeries)-1]
	if adx <= m.cfg.ADXThreshold {
		return m.nullSignal(core.ReasonADXFilter, ts)
	}

	value := clip(meanVAM, -m.cfg.MaxSignal, m.cfg.MaxSignal) / m.cfg.MaxSignal
	confidence := math.Min((adx-m.cfg.ADXThreshold)/25.0, 1.0)

	sig := core.NewAlphaSignal(value, confidence, "TRENDING", m.name, map[string]float64{
		"adx":      adx,
		"mean_vam": meanVAM,
	}, ts)
	m.store(sig)
	return sig
}

// GetTrendDirection returns the sign of the averaged VAM, independent
// of the ADX filter -- a diagnostic helper, not part of signal
// generation.
func (m *Momentum) GetTrendDirection(bars []core.MarketData) int {
	if !m.validate(bars) {
		return 0
	}
	prices := closes(bars)
	var vams []float64
	for _, lb := range m.cfg.Lookbacks {
		if v, ok := volAdjustedMomentum(prices, lb, m.cfg.DecayLambda); ok {
			vams = append(vams, v)
		}
	}
	if len(vams) == 0 {
		return 0
	}
	mean := meanf(vams)
	switch {
	case mean > 0:
		return 1
	case mean < 0:
		return -1
	default:
		return 0
	}
}

// volAdjustedMomentum computes VAM(L) = (sum(w_i*r_i)) / stdev(returns)
// over the most recent L 1-bar returns, with exponentially decaying
// weights favoring recent returns.
func volAdjustedMomentum(prices []float64, lookback int, decayLambda float64) (float64, bool) {
	if len(prices) <= lookback {
		return 0, false
	}
	returns := make([]float64, lookback)
	start := len(prices) - lookback
	for i := 0; i < lookback; i++ {
		p0 := prices[start+i-1]
		if start+i == 0 {
			p0 = prices[0]
		}
		returns[i] = (prices[start+i] - p0) / p0
	}

	weights := make([]float64, lookback)
	var wsum float64
	for i := 0; i < lookback; i++ {
		weights[i] = math.Exp(-decayLambda * float64(lookback-1-i))
		wsum += weights[i]
	}
	if wsum == 0 {
		return 0, false
	}
	var weighted float64
	for i := range weights {
		weighted += (weights[i] / wsum) * returns[i]
	}

	sigma := stdevSample(returns)
	if sigma == 0 {
		return 0, false
	}
	return weighted / sigma, true
}

func closes(bars []core.MarketData) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

func highs(bars []core.MarketData) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High
	}
	return out
}

func lows(bars []core.MarketData) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Low
	}
	return out
}

func volumes(bars []core.MarketData) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}

func latestTimestamp(bars []core.MarketData) time.Time {
	if len(bars) == 0 {
		return time.Now()
	}
	return bars[len(bars)-1].Timestamp
}
