package alpha

import (
	"math"

	"github.com/sawpanic/tradingcore/internal/domain/core"
)

// VolatilityBreakoutConfig parametrizes the Volatility Breakout model.
type VolatilityBreakoutConfig struct {
	ATRPeriod            int
	BreakoutMultiple     float64
	VolExpansionThreshold float64
	VolumeThreshold      float64
	Lookback             int
}

// DefaultVolatilityBreakoutConfig mirrors the reference defaults.
func DefaultVolatilityBreakoutConfig() VolatilityBreakoutConfig {
	return VolatilityBreakoutConfig{
		ATRPeriod:             14,
		BreakoutMultiple:      1.5,
		VolExpansionThreshold: 1.5,
		VolumeThreshold:       1.2,
		Lookback:              20,
	}
}

// VolatilityBreakout trades range breakouts confirmed by volatility
// expansion and volume.
type VolatilityBreakout struct {
	baseModel
	cfg VolatilityBreakoutConfig
}

// NewVolatilityBreakout constructs a VolatilityBreakout model with cfg.
func NewVolatilityBreakout(cfg VolatilityBreakoutConfig) *VolatilityBreakout {
	min := cfg.Lookback + cfg.ATRPeriod + 2
	return &VolatilityBreakout{baseModel: newBaseModel("volatility_breakout", min), cfg: cfg}
}

func (v *VolatilityBreakout) RequiredFeatures() []string { return nil }

// GenerateSignal implements Model.
func (v *VolatilityBreakout) GenerateSignal(bars []core.MarketData, features core.FeatureSet) core.AlphaSignal {
	ts := latestTimestamp(bars)
	if !v.validate(bars) {
		return v.nullSignal(core.ReasonInsufficientData, ts)
	}

	prices := closes(bars)
	high := highs(bars)
	low := lows(bars)
	volume := volumes(bars)

	atrSeries := atrWilder(high, low, prices, v.cfg.ATRPeriod)
	atrRatio := atrExpansionRatio(atrSeries, v.cfg.Lookback)
	if atrRatio < v.cfg.VolExpansionThreshold {
		return v.nullSignal(core.ReasonLowVol, ts)
	}

	direction, strength := checkBreakout(prices, high, low, v.cfg.Lookback)
	if direction == 0 {
		return v.nullSignal(core.ReasonNoBreakout, ts)
	}

	volumeConfirmed := checkVolumeConfirmation(volume, v.cfg.Lookback, v.cfg.VolumeThreshold)

	volFactor := math.Min((atrRatio-1)/(v.cfg.VolExpansionThreshold-1), 2.0)
	volumeFactor := 0.8
	if volumeConfirmed {
		volumeFactor = 1.5
	}

	value := clip(float64(direction)*strength*volFactor*volumeFactor, -1, 1)

	confirmations := 1.0 // breakout itself
	if atrRatio >= v.cfg.VolExpansionThreshold {
		confirmations++
	}
	if volumeConfirmed {
		confirmations++
	}
	confidence := confirmations / 3.0

	sig := core.NewAlphaSignal(value, confidence, "BREAKOUT_ACTIVE", v.name, map[string]float64{
		"atr_ratio": atrRatio,
		"strength":  strength,
	}, ts)
	v.store(sig)
	return sig
}

func atrWilder(high, low, close []float64, period int) []float64 {
	n := len(high)
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	tr := make([]float64, n)
	for i := 1; i < n; i++ {
		hl := high[i] - low[i]
		hc := math.Abs(high[i] - close[i-1])
		lc := math.Abs(low[i] - close[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	if n <= period {
		return out
	}
	out[period] = meanf(tr[1 : period+1])
	for i := period + 1; i < n; i++ {
		out[i] = (out[i-1]*float64(period-1) + tr[i]) / float64(period)
	}
	return out
}

// atrExpansionRatio compares the latest ATR to its trailing average
// over lookback bars.
func atrExpansionRatio(atr []float64, lookback int) float64 {
	n := len(atr)
	if n < lookback+1 {
		return 1.0
	}
	window := atr[n-lookback-1 : n-1]
	avg := meanf(window)
	if avg == 0 {
		return 1.0
	}
	return atr[n-1] / avg
}

// checkBreakout reports direction (+1/-1/0) and overshoot strength
// relative to the prior lookback range.
func checkBreakout(prices, high, low []float64, lookback int) (int, float64) {
	n := len(prices)
	if n < lookback+2 {
		return 0, 0
	}
	priorHigh := maxf(high[n-lookback-1 : n-1])
	priorLow := minf(low[n-lookback-1 : n-1])
	rng := priorHigh - priorLow
	if rng <= 0 {
		return 0, 0
	}
	close := prices[n-1]
	switch {
	case close > priorHigh:
		return 1, (close - priorHigh) / rng
	case close < priorLow:
		return -1, (priorLow - close) / rng
	default:
		return 0, 0
	}
}

func checkVolumeConfirmation(volume []float64, lookback int, threshold float64) bool {
	n := len(volume)
	if n < lookback+1 {
		return false
	}
	avg := meanf(volume[n-lookback-1 : n-1])
	if avg == 0 {
		return false
	}
	return volume[n-1] > threshold*avg
}

func maxf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func minf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}
