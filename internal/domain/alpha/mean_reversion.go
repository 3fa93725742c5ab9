package alpha

import (
	"math"

	"github.com/sawpanic/tradingcore/internal/domain/core"
)

// MeanReversionConfig parametrizes the Mean-Reversion model.
type MeanReversionConfig struct {
	Lookback       int
	EntryThreshold float64
	HurstThreshold float64
	HurstLookback  int
	MaxSignal      float64
}

// DefaultMeanReversionConfig mirrors the reference defaults.
func DefaultMeanReversionConfig() MeanReversionConfig {
	return MeanReversionConfig{
		Lookback:       20,
		EntryThreshold: 2.0,
		HurstThreshold: 0.5,
		HurstLookback:  100,
		MaxSignal:      2.5,
	}
}

// MeanReversion is the z-score + Hurst-filtered alpha model: it trades
// against extreme deviations from a rolling mean, but only in regimes
// where the Hurst exponent says the series is actually mean-reverting.
type MeanReversion struct {
	baseModel
	cfg MeanReversionConfig
}

// NewMeanReversion constructs a MeanReversion model with cfg.
func NewMeanReversion(cfg MeanReversionConfig) *MeanReversion {
	min := cfg.HurstLookback
	if cfg.Lookback > min {
		min = cfg.Lookback
	}
	return &MeanReversion{baseModel: newBaseModel("mean_reversion", min), cfg: cfg}
}

func (m *MeanReversion) RequiredFeatures() []string { return nil }

// GenerateSignal implements Model.
func (m *MeanReversion) GenerateSignal(bars []core.MarketData, features core.FeatureSet) core.AlphaSignal {
	ts := latestTimestamp(bars)
	if !m.validate(bars) {
		return m.nullSignal(core.ReasonInsufficientData, ts)
	}

	prices := closes(bars)

	hurst := hurstExponent(prices, m.cfg.HurstLookback)
	if hurst >= m.cfg.HurstThreshold {
		return m.nullSignal(core.ReasonHurstFilter, ts)
	}

	window := prices[len(prices)-m.cfg.Lookback:]
	mean := meanf(window)
	std := stdevSample(window)
	var zscore float64
	if std > 0 {
		zscore = (prices[len(prices)-1] - mean) / std
	}

	if math.Abs(zscore) < m.cfg.EntryThreshold {
		return m.nullSignal(core.ReasonThresholdFilter, ts)
	}

	value := -clip(zscore, -m.cfg.MaxSignal, m.cfg.MaxSignal) / m.cfg.MaxSignal
	hurstComponent := (m.cfg.HurstThreshold - hurst) / m.cfg.HurstThreshold
	zComponent := math.Min(math.Abs(zscore)/3, 1)
	confidence := (hurstComponent + zComponent) / 2

	sig := core.NewAlphaSignal(value, confidence, "MEAN_REVERTING", m.name, map[string]float64{
		"hurst":  hurst,
		"zscore": zscore,
	}, ts)
	m.store(sig)
	return sig
}

// GetHalfLife estimates the Ornstein-Uhlenbeck mean-reversion half-life
// from AR(1) regression of delta_x on x_{t-1}. Returns +Inf when the
// fitted slope is non-negative (no mean reversion) or the regression is
// degenerate. Diagnostic only; not used to gate the signal.
func (m *MeanReversion) GetHalfLife(bars []core.MarketData) float64 {
	prices := closes(bars)
	n := len(prices)
	if n < 3 {
		return math.Inf(1)
	}
	x := prices[:n-1]
	dx := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		dx[i] = prices[i+1] - prices[i]
	}
	beta := linregSlope(x, dx)
	if beta >= 0 {
		return math.Inf(1)
	}
	return -math.Ln2 / beta
}

func linregSlope(x, y []float64) float64 {
	n := float64(len(x))
	if n < 2 {
		return 0
	}
	mx, my := meanf(x), meanf(y)
	var num, den float64
	for i := range x {
		d := x[i] - mx
		num += d * (y[i] - my)
		den += d * d
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// hurstExponent estimates the Hurst exponent over the trailing window
// via simplified R/S analysis across a few lags. Defaults to 0.5
// (random walk) when there isn't enough history.
func hurstExponent(prices []float64, lookback int) float64 {
	window := lookback
	if window > len(prices) {
		window = len(prices)
	}
	if window < 20 {
		return 0.5
	}
	segment := prices[len(prices)-window:]

	candidateLags := []int{10, 20, 40}
	var lags []int
	for _, lag := range candidateLags {
		if lag < window/2 {
			lags = append(lags, lag)
		}
	}
	if len(lags) < 2 {
		return 0.5
	}

	var logLags, logRS []float64
	for _, lag := range lags {
		nSub := window / lag
		var rsList []float64
		for j := 0; j < nSub; j++ {
			sub := segment[j*lag : (j+1)*lag]
			if len(sub) < 2 {
				continue
			}
			mean := meanf(sub)
			cum := 0.0
			maxC, minC := 0.0, 0.0
			for k, v := range sub {
				cum += v - mean
				if k == 0 || cum > maxC {
					maxC = cum
				}
				if k == 0 || cum < minC {
					minC = cum
				}
			}
			s := stdevSample(sub)
			if s > 0 {
				rsList = append(rsList, (maxC-minC)/s)
			}
		}
		if len(rsList) > 0 {
			logLags = append(logLags, math.Log(float64(lag)))
			logRS = append(logRS, math.Log(meanf(rsList)))
		}
	}
	if len(logLags) < 2 {
		return 0.5
	}
	slope := linregSlope(logLags, logRS)
	return clip(slope, 0, 1)
}
