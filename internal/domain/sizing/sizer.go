// Package sizing turns an alpha signal and the current NAV into a
// concrete position size, with vol-targeting, fractional-Kelly, and
// correlation-aware portfolio scaling.
package sizing

import (
	"math"

	"github.com/sawpanic/tradingcore/internal/domain/core"
)

// Config parametrizes the Position Sizer.
type Config struct {
	TargetVol       float64
	LookbackDays    int
	MaxLeverage     float64
	MinPosition     float64
	VolFloor        float64
	VolCeiling      float64
	KellyFraction   float64
	MaxPositionPct  float64
	MaxPortfolioVol float64
	EWMADecay       float64
}

// DefaultConfig mirrors the reference defaults.
func DefaultConfig() Config {
	return Config{
		TargetVol:       0.15,
		LookbackDays:    20,
		MaxLeverage:     2.0,
		MinPosition:     0.01,
		VolFloor:        0.05,
		VolCeiling:      1.0,
		KellyFraction:   0.5,
		MaxPositionPct:  0.20,
		MaxPortfolioVol: 0.20,
		EWMADecay:       0.94,
	}
}

// Sizer computes PositionSize from a signal, NAV, and volatility
// context.
type Sizer struct {
	cfg Config
}

// New constructs a Sizer with cfg.
func New(cfg Config) *Sizer {
	return &Sizer{cfg: cfg}
}

// SizePosition implements the core sizing formula:
//
//	vol_scalar   = target_vol / clip(asset_vol, vol_floor, vol_ceiling)
//	raw_pct      = vol_scalar * signal.value * signal.confidence * risk_budget
//	position_pct = clip(raw_pct, +/-max_leverage, +/-max_position_pct)
//	if |position_pct| < min_position: position_pct = 0
func (s *Sizer) SizePosition(signal core.AlphaSignal, nav, price, assetVol, riskBudget float64) core.PositionSize {
	clippedVol := clip(assetVol, s.cfg.VolFloor, s.cfg.VolCeiling)
	volScalar := s.cfg.TargetVol / clippedVol

	rawPct := volScalar * signal.Value * signal.Confidence * riskBudget

	bound := math.Min(s.cfg.MaxLeverage, s.cfg.MaxPositionPct)
	positionPct := clip(rawPct, -bound, bound)

	capped := positionPct != rawPct

	if math.Abs(positionPct) < s.cfg.MinPosition {
		positionPct = 0
	}

	dollarAmount := positionPct * nav
	var numUnits float64
	if price > 0 {
		numUnits = dollarAmount / price
	}

	return core.PositionSize{
		PercentOfNAV: positionPct,
		DollarAmount: dollarAmount,
		NumUnits:     numUnits,
		VolScalar:    volScalar,
		RawSignal:    signal.Value,
		Capped:       capped,
	}
}

// CalculateRealizedVol computes EWMA realized volatility over returns
// (most recent weighted highest, decay-weighted), optionally annualized
// by sqrt(252), then clipped to [VolFloor, VolCeiling].
func (s *Sizer) CalculateRealizedVol(returns []float64, annualize bool) float64 {
	if len(returns) < 2 {
		return s.cfg.VolFloor
	}
	mean := meanf(returns)

	var weightedVarNum, weightSum float64
	n := len(returns)
	for i, r := range returns {
		age := n - 1 - i
		w := math.Pow(s.cfg.EWMADecay, float64(age))
		d := r - mean
		weightedVarNum += w * d * d
		weightSum += w
	}
	if weightSum == 0 {
		return s.cfg.VolFloor
	}
	vol := math.Sqrt(weightedVarNum / weightSum)
	if annualize {
		vol *= math.Sqrt(252)
	}
	return clip(vol, s.cfg.VolFloor, s.cfg.VolCeiling)
}

// KellySize computes fractional-Kelly position size from a strategy's
// win rate and win/loss ratio: f* = (p*b - q) / b, scaled by
// KellyFraction, floored at 0 on negative edge, capped at
// MaxPositionPct.
func (s *Sizer) KellySize(winRate, winLossRatio float64) float64 {
	if winLossRatio <= 0 {
		return 0
	}
	q := 1 - winRate
	full := (winRate*winLossRatio - q) / winLossRatio
	if full <= 0 {
		return 0
	}
	fractional := full * s.cfg.KellyFraction
	return math.Min(fractional, s.cfg.MaxPositionPct)
}

// AdjustForCorrelation scales a set of position weights down when their
// combined portfolio volatility sigma_p = sqrt(w^T Sigma w) exceeds
// MaxPortfolioVol, returning the (possibly scaled) weights and whether
// scaling was applied.
func (s *Sizer) AdjustForCorrelation(weights []float64, corr [][]float64, vols []float64) ([]float64, bool) {
	n := len(weights)
	if n == 0 {
		return weights, false
	}
	sigmaP := portfolioVol(weights, corr, vols)
	if sigmaP <= s.cfg.MaxPortfolioVol || sigmaP == 0 {
		return weights, false
	}
	scale := s.cfg.MaxPortfolioVol / sigmaP
	scaled := make([]float64, n)
	for i, w := range weights {
		scaled[i] = w * scale
	}
	return scaled, true
}

// portfolioVol computes sqrt(w^T Sigma w) where Sigma_ij =
// corr_ij * vol_i * vol_j.
func portfolioVol(weights []float64, corr [][]float64, vols []float64) float64 {
	n := len(weights)
	var variance float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sigmaIJ := corr[i][j] * vols[i] * vols[j]
			variance += weights[i] * sigmaIJ * weights[j]
		}
	}
	if variance < 0 {
		return 0
	}
	return math.Sqrt(variance)
}

// CalculateMarginalVaR returns a 95% one-day VaR estimate for a single
// asset's marginal contribution to portfolio risk: 1.645 times the
// marginal contribution. Diagnostic only.
func (s *Sizer) CalculateMarginalVaR(marginalContribution float64) float64 {
	return 1.645 * marginalContribution
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
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
