package execution

// AdaptiveConfig tunes the Adaptive slicing wrapper around TWAP/VWAP.
type AdaptiveConfig struct {
	PriceTolerance float64
	VolThreshold   float64
	MinSliceScale  float64
	MaxSliceScale  float64
}

// DefaultAdaptiveConfig mirrors the reference defaults.
func DefaultAdaptiveConfig() AdaptiveConfig {
	return AdaptiveConfig{
		PriceTolerance: 0.002,
		VolThreshold:   1.5,
		MinSliceScale:  0.5,
		MaxSliceScale:  2.0,
	}
}

// Adaptive wraps a TWAP/VWAP schedule with pace adjustments driven by
// live price movement and volatility.
type Adaptive struct {
	cfg AdaptiveConfig
}

// NewAdaptive constructs an Adaptive wrapper with cfg.
func NewAdaptive(cfg AdaptiveConfig) *Adaptive {
	return &Adaptive{cfg: cfg}
}

// ShouldAccelerate reports whether a favorable price move beyond
// price_tolerance*(1-urgency) warrants filling faster. favorableMovePct
// is signed positive when the move favors the order's side.
func (a *Adaptive) ShouldAccelerate(favorableMovePct, urgency float64) bool {
	threshold := a.cfg.PriceTolerance * (1 - urgency)
	return favorableMovePct > threshold
}

// ShouldPause reports whether current volatility exceeds
// vol_threshold*baseline.
func (a *Adaptive) ShouldPause(currentVol, baselineVol float64) bool {
	if baselineVol <= 0 {
		return false
	}
	return currentVol > a.cfg.VolThreshold*baselineVol
}

// AdjustSliceSize scales a base slice size inversely proportional to an
// adverse price move, clipped to [MinSliceScale, MaxSliceScale] and
// tempered by urgency: urgency 1 applies the full scale, urgency 0
// leaves the slice unscaled.
func (a *Adaptive) AdjustSliceSize(baseSize, adverseMovePct, urgency float64) float64 {
	scale := 1.0
	if adverseMovePct > 0 {
		scale = 1.0 / (1.0 + adverseMovePct)
	} else if adverseMovePct < 0 {
		scale = 1.0 - adverseMovePct
	}
	scale = clip(scale, a.cfg.MinSliceScale, a.cfg.MaxSliceScale)

	tempered := 1 + urgency*(scale-1)
	return baseSize * tempered
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
