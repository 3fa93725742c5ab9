package trading

import "github.com/sawpanic/tradingcore/internal/domain/core"

const (
	crisisVolThreshold  = 0.50
	hurstMeanRevertCut  = 0.45
)

// classifyRegime implements the regime classifier: CRISIS iff realized
// vol exceeds 0.50; else TRENDING_UP/DOWN when the trend-regime flag is
// set, by sign of 20-bar momentum; else MEAN_REVERTING below the Hurst
// cutoff; else LOW/HIGH_VOLATILITY by the vol-regime bucket; else
// NORMAL. These classes partition the remaining input space exactly
// once CRISIS is ruled out.
func classifyRegime(fs core.FeatureSet) core.Regime {
	vol := fs.Get("realized_vol_20", 0)
	if vol > crisisVolThreshold {
		return core.RegimeCrisis
	}

	if fs.Get("trend_regime", 0) == 1 {
		if fs.Get("momentum_20", 0) >= 0 {
			return core.RegimeTrendingUp
		}
		return core.RegimeTrendingDown
	}

	if fs.Get("hurst", 0.5) < hurstMeanRevertCut {
		return core.RegimeMeanReverting
	}

	switch fs.Get("vol_regime", 1) {
	case 0:
		return core.RegimeLowVolatility
	case 2:
		return core.RegimeHighVolatility
	default:
		return core.RegimeNormal
	}
}
