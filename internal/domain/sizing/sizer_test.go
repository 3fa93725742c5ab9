package sizing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/tradingcore/internal/domain/core"
)

func TestSizePositionVolatilityScenario(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TargetVol = 0.15
	cfg.MaxLeverage = 2.0
	cfg.MaxPositionPct = 0.20
	s := New(cfg)

	sig := core.NewAlphaSignal(1.0, 1.0, "", "test", nil, time.Now())
	size := s.SizePosition(sig, 100000, 100, 0.05, 1.0)

	assert.InDelta(t, 3.0, size.VolScalar, 1e-9)
	assert.InDelta(t, 0.20, size.PercentOfNAV, 1e-9)
	assert.True(t, size.Capped)
	assert.InDelta(t, 20000, size.DollarAmount, 1e-6)
	assert.InDelta(t, 200, size.NumUnits, 1e-6)
}

func TestSizePositionMinPositionBoundary(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinPosition = 0.01
	cfg.MaxLeverage = 10
	cfg.MaxPositionPct = 10
	s := New(cfg)

	below := core.NewAlphaSignal(0.0099/cfg.TargetVol*0.05, 1.0, "", "t", nil, time.Now())
	sizeBelow := s.SizePosition(below, 100000, 100, 0.05, 1.0)
	assert.Equal(t, 0.0, sizeBelow.PercentOfNAV)

	exact := core.NewAlphaSignal(cfg.MinPosition, 1.0, "", "t", nil, time.Now())
	sizeExact := s.SizePosition(exact, 100000, 100, cfg.TargetVol, 1.0)
	assert.InDelta(t, cfg.MinPosition, sizeExact.PercentOfNAV, 1e-9)
}

func TestSizePositionLeverageBoundary(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxLeverage = 1.5
	cfg.MaxPositionPct = 5.0
	cfg.MinPosition = 0
	s := New(cfg)

	sig := core.NewAlphaSignal(1.0, 1.0, "", "t", nil, time.Now())
	size := s.SizePosition(sig, 100000, 100, cfg.TargetVol/1.5, 1.0)
	assert.InDelta(t, 1.5, size.PercentOfNAV, 1e-9)
	assert.False(t, size.Capped)

	overSig := core.NewAlphaSignal(1.0, 1.0, "", "t", nil, time.Now())
	overSize := s.SizePosition(overSig, 100000, 100, cfg.TargetVol/2.0, 1.0)
	assert.True(t, overSize.Capped)
	assert.InDelta(t, 1.5, overSize.PercentOfNAV, 1e-9)
}

func TestKellySizeCapsAndFloors(t *testing.T) {
	s := New(DefaultConfig())

	assert.Equal(t, 0.0, s.KellySize(0.3, 1.0))

	full := s.KellySize(0.6, 2.0)
	assert.Greater(t, full, 0.0)
	assert.LessOrEqual(t, full, DefaultConfig().MaxPositionPct)
}

func TestAdjustForCorrelationScalesDownOverLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPortfolioVol = 0.10
	s := New(cfg)

	weights := []float64{0.5, 0.5}
	corr := [][]float64{{1, 0.8}, {0.8, 1}}
	vols := []float64{0.3, 0.3}

	scaled, capped := s.AdjustForCorrelation(weights, corr, vols)
	assert.True(t, capped)
	assert.Less(t, scaled[0], weights[0])
}

func TestRealizedVolWeightsRecentMost(t *testing.T) {
	s := New(DefaultConfig())
	returns := make([]float64, 30)
	for i := range returns {
		returns[i] = 0.001
	}
	returns[len(returns)-1] = 0.5
	vol := s.CalculateRealizedVol(returns, false)
	assert.Greater(t, vol, 0.0)
	assert.LessOrEqual(t, vol, DefaultConfig().VolCeiling)
}
