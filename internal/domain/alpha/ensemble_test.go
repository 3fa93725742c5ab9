package alpha

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/tradingcore/internal/domain/core"
)

// fixedModel returns a pre-baked signal regardless of bars, for testing
// the ensemble's weighting logic in isolation from real calculators.
type fixedModel struct {
	name string
	sig  core.AlphaSignal
}

func (f fixedModel) GenerateSignal(_ []core.MarketData, _ core.FeatureSet) core.AlphaSignal {
	return f.sig
}
func (f fixedModel) RequiredFeatures() []string { return nil }
func (f fixedModel) Name() string               { return f.name }

func TestEnsembleRegimeWeighting(t *testing.T) {
	models := map[string]Model{
		"momentum":            fixedModel{"momentum", core.NewAlphaSignal(0.8, 0.9, "TRENDING", "momentum", nil, time.Unix(0, 0))},
		"mean_reversion":       fixedModel{"mean_reversion", core.NewAlphaSignal(-0.5, 0.5, "MEAN_REVERTING", "mean_reversion", nil, time.Unix(0, 0))},
		"volatility_breakout":  fixedModel{"volatility_breakout", core.NewAlphaSignal(0, 0, "", "volatility_breakout", nil, time.Unix(0, 0))},
	}
	ens := NewEnsemble(models, rand.New(rand.NewSource(1)))

	bars := []core.MarketData{{Timestamp: time.Unix(1, 0), Close: 100}}
	sig := ens.GenerateCombinedSignal(bars, core.FeatureSet{}, core.RegimeTrendingUp, false)

	// (0.6*0.9*0.8 + 0.1*0.5*-0.5) / (0.6*0.9 + 0.1*0.5) ~= 0.69
	assert.InDelta(t, 0.69, sig.Value, 0.01)
}

func TestEnsembleCrisisRegimeZeroesWeights(t *testing.T) {
	models := map[string]Model{
		"momentum":            fixedModel{"momentum", core.NewAlphaSignal(1.0, 1.0, "TRENDING", "momentum", nil, time.Unix(0, 0))},
		"mean_reversion":       fixedModel{"mean_reversion", core.NewAlphaSignal(-1.0, 1.0, "MEAN_REVERTING", "mean_reversion", nil, time.Unix(0, 0))},
		"volatility_breakout":  fixedModel{"volatility_breakout", core.NewAlphaSignal(1.0, 1.0, "BREAKOUT_ACTIVE", "volatility_breakout", nil, time.Unix(0, 0))},
	}
	ens := NewEnsemble(models, rand.New(rand.NewSource(1)))
	bars := []core.MarketData{{Timestamp: time.Unix(1, 0), Close: 100}}
	sig := ens.GenerateCombinedSignal(bars, core.FeatureSet{}, core.RegimeCrisis, false)

	assert.Equal(t, 0.0, sig.Value)
}

func TestEnsembleRecordModelPerformanceDecaysTowardFloor(t *testing.T) {
	models := map[string]Model{"momentum": fixedModel{"momentum", core.NullSignal("", "momentum", time.Unix(0, 0))}}
	ens := NewEnsemble(models, rand.New(rand.NewSource(1)))

	for i := 0; i < 50; i++ {
		ens.RecordModelPerformance("momentum", 0.05)
	}
	stats := ens.GetModelStatistics("momentum")
	assert.Greater(t, stats.Alpha, thompsonFloor)
	assert.GreaterOrEqual(t, stats.Beta, thompsonFloor)

	for i := 0; i < 500; i++ {
		ens.RecordModelPerformance("momentum", -0.0001)
	}
	stats = ens.GetModelStatistics("momentum")
	assert.InDelta(t, thompsonFloor, stats.Alpha, 0.1)
}

func TestEnsembleThompsonWeightsSumToOne(t *testing.T) {
	models := map[string]Model{
		"momentum":            fixedModel{"momentum", core.NullSignal("", "momentum", time.Unix(0, 0))},
		"mean_reversion":       fixedModel{"mean_reversion", core.NullSignal("", "mean_reversion", time.Unix(0, 0))},
		"volatility_breakout":  fixedModel{"volatility_breakout", core.NullSignal("", "volatility_breakout", time.Unix(0, 0))},
	}
	ens := NewEnsemble(models, rand.New(rand.NewSource(42)))
	w := ens.weightsFor(core.RegimeNormal, true)
	var sum float64
	for _, v := range w {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestMomentumTrendingScenario(t *testing.T) {
	n := 200
	bars := make([]core.MarketData, n)
	cum := 0.0
	for i := 0; i < n; i++ {
		cum += 0.002
		price := 100 * math.Exp(cum)
		bars[i] = core.MarketData{
			Symbol: "BTC", Timestamp: time.Unix(int64(i)*60, 0),
			Open: price, High: price * 1.001, Low: price * 0.999, Close: price, Volume: 1000,
		}
	}

	mom := NewMomentum(DefaultMomentumConfig())
	sig := mom.GenerateSignal(bars, core.FeatureSet{})
	assert.Greater(t, sig.Value, 0.0)
	assert.Equal(t, "TRENDING", sig.RegimeFilter)

	mr := NewMeanReversion(DefaultMeanReversionConfig())
	mrSig := mr.GenerateSignal(bars, core.FeatureSet{})
	assert.Equal(t, core.ReasonHurstFilter, mrSig.RegimeFilter)
}

func TestADXOfFlatSeriesIsBelowThreshold(t *testing.T) {
	n := 60
	high := make([]float64, n)
	low := make([]float64, n)
	close := make([]float64, n)
	for i := range close {
		close[i] = 100
		high[i] = 100.1
		low[i] = 99.9
	}
	adx := wilderADX(high, low, close, 14)
	assert.Less(t, adx[len(adx)-1], 25.0)
}
