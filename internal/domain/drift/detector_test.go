package drift

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func normalSamples(rng *rand.Rand, n int, mean, std float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = mean + std*rng.NormFloat64()
	}
	return out
}

func TestKSDriftScenario(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	reference := normalSamples(rng, 1000, 0, 1)
	current := normalSamples(rng, 1000, 0.5, 1)

	d := New(1000)
	d.SetReference("feature_a", reference)
	res := d.TestKS("feature_a", current)

	assert.True(t, res.DriftDetected)
	assert.Less(t, res.PValue, 0.001)
	assert.Contains(t, []Severity{SeverityMedium, SeverityHigh}, res.Severity)
}

func TestKSNoDriftOnSameDistribution(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	reference := normalSamples(rng, 1000, 0, 1)
	current := normalSamples(rng, 1000, 0, 1)

	d := New(1000)
	d.SetReference("feature_a", reference)
	res := d.TestKS("feature_a", current)
	assert.False(t, res.DriftDetected)
}

func TestPSIFlagsShiftedDistribution(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	reference := normalSamples(rng, 1000, 0, 1)
	current := normalSamples(rng, 1000, 2, 1)

	d := New(1000)
	d.SetReference("feature_b", reference)
	res := d.TestPSI("feature_b", current)
	assert.True(t, res.DriftDetected)
	assert.InDelta(t, 1-res.Statistic, res.PValue, 1e-9)
}

func TestShouldRetrainOnHighSeverity(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	reference := normalSamples(rng, 1000, 0, 1)
	current := normalSamples(rng, 1000, 3, 1)

	d := New(1000)
	d.SetReference("feature_c", reference)
	d.TestKS("feature_c", current)

	assert.True(t, d.ShouldRetrain(0.99))
}

func TestShouldRetrainOnDriftRate(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	reference := normalSamples(rng, 1000, 0, 1)

	d := New(1000)
	d.SetReference("feature_d", reference)
	for i := 0; i < 5; i++ {
		current := normalSamples(rng, 200, 0.6, 1)
		d.TestKS("feature_d", current)
	}
	assert.True(t, d.ShouldRetrain(0.1))
}

func TestPredictionErrorDriftUsesKS(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	refErrors := normalSamples(rng, 500, 0, 0.1)
	predictions := normalSamples(rng, 500, 1.0, 0.1)
	actuals := make([]float64, 500)
	for i := range actuals {
		actuals[i] = 0.5
	}

	d := New(1000)
	res := d.TestPredictionError("model_a", predictions, actuals, refErrors)
	assert.True(t, res.DriftDetected)
}
