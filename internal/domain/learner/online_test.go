package learner

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShouldRetrainRequiresBothSamplesAndTime(t *testing.T) {
	l := NewOnlineLearner(7, 100, 30, nil)
	now := time.Now()
	for i := 0; i < 99; i++ {
		l.AddSample(nil, 0, nil)
	}
	assert.False(t, l.ShouldRetrain(now))

	l.AddSample(nil, 0, nil)
	assert.True(t, l.ShouldRetrain(now))
}

func TestShouldRetrainRespectsFrequencyAfterFirstRetrain(t *testing.T) {
	l := NewOnlineLearner(7, 10, 30, nil)
	now := time.Now()
	for i := 0; i < 10; i++ {
		l.AddSample(nil, 0, nil)
	}
	l.TriggerRetrain(nil, "momentum", now)
	for i := 0; i < 10; i++ {
		l.AddSample(nil, 0, nil)
	}
	assert.False(t, l.ShouldRetrain(now.Add(24*time.Hour)))
	assert.True(t, l.ShouldRetrain(now.Add(8*24*time.Hour)))
}

func TestTriggerRetrainRecordsFailedCallbackWithoutPropagating(t *testing.T) {
	failing := func(trainData map[string]any, modelName string) (map[string]any, error) {
		return nil, errors.New("boom")
	}
	l := NewOnlineLearner(7, 1, 30, failing)
	now := time.Now()
	l.AddSample(nil, 0, nil)

	result := l.TriggerRetrain(nil, "momentum", now)
	assert.Equal(t, "failed", result.Status)
	assert.Equal(t, "boom", result.Error)
	assert.Equal(t, 0, l.samplesSinceRetrain)
}

func TestWalkForwardValidateRejectsLengthMismatch(t *testing.T) {
	l := NewOnlineLearner(7, 1000, 30, nil)
	_, err := l.WalkForwardValidate([]float64{1, 2}, []float64{1}, 10)
	assert.Error(t, err)
}

func TestWalkForwardValidateInsufficientData(t *testing.T) {
	l := NewOnlineLearner(7, 1000, 30, nil)
	preds := make([]float64, 30)
	acts := make([]float64, 30)
	res, err := l.WalkForwardValidate(preds, acts, 50)
	assert.NoError(t, err)
	assert.Equal(t, "insufficient_data", res.Status)
}

func TestWalkForwardValidateComputesPerWindowAccuracy(t *testing.T) {
	l := NewOnlineLearner(7, 1000, 30, nil)
	preds := make([]float64, 100)
	acts := make([]float64, 100)
	for i := range preds {
		preds[i] = 1.0
		acts[i] = 1.0
	}
	res, err := l.WalkForwardValidate(preds, acts, 50)
	assert.NoError(t, err)
	assert.Equal(t, "completed", res.Status)
	assert.Equal(t, 2, res.NumWindows)
	assert.InDelta(t, 1.0, res.AvgAccuracy, 1e-9)
	assert.InDelta(t, 0.0, res.AvgMSE, 1e-9)
}

func TestCalculateTrendClassifiesImprovingDegradingStable(t *testing.T) {
	assert.Equal(t, "improving", calculateTrend([]float64{0.1, 0.5, 0.9}))
	assert.Equal(t, "degrading", calculateTrend([]float64{0.9, 0.5, 0.1}))
	assert.Equal(t, "stable", calculateTrend([]float64{0.5, 0.5, 0.5}))
	assert.Equal(t, "insufficient_data", calculateTrend([]float64{0.5, 0.5}))
}

func TestShouldPromoteModelBelowZeroProductionUsesMinimumBar(t *testing.T) {
	assert.True(t, ShouldPromoteModel(0.6, 0, 0.2))
	assert.False(t, ShouldPromoteModel(0.4, 0, 0.2))
	assert.False(t, ShouldPromoteModel(0.4, -1, 0.2))
}

func TestShouldPromoteModelRequiresRelativeImprovement(t *testing.T) {
	assert.True(t, ShouldPromoteModel(1.3, 1.0, 0.2))
	assert.False(t, ShouldPromoteModel(1.1, 1.0, 0.2))
}

func TestShouldDemoteModelBelowMinSharpe(t *testing.T) {
	assert.True(t, ShouldDemoteModel(0.3, 0.8, 0.5, 0.3))
}

func TestShouldDemoteModelOnDegradationFromHistory(t *testing.T) {
	assert.True(t, ShouldDemoteModel(0.6, 1.0, 0.5, 0.3))
	assert.False(t, ShouldDemoteModel(0.8, 1.0, 0.5, 0.3))
}
