package learner

import (
	"errors"
	"time"
)

const (
	defaultRetrainFrequencyDays = 7
	defaultMinSamplesForRetrain = 1000
	defaultValidationWindowDays = 30
	defaultWindowSize           = 50
	trendFlat                   = 0.01
)

// TrainFunc is the injected training callback invoked by
// TriggerRetrain. Its result map is merged into the returned
// RetrainResult.Extra; an error is caught and recorded rather than
// propagated.
type TrainFunc func(trainData map[string]any, modelName string) (map[string]any, error)

// RetrainResult is one row of the retrain history.
type RetrainResult struct {
	ModelName    string
	Timestamp    time.Time
	SamplesUsed  int
	Status       string
	Error        string
	Extra        map[string]any
}

// WindowMetrics is the per-window result of a walk-forward validation
// pass.
type WindowMetrics struct {
	WindowStart int
	Accuracy    float64
	MSE         float64
	Correlation float64
}

// ValidationResult aggregates a walk-forward validation run.
type ValidationResult struct {
	Status         string
	NumWindows     int
	AvgAccuracy    float64
	AvgMSE         float64
	AvgCorrelation float64
	AccuracyTrend  string
	WindowDetails  []WindowMetrics
}

// OnlineLearner tracks samples accumulated since the last retrain,
// decides when retraining is due, and runs walk-forward validation
// and promotion/demotion policy on Sharpe ratios.
type OnlineLearner struct {
	retrainFrequencyDays int
	minSamplesForRetrain int
	validationWindowDays int
	trainCallback        TrainFunc

	lastRetrain        *time.Time
	samplesSinceRetrain int
	retrainHistory     []RetrainResult
	validationResults  []ValidationResult
}

// NewOnlineLearner constructs an OnlineLearner. trainCallback may be
// nil, in which case TriggerRetrain records a completed retrain with
// no training side effect.
func NewOnlineLearner(retrainFrequencyDays, minSamplesForRetrain, validationWindowDays int, trainCallback TrainFunc) *OnlineLearner {
	if retrainFrequencyDays <= 0 {
		retrainFrequencyDays = defaultRetrainFrequencyDays
	}
	if minSamplesForRetrain <= 0 {
		minSamplesForRetrain = defaultMinSamplesForRetrain
	}
	if validationWindowDays <= 0 {
		validationWindowDays = defaultValidationWindowDays
	}
	return &OnlineLearner{
		retrainFrequencyDays: retrainFrequencyDays,
		minSamplesForRetrain: minSamplesForRetrain,
		validationWindowDays: validationWindowDays,
		trainCallback:        trainCallback,
	}
}

// AddSample increments the retrain sample counter. features/target/
// prediction are accepted for interface symmetry with a real training
// pipeline; no training pipeline exists in this repo, so they are not
// otherwise used.
func (l *OnlineLearner) AddSample(features map[string]float64, target float64, prediction *float64) {
	l.samplesSinceRetrain++
}

// ShouldRetrain reports whether both the sample-count and elapsed-time
// conditions for retraining are met.
func (l *OnlineLearner) ShouldRetrain(now time.Time) bool {
	if l.samplesSinceRetrain < l.minSamplesForRetrain {
		return false
	}
	if l.lastRetrain == nil {
		return true
	}
	daysSince := int(now.Sub(*l.lastRetrain).Hours() / 24)
	return daysSince >= l.retrainFrequencyDays
}

// TriggerRetrain invokes the injected training callback (if any),
// catching and recording a failed callback rather than propagating
// it, then resets the sample counter.
func (l *OnlineLearner) TriggerRetrain(trainData map[string]any, modelName string, now time.Time) RetrainResult {
	result := RetrainResult{
		ModelName:   modelName,
		Timestamp:   now,
		SamplesUsed: l.samplesSinceRetrain,
		Status:      "completed",
	}

	if l.trainCallback != nil {
		extra, err := l.trainCallback(trainData, modelName)
		if err != nil {
			result.Status = "failed"
			result.Error = err.Error()
		} else {
			result.Extra = extra
		}
	}

	l.lastRetrain = &now
	l.samplesSinceRetrain = 0
	l.retrainHistory = append(l.retrainHistory, result)
	return result
}

var errLengthMismatch = errors.New("predictions and actuals must have same length")

// WalkForwardValidate partitions predictions/actuals into disjoint
// windows of windowSize and reports per-window direction accuracy
// (sign match), MSE, and correlation, plus an overall accuracy trend.
func (l *OnlineLearner) WalkForwardValidate(predictions, actuals []float64, windowSize int) (ValidationResult, error) {
	if len(predictions) != len(actuals) {
		return ValidationResult{}, errLengthMismatch
	}
	if windowSize <= 0 {
		windowSize = defaultWindowSize
	}

	n := len(predictions)
	if n < windowSize*2 {
		return ValidationResult{Status: "insufficient_data"}, nil
	}

	var windows []WindowMetrics
	for i := 0; i+windowSize <= n; i += windowSize {
		end := i + windowSize
		if end > n {
			end = n
		}
		preds := predictions[i:end]
		acts := actuals[i:end]

		var matches int
		for j := range preds {
			if signOf(preds[j]) == signOf(acts[j]) {
				matches++
			}
		}
		accuracy := float64(matches) / float64(len(preds))

		var sqErr float64
		for j := range preds {
			d := preds[j] - acts[j]
			sqErr += d * d
		}
		mse := sqErr / float64(len(preds))

		corr := correlation(preds, acts)

		windows = append(windows, WindowMetrics{
			WindowStart: i,
			Accuracy:    accuracy,
			MSE:         mse,
			Correlation: corr,
		})
	}

	accuracies := make([]float64, len(windows))
	var sumAcc, sumMSE, sumCorr float64
	for i, w := range windows {
		accuracies[i] = w.Accuracy
		sumAcc += w.Accuracy
		sumMSE += w.MSE
		sumCorr += w.Correlation
	}

	result := ValidationResult{
		Status:         "completed",
		NumWindows:     len(windows),
		AvgAccuracy:    sumAcc / float64(len(windows)),
		AvgMSE:         sumMSE / float64(len(windows)),
		AvgCorrelation: sumCorr / float64(len(windows)),
		AccuracyTrend:  calculateTrend(accuracies),
		WindowDetails:  windows,
	}
	l.validationResults = append(l.validationResults, result)
	return result, nil
}

func signOf(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

func correlation(a, b []float64) float64 {
	sa, sb := stdevSample(a), stdevSample(b)
	if sa <= 0 || sb <= 0 {
		return 0
	}
	ma, mb := meanf(a), meanf(b)
	var cov float64
	for i := range a {
		cov += (a[i] - ma) * (b[i] - mb)
	}
	cov /= float64(len(a))
	return cov / (sa * sb)
}

// calculateTrend fits a degree-1 polynomial (ordinary least squares
// slope) over window accuracies and classifies it into
// improving/degrading/stable at +/-0.01.
func calculateTrend(values []float64) string {
	if len(values) < 3 {
		return "insufficient_data"
	}

	n := float64(len(values))
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range values {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return "stable"
	}
	slope := (n*sumXY - sumX*sumY) / denom

	switch {
	case slope > trendFlat:
		return "improving"
	case slope < -trendFlat:
		return "degrading"
	default:
		return "stable"
	}
}

// ShouldPromoteModel decides if candidate should replace production:
// promote when prod <= 0 and candidate > 0.5, or when the relative
// Sharpe improvement meets minImprovement.
func ShouldPromoteModel(candidateSharpe, productionSharpe, minImprovement float64) bool {
	if productionSharpe <= 0 {
		return candidateSharpe > 0.5
	}
	improvement := (candidateSharpe - productionSharpe) / productionSharpe
	return improvement >= minImprovement
}

// ShouldDemoteModel decides if the current production model should be
// demoted: below minSharpe outright, or degraded from its historical
// Sharpe by at least maxDegradation.
func ShouldDemoteModel(currentSharpe, historicalSharpe, minSharpe, maxDegradation float64) bool {
	if currentSharpe < minSharpe {
		return true
	}
	if historicalSharpe > 0 {
		degradation := (historicalSharpe - currentSharpe) / historicalSharpe
		if degradation >= maxDegradation {
			return true
		}
	}
	return false
}

// LearningSummary is a flat snapshot of the learner's state. The
// orchestrator's status snapshot does not include it.
type LearningSummary struct {
	LastRetrain         *time.Time
	SamplesSinceRetrain int
	TotalRetrains       int
	ValidationRuns      int
	ShouldRetrainNow    bool
}

// GetLearningSummary reports the learner's current state.
func (l *OnlineLearner) GetLearningSummary(now time.Time) LearningSummary {
	return LearningSummary{
		LastRetrain:         l.lastRetrain,
		SamplesSinceRetrain: l.samplesSinceRetrain,
		TotalRetrains:       len(l.retrainHistory),
		ValidationRuns:      len(l.validationResults),
		ShouldRetrainNow:    l.ShouldRetrain(now),
	}
}
