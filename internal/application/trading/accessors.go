package trading

import (
	"time"

	"github.com/sawpanic/tradingcore/internal/domain/drift"
	"github.com/sawpanic/tradingcore/internal/domain/learner"
)

// Drift exposes the drift detector so infrastructure callers can feed
// it reference/current feature windows and react to should_retrain.
func (ts *TradingSystem) Drift() *drift.Detector { return ts.driftDetector }

// Learner exposes the online learner for the retrain-trigger wiring:
// the driver, not the core, owns the training callback and the retrain
// schedule.
func (ts *TradingSystem) Learner() *learner.OnlineLearner { return ts.onlineLearner }

// CheckDriftAndMaybeRetrain runs the drift detector's KS and PSI tests
// (keeping the result with the larger statistic) for every feature
// present in both windows, then triggers a retrain (via the
// online learner's injected callback) if either the drift-based or the
// sample/time-based retrain condition is met.
func (ts *TradingSystem) CheckDriftAndMaybeRetrain(currents map[string][]float64, threshold float64, now time.Time, modelName string) (bool, learner.RetrainResult) {
	ts.driftDetector.TestAllFeatures(currents)

	driftSaysRetrain := ts.driftDetector.ShouldRetrain(threshold)
	scheduleSaysRetrain := ts.onlineLearner.ShouldRetrain(now)
	if !driftSaysRetrain && !scheduleSaysRetrain {
		return false, learner.RetrainResult{}
	}

	result := ts.onlineLearner.TriggerRetrain(nil, modelName, now)
	return true, result
}
