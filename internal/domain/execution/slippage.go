package execution

import "math"

const (
	slippageHistoryCap      = 1000
	calibrationMinSamples   = 50
	calibrationLearningRate = 0.1
	calibrationBaseWeight   = 0.9
)

// SlippageModel estimates and calibrates execution cost: a spread
// component plus a square-root market-impact component.
type SlippageModel struct {
	eta       float64
	predicted []float64
	actual    []float64
}

// NewSlippageModel constructs a model with the given impact
// coefficient eta.
func NewSlippageModel(eta float64) *SlippageModel {
	return &SlippageModel{eta: eta}
}

// EstimateCost returns spread_cost_bps, market_impact_bps, and their
// sum for an order of orderValue against dailyVolume and volatility
// sigma, at the given quoted spread (half of it is charged as the
// spread cost).
func (s *SlippageModel) EstimateCost(orderValue, dailyVolume, sigma, spreadBps float64) (spreadCostBps, marketImpactBps, totalBps float64) {
	spreadCostBps = spreadBps / 2
	if dailyVolume > 0 {
		marketImpactBps = s.eta * sigma * math.Sqrt(orderValue/dailyVolume) * 10000
	}
	totalBps = spreadCostBps + marketImpactBps
	return
}

// RecordExecution stores a (predicted, actual) slippage pair in a
// bounded history and recalibrates eta once enough samples have
// accumulated.
func (s *SlippageModel) RecordExecution(predicted, actual float64) {
	s.predicted = append(s.predicted, predicted)
	s.actual = append(s.actual, actual)
	if len(s.predicted) > slippageHistoryCap {
		s.predicted = s.predicted[len(s.predicted)-slippageHistoryCap:]
		s.actual = s.actual[len(s.actual)-slippageHistoryCap:]
	}

	if len(s.predicted) < calibrationMinSamples {
		return
	}
	meanPredicted := meanf(s.predicted)
	if meanPredicted == 0 {
		return
	}
	meanActual := meanf(s.actual)
	s.eta = s.eta * (calibrationBaseWeight + calibrationLearningRate*meanActual/meanPredicted)
}

// Eta exposes the current calibrated impact coefficient.
func (s *SlippageModel) Eta() float64 { return s.eta }

// SignedSlippageBps computes realized execution cost versus a
// reference mid-price: positive means the fill was worse than the
// reference, signed so that buys paying above mid and sells receiving
// below mid both register as positive cost.
func SignedSlippageBps(side string, referenceMid, avgFillPrice float64) float64 {
	if referenceMid == 0 {
		return 0
	}
	diff := (avgFillPrice - referenceMid) / referenceMid
	if side == "sell" {
		diff = -diff
	}
	return diff * 10000
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
