package trading

import (
	"time"

	"github.com/sawpanic/tradingcore/internal/domain/execution"
	"github.com/sawpanic/tradingcore/internal/domain/learner"
)

// StatusSnapshot is the outbound read surface: portfolio, risk,
// performance, model leaderboard, execution, and decision-log counts.
type StatusSnapshot struct {
	PortfolioStats  map[string]interface{}
	RiskSummary     map[string]interface{}
	PerfMetrics     PerfMetrics
	ModelLeaderboard []learner.LeaderboardEntry
	ExecStats       execution.Stats
	DecisionsLogged int
}

// PerfMetrics is the flat performance summary embedded in the status
// snapshot.
type PerfMetrics struct {
	Sharpe       float64
	Sortino      float64
	Calmar       float64
	WinRate      float64
	ProfitFactor float64
	MaxDrawdown  float64
}

// GetStatus assembles the full status snapshot.
func (ts *TradingSystem) GetStatus() StatusSnapshot {
	states := make([]*execution.OrderState, 0, len(ts.openOrders))
	for _, s := range ts.openOrders {
		states = append(states, s)
	}

	return StatusSnapshot{
		PortfolioStats: ts.ledger.GetPortfolioStats(),
		RiskSummary:    ts.riskManager.GetRiskSummary(),
		PerfMetrics: PerfMetrics{
			Sharpe:       ts.tracker.Sharpe(),
			Sortino:      ts.tracker.Sortino(),
			Calmar:       ts.tracker.Calmar(),
			WinRate:      ts.tracker.WinRate(),
			ProfitFactor: ts.tracker.ProfitFactor(),
			MaxDrawdown:  ts.tracker.MaxDrawdown(),
		},
		ModelLeaderboard: ts.selector.GetLeaderboard(),
		ExecStats:        execution.GetStatistics(states),
		DecisionsLogged:  len(ts.decisionLog),
	}
}

// ExportDecisionLogs flat-maps the bounded decision log for append-only
// storage.
func (ts *TradingSystem) ExportDecisionLogs() []map[string]any {
	out := make([]map[string]any, len(ts.decisionLog))
	for i, d := range ts.decisionLog {
		out[i] = d.ToFlatMap()
	}
	return out
}

// RegisterModelForSelection mirrors a model into the Model Selector's
// bandit registry, independent of the Ensemble's own per-tick
// Thompson weighting.
func (ts *TradingSystem) RegisterModelForSelection(name, version string, isProduction, isShadow bool, now time.Time) {
	ts.selector.RegisterModel(name, version, isProduction, isShadow, now)
}
