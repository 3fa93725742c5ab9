// Package performance implements the Performance Tracker: return/NAV
// series bookkeeping and the Sharpe/Sortino/Calmar/win-rate/profit-
// factor metric suite.
package performance

import "math"

const (
	riskFreeDaily        = 0.0
	annualizationDays     = 252
	tradesPerDayAssumed  = 2.0
	stdFloor             = 1e-8
	ddFloor              = 1e-8
)

// Tracker maintains the return series, NAV series, and per-model trade
// history needed to compute performance metrics.
type Tracker struct {
	dailyReturns []float64
	navSeries    []float64
	tradePnLs    []float64
	modelPnLs    map[string][]float64

	peakNAV     float64
	maxDrawdown float64

	todayPnL    float64
	todayTrades int
}

// New constructs an empty Tracker.
func New() *Tracker {
	return &Tracker{modelPnLs: make(map[string][]float64)}
}

// RecordDailyReturn appends a daily return observation.
func (t *Tracker) RecordDailyReturn(r float64) {
	t.dailyReturns = append(t.dailyReturns, r)
}

// RecordNAV appends a NAV observation and updates the tracker's own
// peak NAV and max drawdown, independent of the Risk Manager's and
// Portfolio's own drawdown tracking.
func (t *Tracker) RecordNAV(nav float64) {
	t.navSeries = append(t.navSeries, nav)
	if nav > t.peakNAV || t.peakNAV == 0 {
		t.peakNAV = nav
	}
	dd := 0.0
	if t.peakNAV > 0 {
		dd = (t.peakNAV - nav) / t.peakNAV
	}
	if dd > t.maxDrawdown {
		t.maxDrawdown = dd
	}
}

// RecordTrade appends a realized trade P&L to both the global and
// per-model (when modelName is non-empty) histories, and to the
// today-counters used by EndOfDay.
func (t *Tracker) RecordTrade(modelName string, pnl float64) {
	t.tradePnLs = append(t.tradePnLs, pnl)
	t.todayPnL += pnl
	t.todayTrades++
	if modelName != "" {
		t.modelPnLs[modelName] = append(t.modelPnLs[modelName], pnl)
	}
}

// EndOfDay resets the day's P&L and trade counters, independent of the
// Risk Manager's reset_daily_metrics.
func (t *Tracker) EndOfDay() {
	t.todayPnL = 0
	t.todayTrades = 0
}

// Sharpe returns the annualized Sharpe ratio of the recorded daily
// returns, with a floor on std to avoid division blowups.
func (t *Tracker) Sharpe() float64 {
	return sharpeOf(t.dailyReturns)
}

func sharpeOf(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := meanf(returns)
	std := stdevSample(returns)
	if std < stdFloor {
		return 0
	}
	return (mean - riskFreeDaily) / std * math.Sqrt(annualizationDays)
}

// Sortino returns the annualized Sortino ratio, using the stdev of
// negative returns only. Falls back to Sharpe when there are too few
// negative observations to estimate downside deviation.
func (t *Tracker) Sortino() float64 {
	var negatives []float64
	for _, r := range t.dailyReturns {
		if r < 0 {
			negatives = append(negatives, r)
		}
	}
	if len(negatives) < 2 {
		return t.Sharpe()
	}
	mean := meanf(t.dailyReturns)
	downside := stdevSample(negatives)
	if downside < stdFloor {
		return t.Sharpe()
	}
	return (mean - riskFreeDaily) / downside * math.Sqrt(annualizationDays)
}

// Calmar returns annualized return over max drawdown, 0 when drawdown
// is effectively zero.
func (t *Tracker) Calmar() float64 {
	if t.maxDrawdown < ddFloor {
		return 0
	}
	if len(t.dailyReturns) == 0 {
		return 0
	}
	annualizedReturn := meanf(t.dailyReturns) * annualizationDays
	return annualizedReturn / t.maxDrawdown
}

// WinRate returns the fraction of recorded trades with positive P&L.
func (t *Tracker) WinRate() float64 {
	return winRateOf(t.tradePnLs)
}

func winRateOf(pnls []float64) float64 {
	if len(pnls) == 0 {
		return 0
	}
	var wins int
	for _, p := range pnls {
		if p > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(pnls))
}

// ProfitFactor returns the ratio of gross wins to gross losses.
func (t *Tracker) ProfitFactor() float64 {
	return profitFactorOf(t.tradePnLs)
}

func profitFactorOf(pnls []float64) float64 {
	var wins, losses float64
	for _, p := range pnls {
		if p > 0 {
			wins += p
		} else {
			losses += p
		}
	}
	if losses == 0 {
		return 0
	}
	return wins / math.Abs(losses)
}

// MaxDrawdown returns the tracker's own recorded max drawdown.
func (t *Tracker) MaxDrawdown() float64 { return t.maxDrawdown }

// TradeSharpe computes an annualized Sharpe from a list of per-trade
// P&Ls, assuming ~2 trades/day for annualization.
func TradeSharpe(pnls []float64) float64 {
	if len(pnls) < 2 {
		return 0
	}
	mean := meanf(pnls)
	std := stdevSample(pnls)
	if std < stdFloor {
		return 0
	}
	return mean / std * math.Sqrt(annualizationDays*tradesPerDayAssumed)
}

// ModelPerformance summarizes one model's recorded trade history.
type ModelPerformance struct {
	TotalPnL   float64
	AvgPnL     float64
	TradeCount int
	WinRate    float64
	ProfitFactor float64
	Sharpe     float64
}

// GetModelPerformance reports ModelPerformance for modelName.
func (t *Tracker) GetModelPerformance(modelName string) ModelPerformance {
	pnls := t.modelPnLs[modelName]
	if len(pnls) == 0 {
		return ModelPerformance{}
	}
	var total float64
	for _, p := range pnls {
		total += p
	}
	return ModelPerformance{
		TotalPnL:     total,
		AvgPnL:       total / float64(len(pnls)),
		TradeCount:   len(pnls),
		WinRate:      winRateOf(pnls),
		ProfitFactor: profitFactorOf(pnls),
		Sharpe:       TradeSharpe(pnls),
	}
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

func stdevSample(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	mean := meanf(xs)
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}
