// Package risk implements the risk gate: a latching kill switch, the
// ordered limit checks of check_limits, risk-adjusted scaling, per-
// position stops, and per-strategy health tracking.
package risk

import (
	"fmt"
	"math"

	"github.com/sawpanic/tradingcore/internal/domain/core"
)

// Violation tags. KillSwitch is synthetic: emitted only by the
// kill-switch short-circuit, never recorded alongside the eight real
// violation types in a RiskCheckResult.
const (
	ViolationDailyLoss           = "DAILY_LOSS"
	ViolationMaxDrawdown         = "MAX_DRAWDOWN"
	ViolationPositionSize        = "POSITION_SIZE"
	ViolationSectorExposure      = "SECTOR_EXPOSURE"
	ViolationCorrelationExposure = "CORRELATION_EXPOSURE"
	ViolationLeverage            = "LEVERAGE"
	ViolationLiquidity           = "LIQUIDITY"
	ViolationVolatility          = "VOLATILITY"
	ViolationKillSwitch          = "KILL_SWITCH"
)

// Limits configures the Risk Manager's thresholds.
type Limits struct {
	MaxDailyLossPct   float64
	MaxDrawdownPct    float64
	MaxPositionPct    float64
	MaxLeverage       float64
	MinLiquidityRatio float64
	MaxSectorExposure float64
	MaxVolPosition    float64
}

// DefaultLimits mirrors the reference defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxDailyLossPct:   0.02,
		MaxDrawdownPct:    0.10,
		MaxPositionPct:    0.20,
		MaxLeverage:       2.0,
		MinLiquidityRatio: 0.05,
		MaxSectorExposure: 0.40,
		MaxVolPosition:    0.10,
	}
}

// killSwitch is a latching flag: once active it stays active until an
// authorized reset, regardless of reset_daily_metrics calls.
type killSwitch struct {
	active bool
	reason string
}

// Manager owns all mutable risk state for the book: NAV/drawdown
// tracking, daily P&L, sector exposures, the kill switch, stops, and
// per-strategy health.
type Manager struct {
	limits Limits

	dailyPnL    float64
	peakNAV     float64
	currentNAV  float64
	startOfDay  float64
	exposure    float64
	sectorExp   map[string]float64
	violations  []string
	kill        killSwitch

	stops map[string]*stopState

	strategyHealth map[string]*strategyRecord
}

type stopState struct {
	stop     float64
	isTrail  bool
}

type strategyRecord struct {
	pnlHistory []float64
}

const (
	strategyHistoryCap  = 50
	strategyMinTrades   = 10
	strategyMinSharpe   = 0.5
)

// New constructs a Manager starting with startNAV as both current and
// peak NAV.
func New(limits Limits, startNAV float64) *Manager {
	return &Manager{
		limits:         limits,
		peakNAV:        startNAV,
		currentNAV:     startNAV,
		startOfDay:     startNAV,
		sectorExp:      make(map[string]float64),
		stops:          make(map[string]*stopState),
		strategyHealth: make(map[string]*strategyRecord),
	}
}

// UpdatePnL records a realized P&L delta against the daily P&L and
// activates the kill switch if the resulting daily loss breaches the
// limit.
func (m *Manager) UpdatePnL(delta float64) {
	m.dailyPnL += delta
	if m.startOfDay <= 0 {
		return
	}
	dailyLossPct := -m.dailyPnL / m.startOfDay
	if dailyLossPct >= m.limits.MaxDailyLossPct {
		m.activate(fmt.Sprintf("daily_loss %.4f >= %.4f", dailyLossPct, m.limits.MaxDailyLossPct))
	}
}

// UpdateNAV sets the current NAV, advances the monotone peak, and
// activates the kill switch if the drawdown from peak breaches the
// limit.
func (m *Manager) UpdateNAV(nav float64) {
	m.currentNAV = nav
	if nav > m.peakNAV {
		m.peakNAV = nav
	}
	dd := core.Drawdown(m.peakNAV, m.currentNAV)
	if dd >= m.limits.MaxDrawdownPct {
		m.activate(fmt.Sprintf("drawdown %.4f >= %.4f", dd, m.limits.MaxDrawdownPct))
	}
}

// CurrentDrawdown reports the live drawdown from peak NAV.
func (m *Manager) CurrentDrawdown() float64 {
	return core.Drawdown(m.peakNAV, m.currentNAV)
}

// activate latches the kill switch. Re-activating with a different
// reason while already active leaves the switch active but does not
// overwrite the original reason — the first cause wins.
func (m *Manager) activate(reason string) {
	if m.kill.active {
		return
	}
	m.kill.active = true
	m.kill.reason = reason
}

// Activate explicitly latches the kill switch with an operator-supplied
// reason.
func (m *Manager) Activate(reason string) {
	m.activate(reason)
}

// Reset clears the kill switch. This is the only path back to inactive.
func (m *Manager) Reset() {
	m.kill = killSwitch{}
}

// ResetDailyMetrics zeroes daily P&L and rebases start-of-day NAV.
// It never clears the kill switch.
func (m *Manager) ResetDailyMetrics() {
	m.dailyPnL = 0
	m.startOfDay = m.currentNAV
}

// KillSwitchActive reports whether the kill switch is currently
// latched.
func (m *Manager) KillSwitchActive() bool {
	return m.kill.active
}

// CheckLimits evaluates a proposed position against every limit in
// spec order and returns the aggregate verdict. If the kill switch is
// active, every call is rejected immediately with risk_score 1.
func (m *Manager) CheckLimits(position core.PositionSize, symbol, sector string, dailyVolume, currentVol float64) core.RiskCheckResult {
	if m.kill.active {
		return core.RiskCheckResult{
			Approved:         false,
			Violations:       []string{ViolationKillSwitch + ":" + m.kill.reason},
			AdjustedPosition: &position,
			RiskScore:        1.0,
		}
	}

	var violations []string

	dailyLossRatio := 0.0
	if m.startOfDay > 0 {
		dailyLossRatio = math.Max(0, -m.dailyPnL/m.startOfDay)
	}
	if dailyLossRatio >= m.limits.MaxDailyLossPct {
		violations = append(violations, ViolationDailyLoss)
	}

	dd := m.CurrentDrawdown()
	if dd >= m.limits.MaxDrawdownPct {
		violations = append(violations, ViolationMaxDrawdown)
	}

	if math.Abs(position.PercentOfNAV) > m.limits.MaxPositionPct {
		violations = append(violations, ViolationPositionSize)
	}

	projectedSector := m.sectorExp[sector] + math.Abs(position.PercentOfNAV)
	if projectedSector > m.limits.MaxSectorExposure {
		violations = append(violations, ViolationSectorExposure)
	}

	projectedLeverage := m.exposure + math.Abs(position.PercentOfNAV)
	if projectedLeverage > m.limits.MaxLeverage {
		violations = append(violations, ViolationLeverage)
	}

	if dailyVolume > 0 {
		liquidityRatio := math.Abs(position.DollarAmount) / dailyVolume
		if liquidityRatio > m.limits.MinLiquidityRatio {
			violations = append(violations, ViolationLiquidity)
		}
	}

	if currentVol > 0.40 && math.Abs(position.PercentOfNAV) > m.limits.MaxVolPosition {
		violations = append(violations, ViolationVolatility)
	}

	positionRatio := clip(math.Abs(position.PercentOfNAV)/m.limits.MaxPositionPct, 0, 1)
	dailyLossNorm := clip(dailyLossRatio/m.limits.MaxDailyLossPct, 0, 1)
	ddNorm := clip(dd/m.limits.MaxDrawdownPct, 0, 1)
	leverageNorm := clip(projectedLeverage/m.limits.MaxLeverage, 0, 1)
	riskScore := (positionRatio + dailyLossNorm + ddNorm + leverageNorm) / 4.0

	m.violations = append(m.violations, violations...)

	return core.RiskCheckResult{
		Approved:         len(violations) == 0,
		Violations:       violations,
		AdjustedPosition: &position,
		RiskScore:        riskScore,
	}
}

// ScaleForRisk shrinks (never grows) a position based on remaining
// drawdown and daily-loss headroom, modulated by urgency in [0, 1]:
// the scale is headroom^(0.5*(1-urgency)), so urgency 1 leaves the
// position unscaled and urgency 0 applies the square root of the
// headroom (the most conservative setting).
func (m *Manager) ScaleForRisk(position core.PositionSize, urgency float64) core.PositionSize {
	ddHeadroom := 1.0
	if m.limits.MaxDrawdownPct > 0 {
		ddHeadroom = clip(1-m.CurrentDrawdown()/m.limits.MaxDrawdownPct, 0, 1)
	}
	dailyLossRatio := 0.0
	if m.startOfDay > 0 {
		dailyLossRatio = math.Max(0, -m.dailyPnL/m.startOfDay)
	}
	dailyHeadroom := 1.0
	if m.limits.MaxDailyLossPct > 0 {
		dailyHeadroom = clip(1-dailyLossRatio/m.limits.MaxDailyLossPct, 0, 1)
	}

	headroom := math.Min(ddHeadroom, dailyHeadroom)
	scale := math.Pow(headroom, 0.5*(1-urgency))
	scale = math.Min(scale, 1.0)

	return position.Scale(scale)
}

// SetStopLoss sets the initial stop for a position.
func (m *Manager) SetStopLoss(symbol string, stop float64) {
	m.stops[symbol] = &stopState{stop: stop}
}

// UpdateTrailingStop moves a position's stop upward only, never down.
func (m *Manager) UpdateTrailingStop(symbol string, newStop float64) {
	s, ok := m.stops[symbol]
	if !ok {
		m.stops[symbol] = &stopState{stop: newStop, isTrail: true}
		return
	}
	s.isTrail = true
	if newStop > s.stop {
		s.stop = newStop
	}
}

// CheckStop reports whether price has triggered the stop for symbol,
// using the long-side convention: triggered when price <= stop.
func (m *Manager) CheckStop(symbol string, price float64) bool {
	s, ok := m.stops[symbol]
	if !ok {
		return false
	}
	return price <= s.stop
}

// RecordStrategyTrade appends pnl to a strategy's bounded trade
// history.
func (m *Manager) RecordStrategyTrade(name string, pnl float64) {
	rec, ok := m.strategyHealth[name]
	if !ok {
		rec = &strategyRecord{}
		m.strategyHealth[name] = rec
	}
	rec.pnlHistory = append(rec.pnlHistory, pnl)
	if len(rec.pnlHistory) > strategyHistoryCap {
		rec.pnlHistory = rec.pnlHistory[len(rec.pnlHistory)-strategyHistoryCap:]
	}
}

// CheckStrategyHealth reports whether a strategy should keep trading:
// true until at least strategyMinTrades trades are recorded, then
// gated on annualized Sharpe >= strategyMinSharpe.
func (m *Manager) CheckStrategyHealth(name string) bool {
	rec, ok := m.strategyHealth[name]
	if !ok || len(rec.pnlHistory) < strategyMinTrades {
		return true
	}
	return annualizedSharpe(rec.pnlHistory) >= strategyMinSharpe
}

func annualizedSharpe(pnls []float64) float64 {
	n := len(pnls)
	if n < 2 {
		return 0
	}
	mean := meanf(pnls)
	var ss float64
	for _, p := range pnls {
		d := p - mean
		ss += d * d
	}
	std := math.Sqrt(ss / float64(n-1))
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(252)
}

// GetRiskSummary returns a flat snapshot of risk state for the status
// endpoint.
func (m *Manager) GetRiskSummary() map[string]interface{} {
	return map[string]interface{}{
		"current_nav":       m.currentNAV,
		"peak_nav":          m.peakNAV,
		"current_drawdown":  m.CurrentDrawdown(),
		"daily_pnl":         m.dailyPnL,
		"kill_switch_active": m.kill.active,
		"kill_switch_reason": m.kill.reason,
		"violation_count":   len(m.violations),
	}
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
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
