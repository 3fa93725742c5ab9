package risk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/tradingcore/internal/domain/core"
)

func TestCrisisKillSwitchScenario(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxDrawdownPct = 0.10
	m := New(limits, 100000)

	m.UpdateNAV(100000)
	m.UpdateNAV(105000)
	m.UpdateNAV(94500)

	assert.InDelta(t, 0.10, m.CurrentDrawdown(), 1e-9)
	assert.True(t, m.KillSwitchActive())

	result := m.CheckLimits(core.PositionSize{PercentOfNAV: 0.05}, "BTC", "crypto", 1_000_000, 0.1)
	assert.False(t, result.Approved)
	assert.True(t, strings.HasPrefix(result.Violations[0], ViolationKillSwitch))
}

func TestResetDailyMetricsNeverClearsKillSwitch(t *testing.T) {
	m := New(DefaultLimits(), 100000)
	m.Activate("manual")
	m.ResetDailyMetrics()
	assert.True(t, m.KillSwitchActive())
	m.ResetDailyMetrics()
	assert.True(t, m.KillSwitchActive())
}

func TestResetClearsKillSwitch(t *testing.T) {
	m := New(DefaultLimits(), 100000)
	m.Activate("manual")
	m.Reset()
	assert.False(t, m.KillSwitchActive())
}

func TestCheckLimitsApprovedPositionRespectsMaxPositionPct(t *testing.T) {
	limits := DefaultLimits()
	m := New(limits, 100000)

	within := core.PositionSize{PercentOfNAV: 0.15, DollarAmount: 15000}
	result := m.CheckLimits(within, "BTC", "crypto", 1_000_000, 0.1)
	assert.True(t, result.Approved)
	assert.LessOrEqual(t, result.AdjustedPosition.PercentOfNAV, limits.MaxPositionPct)

	over := core.PositionSize{PercentOfNAV: 0.25, DollarAmount: 25000}
	result2 := m.CheckLimits(over, "BTC", "crypto", 1_000_000, 0.1)
	assert.False(t, result2.Approved)
	assert.Contains(t, result2.Violations, ViolationPositionSize)
}

func TestScaleForRiskNeverScalesUp(t *testing.T) {
	m := New(DefaultLimits(), 100000)
	pos := core.PositionSize{PercentOfNAV: 0.10, DollarAmount: 10000, NumUnits: 100}
	scaled := m.ScaleForRisk(pos, 1.0)
	assert.LessOrEqual(t, scaled.PercentOfNAV, pos.PercentOfNAV)
}

func TestTrailingStopNeverMovesDown(t *testing.T) {
	m := New(DefaultLimits(), 100000)
	m.SetStopLoss("BTC", 48000)
	m.UpdateTrailingStop("BTC", 49000)
	m.UpdateTrailingStop("BTC", 48500)
	assert.True(t, m.CheckStop("BTC", 48999))
	assert.False(t, m.CheckStop("BTC", 49001))
}

func TestCheckStrategyHealthGatesOnSharpe(t *testing.T) {
	m := New(DefaultLimits(), 100000)
	for i := 0; i < 15; i++ {
		pnl := -10.0
		if i%2 == 0 {
			pnl = 5.0
		}
		m.RecordStrategyTrade("momentum", pnl)
	}
	assert.False(t, m.CheckStrategyHealth("momentum"))
}

func TestCheckStrategyHealthDefaultsTrueBelowMinTrades(t *testing.T) {
	m := New(DefaultLimits(), 100000)
	m.RecordStrategyTrade("momentum", -100.0)
	assert.True(t, m.CheckStrategyHealth("momentum"))
}
