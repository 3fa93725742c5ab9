// Package trading implements the Trading System orchestrator: one
// synchronous iteration per (symbol, tick) wiring together feature
// calculation, regime classification, per-model and ensemble signal
// generation, position sizing, risk gating, order creation, and the
// serial fill-feedback path into portfolio, performance, risk, the
// model selector, and the ensemble.
package trading

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/tradingcore/internal/domain/alpha"
	"github.com/sawpanic/tradingcore/internal/domain/core"
	"github.com/sawpanic/tradingcore/internal/domain/drift"
	"github.com/sawpanic/tradingcore/internal/domain/execution"
	"github.com/sawpanic/tradingcore/internal/domain/features"
	"github.com/sawpanic/tradingcore/internal/domain/learner"
	"github.com/sawpanic/tradingcore/internal/domain/performance"
	"github.com/sawpanic/tradingcore/internal/domain/portfolio"
	"github.com/sawpanic/tradingcore/internal/domain/risk"
	"github.com/sawpanic/tradingcore/internal/domain/sizing"
)

const recentAttributionWindow = 60 * time.Minute

// fillAttributionWindow bounds how far back On-fill attribution looks
// into the decision log for the model "most responsible" for the
// closed position (max |value| within the window).
var fillAttributionWindow = recentAttributionWindow

// TradingSystem owns every component and drives one iteration per
// (symbol, tick), per the single-threaded cooperative scheduling model.
type TradingSystem struct {
	cfg Config

	featureEngine *features.Engine
	models        map[string]alpha.Model
	ensemble      *alpha.Ensemble
	sizer         *sizing.Sizer
	riskManager   *risk.Manager
	ledger        *portfolio.Ledger
	execEngine    *execution.Engine
	tracker       *performance.Tracker
	driftDetector *drift.Detector
	selector      *learner.Selector
	onlineLearner *learner.OnlineLearner

	decisionLog   []core.DecisionLog
	lastTradeTime map[string]time.Time
	sectorOf      map[string]string
	openOrders    map[string]*execution.OrderState
}

// New wires every component from cfg. models is the registry of
// enabled alpha models (keyed by Name()); rng drives every
// stochastic component (ensemble Thompson sampling, model selection,
// TWAP jitter) and must be supplied for reproducibility.
func New(cfg Config, models map[string]alpha.Model, rng *rand.Rand) *TradingSystem {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	sizingCfg := sizing.DefaultConfig()
	sizingCfg.TargetVol = cfg.TargetVolatility
	sizingCfg.MaxLeverage = cfg.MaxLeverage
	sizingCfg.MaxPositionPct = cfg.MaxPositionPct

	limits := risk.DefaultLimits()
	limits.MaxDailyLossPct = cfg.MaxDailyLossPct
	limits.MaxDrawdownPct = cfg.MaxDrawdownPct
	limits.MaxPositionPct = cfg.MaxPositionPct
	limits.MaxLeverage = cfg.MaxLeverage
	limits.MinLiquidityRatio = cfg.MinLiquidityRatio
	limits.MaxSectorExposure = cfg.MaxSectorExposure

	execCfg := execution.DefaultConfig()
	execCfg.MinOrderValue = cfg.MinOrderValue
	execCfg.MaxOrderValue = cfg.MaxOrderValue

	enabled := make(map[string]alpha.Model, len(models))
	for name, m := range models {
		if on, ok := cfg.ModelEnabled[name]; ok && !on {
			continue
		}
		enabled[name] = m
	}

	return &TradingSystem{
		cfg:           cfg,
		featureEngine: features.NewEngine(0),
		models:        enabled,
		ensemble:      alpha.NewEnsemble(enabled, rng),
		sizer:         sizing.New(sizingCfg),
		riskManager:   risk.New(limits, cfg.InitialCapital),
		ledger:        portfolio.New(cfg.InitialCapital),
		execEngine:    execution.New(execCfg, rng),
		tracker:       performance.New(),
		driftDetector: drift.New(cfg.DriftWindowSize),
		selector:      learner.NewSelector(0.1, 20, cfg.ThompsonDecay, rng),
		onlineLearner: learner.NewOnlineLearner(cfg.RetrainFrequencyDays, cfg.MinSamplesForRetrain, cfg.ValidationWindowDays, nil),
		lastTradeTime: make(map[string]time.Time),
		sectorOf:      make(map[string]string),
		openOrders:    make(map[string]*execution.OrderState),
	}
}

// SetSector records the sector attribution used by risk's sector
// exposure check.
func (ts *TradingSystem) SetSector(symbol, sector string) {
	ts.sectorOf[symbol] = sector
}

// UpdateBar feeds one OHLCV bar into the feature engine and the
// portfolio ledger's mark-to-market price. This is the market-bar
// inbound entry point; it never yields.
func (ts *TradingSystem) UpdateBar(bar core.MarketData) {
	ts.featureEngine.Update(bar)
	ts.ledger.UpdatePrice(bar.Symbol, bar.Close)
}

// TradingIteration runs one full iteration for symbol at now. ctx is
// honored only at entry (an already-cancelled context aborts the
// iteration before any owned state is mutated) — per the concurrency
// model, nothing inside feature calculation, signal generation,
// sizing, or risk checking may yield, so ctx is never threaded further
// in.
func (ts *TradingSystem) TradingIteration(ctx context.Context, symbol string, now time.Time, forced bool) (core.DecisionLog, error) {
	if err := ctx.Err(); err != nil {
		return core.DecisionLog{}, err
	}

	if !forced {
		if last, ok := ts.lastTradeTime[symbol]; ok {
			if now.Sub(last) < time.Duration(ts.cfg.MinTradeIntervalSeconds)*time.Second {
				return core.DecisionLog{}, nil
			}
		}
	}

	bars := ts.featureEngine.GetOHLCV(symbol)
	if len(bars) < 50 {
		d := ts.record(core.DecisionLog{
			Timestamp: now,
			Symbol:    symbol,
			Regime:    core.RegimeNormal,
			Signals: map[string]core.AlphaSignal{
				"ensemble": core.NullSignal(core.ReasonInsufficientData, "ensemble", now),
			},
		})
		return d, nil
	}

	fs := ts.featureEngine.GetFeatures(symbol, now)
	regime := classifyRegime(fs)

	signals := make(map[string]core.AlphaSignal, len(ts.models)+1)
	for name, model := range ts.models {
		if enabled, ok := ts.cfg.ModelEnabled[name]; ok && !enabled {
			continue
		}
		signals[name] = model.GenerateSignal(bars, fs)
	}
	ensembleSignal := ts.ensemble.GenerateCombinedSignal(bars, fs, regime, true)
	signals["ensemble"] = ensembleSignal

	nav := ts.ledger.NAV()
	price := bars[len(bars)-1].Close
	assetVol := fs.Get("realized_vol_20", ts.cfg.TargetVolatility)
	positionSize := ts.sizer.SizePosition(ensembleSignal, nav, price, assetVol, 1.0)

	ts.riskManager.UpdateNAV(nav)

	existingQty, _ := ts.positionQuantity(symbol)
	dailyVolume := fs.Get("dollar_volume", 0)
	currentVol := assetVol
	sector := ts.sectorOf[symbol]
	result := ts.riskManager.CheckLimits(positionSize, symbol, sector, dailyVolume, currentVol)

	entry := core.DecisionLog{
		Timestamp:      now,
		Symbol:         symbol,
		Features:       fs.Features,
		Signals:        signals,
		Regime:         regime,
		PositionBefore: existingQty,
		PositionAfter:  existingQty,
	}

	if result.Approved && ensembleSignal.IsActive() {
		adjusted := ts.riskManager.ScaleForRisk(*result.AdjustedPosition, 0.5)
		order, ok := ts.execEngine.CreateOrder(symbol, adjusted, existingQty, price, regime, now)
		if ok {
			state := ts.execEngine.Submit(order, price, dailyVolume, currentVol, bars[len(bars)-1].SpreadBps())
			ts.openOrders[order.ClientOrderID] = state
			entry.Order = &order
			entry.PositionAfter = adjusted.NumUnits
			ts.lastTradeTime[symbol] = now
		}
	} else if !result.Approved {
		log.Debug().Str("symbol", symbol).Strs("violations", result.Violations).Msg("risk check rejected proposed position")
	}

	return ts.record(entry), nil
}

func (ts *TradingSystem) positionQuantity(symbol string) (float64, bool) {
	pos, ok := ts.ledger.Position(symbol)
	if !ok {
		return 0, false
	}
	if pos.Side == core.OrderSideSell {
		return -pos.Quantity, true
	}
	return pos.Quantity, true
}

// record appends entry to the bounded decision log (last 10000
// entries retained, insertion order preserved) and returns it.
func (ts *TradingSystem) record(entry core.DecisionLog) core.DecisionLog {
	ts.decisionLog = append(ts.decisionLog, entry)
	if len(ts.decisionLog) > core.DecisionLogCap {
		ts.decisionLog = ts.decisionLog[len(ts.decisionLog)-core.DecisionLogCap:]
	}
	return entry
}
