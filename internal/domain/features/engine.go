package features

import (
	"time"

	"github.com/sawpanic/tradingcore/internal/domain/core"
)

const (
	defaultMaxHistory = 1000
	normalizeLookback  = 100
)

var momentumLookbacks = []int{5, 10, 20, 60}

var zscoreCandidates = []string{
	"log_return_1", "log_return_5", "log_return_20",
	"realized_vol_20", "vwap_deviation", "volume_ratio",
	"rsi_14", "bollinger_position", "macd_histogram",
}

// Engine is the real-time feature calculation engine. It maintains a
// per-symbol rolling OHLCV buffer bounded at MaxHistory bars and a
// feature cache keyed by symbol, invalidated on every Update to that
// symbol's buffer. The cache holds one entry per symbol; it has no size
// bound and evicts nothing other than on invalidation.
type Engine struct {
	MaxHistory int

	bars  map[string][]core.MarketData
	cache map[string]map[string][]float64
}

// NewEngine constructs an Engine with the given history cap (0 uses the
// default of 1000 bars).
func NewEngine(maxHistory int) *Engine {
	if maxHistory <= 0 {
		maxHistory = defaultMaxHistory
	}
	return &Engine{
		MaxHistory: maxHistory,
		bars:       make(map[string][]core.MarketData),
		cache:      make(map[string]map[string][]float64),
	}
}

// Update appends one bar to the symbol's buffer, trims to MaxHistory,
// and invalidates the symbol's feature cache.
func (e *Engine) Update(bar core.MarketData) {
	e.bars[bar.Symbol] = append(e.bars[bar.Symbol], bar)
	if len(e.bars[bar.Symbol]) > e.MaxHistory {
		excess := len(e.bars[bar.Symbol]) - e.MaxHistory
		e.bars[bar.Symbol] = e.bars[bar.Symbol][excess:]
	}
	delete(e.cache, bar.Symbol)
}

// UpdateBatch replaces the symbol's whole buffer with the last
// MaxHistory bars of ohlcv, and invalidates its cache.
func (e *Engine) UpdateBatch(symbol string, ohlcv []core.MarketData) {
	if len(ohlcv) > e.MaxHistory {
		ohlcv = ohlcv[len(ohlcv)-e.MaxHistory:]
	}
	cp := make([]core.MarketData, len(ohlcv))
	copy(cp, ohlcv)
	e.bars[symbol] = cp
	delete(e.cache, symbol)
}

// GetFeatures returns the latest value of every computed feature for
// symbol. Returns an empty FeatureSet if fewer than 2 bars are buffered.
func (e *Engine) GetFeatures(symbol string, ts time.Time) core.FeatureSet {
	if ts.IsZero() {
		ts = time.Now()
	}
	bars := e.bars[symbol]
	if len(bars) < 2 {
		return core.FeatureSet{Symbol: symbol, Timestamp: ts, Features: map[string]float64{}}
	}

	all, ok := e.cache[symbol]
	if !ok {
		all = e.calculateAll(bars)
		e.cache[symbol] = all
	}

	latest := make(map[string]float64, len(all))
	for name, series := range all {
		if len(series) > 0 {
			latest[name] = series[len(series)-1]
		}
	}
	return core.FeatureSet{Symbol: symbol, Timestamp: ts, Features: latest}
}

// GetOHLCV returns the raw buffered bars for symbol (read-only).
func (e *Engine) GetOHLCV(symbol string) []core.MarketData {
	return e.bars[symbol]
}

// ClearCache invalidates the cache for symbol, or every symbol when
// symbol is empty.
func (e *Engine) ClearCache(symbol string) {
	if symbol == "" {
		e.cache = make(map[string]map[string][]float64)
		return
	}
	delete(e.cache, symbol)
}

// GetFeatureNames returns the fixed catalog of feature names this
// engine can produce.
func (e *Engine) GetFeatureNames() []string {
	return []string{
		"log_return_1", "log_return_5", "log_return_20",
		"realized_vol_20", "realized_vol_60", "ewma_vol",
		"momentum_5", "momentum_10", "momentum_20", "momentum_60",
		"vwap_deviation",
		"volume_ratio", "volume_trend", "dollar_volume",
		"order_book_imbalance",
		"rsi_14", "macd", "macd_signal", "macd_histogram",
		"bollinger_position", "atr_14",
		"vol_regime", "trend_regime", "hurst",
		"vol_of_vol",
	}
}

func (e *Engine) calculateAll(bars []core.MarketData) map[string][]float64 {
	n := len(bars)
	prices := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	volume := make([]float64, n)
	bidSize := make([]float64, n)
	askSize := make([]float64, n)
	var volumeSum float64
	hasBookSizes := true
	for i, b := range bars {
		prices[i] = b.Close
		high[i] = b.High
		low[i] = b.Low
		volume[i] = b.Volume
		volumeSum += b.Volume
		bidSize[i] = b.BidSize
		askSize[i] = b.AskSize
		if b.BidSize == 0 && b.AskSize == 0 {
			hasBookSizes = false
		}
	}

	out := make(map[string][]float64)

	returns := LogReturns(prices, 1)
	out["log_return_1"] = returns
	out["log_return_5"] = LogReturns(prices, 5)
	out["log_return_20"] = LogReturns(prices, 20)

	out["realized_vol_20"] = RealizedVolatility(returns, 20, true)
	out["realized_vol_60"] = RealizedVolatility(returns, 60, true)
	out["ewma_vol"] = EWMAVolatility(returns, 0.94, true)

	for name, series := range Momentum(prices, momentumLookbacks) {
		out[name] = series
	}

	if volumeSum > 0 {
		out["vwap_deviation"] = VWAPDeviation(prices, volume, 20)
	}

	out["volume_ratio"] = VolumeRatio(volume, 20)
	out["volume_trend"] = VolumeTrend(volume, 5, 20)
	out["dollar_volume"] = DollarVolume(prices, volume)

	if hasBookSizes {
		out["order_book_imbalance"] = OrderBookImbalance(bidSize, askSize)
	}

	out["rsi_14"] = RSI(prices, 14)

	macd := MACD(prices, 12, 26, 9)
	out["macd"] = macd.MACD
	out["macd_signal"] = macd.Signal
	out["macd_histogram"] = macd.Histogram

	out["bollinger_position"] = BollingerPosition(prices, 20, 2.0)
	out["atr_14"] = ATR(high, low, prices, 14)

	vol := out["realized_vol_20"]
	volRegime := VolatilityRegime(vol, 25, 75, 252)
	out["vol_regime"] = intsToFloats(volRegime)
	out["trend_regime"] = intsToFloats(TrendRegime(prices, 14))
	out["hurst"] = HurstExponent(prices, 100)

	out["vol_of_vol"] = RealizedVolatility(diffPrepend(vol), 20, false)

	normalized := e.normalizeFeatures(out)
	for name, series := range normalized {
		out[name+"_zscore"] = series
	}

	return out
}

func (e *Engine) normalizeFeatures(features map[string][]float64) map[string][]float64 {
	out := make(map[string][]float64)
	for _, name := range zscoreCandidates {
		series, ok := features[name]
		if !ok {
			continue
		}
		n := len(series)
		z := make([]float64, n)
		for i := normalizeLookback; i < n; i++ {
			window := series[i-normalizeLookback : i]
			mean := meanf(window)
			std := stdevSample(window)
			if std > 1e-8 {
				z[i] = clip((series[i]-mean)/std, -3, 3)
			}
		}
		out[name] = z
	}
	return out
}

func intsToFloats(xs []int) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = float64(x)
	}
	return out
}

func diffPrepend(xs []float64) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}
	out[0] = 0
	for i := 1; i < len(xs); i++ {
		out[i] = xs[i] - xs[i-1]
	}
	return out
}
