package features

import "math"

// RSI computes the Relative Strength Index via Wilder's smoothing.
// Returns 50 (neutral) for every bar until enough history accumulates.
func RSI(prices []float64, period int) []float64 {
	n := len(prices)
	out := make([]float64, n)
	for i := range out {
		out[i] = 50.0
	}
	if n < period+1 {
		return out
	}

	gains := make([]float64, n-1)
	losses := make([]float64, n-1)
	for i := 1; i < n; i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gains[i-1] = delta
		} else {
			losses[i-1] = -delta
		}
	}

	avgGain := meanf(gains[:period])
	avgLoss := meanf(losses[:period])
	out[period] = rsiFromAvg(avgGain, avgLoss)

	for i := period; i < n-1; i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
		out[i+1] = rsiFromAvg(avgGain, avgLoss)
	}
	return out
}

func rsiFromAvg(avgGain, avgLoss float64) float64 {
	if avgLoss <= 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACDResult holds the three MACD series.
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes fast/slow EMA convergence-divergence and its signal
// line.
func MACD(prices []float64, fast, slow, signal int) MACDResult {
	fastEMA := ema(prices, fast)
	slowEMA := ema(prices, slow)
	macdLine := make([]float64, len(prices))
	for i := range macdLine {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine := ema(macdLine, signal)
	histogram := make([]float64, len(prices))
	for i := range histogram {
		histogram[i] = macdLine[i] - signalLine[i]
	}
	return MACDResult{MACD: macdLine, Signal: signalLine, Histogram: histogram}
}

func ema(data []float64, period int) []float64 {
	n := len(data)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	alpha := 2.0 / float64(period+1)
	out[0] = data[0]
	for i := 1; i < n; i++ {
		out[i] = alpha*data[i] + (1-alpha)*out[i-1]
	}
	return out
}

// BollingerPosition is the price's position within Bollinger Bands,
// clipped to [-1, 1]: -1 at the lower band, 0 at the SMA, +1 at the
// upper band.
func BollingerPosition(prices []float64, window int, numStd float64) []float64 {
	n := len(prices)
	out := make([]float64, n)
	for i := window - 1; i < n; i++ {
		win := prices[i-window+1 : i+1]
		sma := meanf(win)
		std := stdevSample(win)
		if std > 0 {
			out[i] = clip((prices[i]-sma)/(numStd*std), -1, 1)
		}
	}
	return out
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

// ATR computes the Average True Range via Wilder's smoothing.
func ATR(high, low, close []float64, period int) []float64 {
	n := len(high)
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	tr := make([]float64, n-1)
	for i := 1; i < n; i++ {
		hl := high[i] - low[i]
		hc := math.Abs(high[i] - close[i-1])
		lc := math.Abs(low[i] - close[i-1])
		tr[i-1] = math.Max(hl, math.Max(hc, lc))
	}
	if len(tr) >= period {
		out[period] = meanf(tr[:period])
		for i := period + 1; i < n; i++ {
			out[i] = (out[i-1]*float64(period-1) + tr[i-1]) / float64(period)
		}
	}
	return out
}
