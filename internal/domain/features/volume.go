package features

// VolumeRatio is current volume over its rolling mean; falls back to
// 1.0 when the rolling mean is non-positive or undefined.
func VolumeRatio(volume []float64, window int) []float64 {
	n := len(volume)
	out := make([]float64, n)
	for i := range out {
		out[i] = 1.0
	}
	for i := window - 1; i < n; i++ {
		avg := meanf(volume[i-window+1 : i+1])
		if avg > 0 {
			out[i] = volume[i] / avg
		}
	}
	return out
}

// VolumeTrend is short-MA/long-MA - 1.
func VolumeTrend(volume []float64, shortWindow, longWindow int) []float64 {
	n := len(volume)
	out := make([]float64, n)
	for i := longWindow - 1; i < n; i++ {
		shortMA := meanf(volume[i-shortWindow+1 : i+1])
		longMA := meanf(volume[i-longWindow+1 : i+1])
		if longMA > 0 {
			out[i] = shortMA/longMA - 1
		}
	}
	return out
}

// DollarVolume is price*volume elementwise.
func DollarVolume(prices, volume []float64) []float64 {
	out := make([]float64, len(prices))
	for i := range prices {
		out[i] = prices[i] * volume[i]
	}
	return out
}

// OrderBookImbalance is (bid-ask)/(bid+ask), in [-1, 1].
func OrderBookImbalance(bidSize, askSize []float64) []float64 {
	out := make([]float64, len(bidSize))
	for i := range bidSize {
		total := bidSize[i] + askSize[i]
		if total > 0 {
			out[i] = (bidSize[i] - askSize[i]) / total
		}
	}
	return out
}
