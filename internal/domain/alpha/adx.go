package alpha

import "math"

// wilderADX computes the Average Directional Index via Wilder's
// smoothing of true range and directional movement. Returns a series
// the same length as the inputs; entries before enough history has
// accumulated are 0.
func wilderADX(high, low, close []float64, period int) []float64 {
	n := len(high)
	out := make([]float64, n)
	if n < period*2+1 {
		return out
	}

	tr := make([]float64, n)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		hl := high[i] - low[i]
		hc := math.Abs(high[i] - close[i-1])
		lc := math.Abs(low[i] - close[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))

		upMove := high[i] - high[i-1]
		downMove := low[i-1] - low[i]
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
	}

	smoothTR := wilderSmoothSeries(tr, period)
	smoothPlusDM := wilderSmoothSeries(plusDM, period)
	smoothMinusDM := wilderSmoothSeries(minusDM, period)

	dx := make([]float64, n)
	for i := range dx {
		if smoothTR[i] == 0 {
			continue
		}
		plusDI := 100 * smoothPlusDM[i] / smoothTR[i]
		minusDI := 100 * smoothMinusDM[i] / smoothTR[i]
		sum := plusDI + minusDI
		if sum > 0 {
			dx[i] = 100 * math.Abs(plusDI-minusDI) / sum
		}
	}

	adxStart := period * 2
	if adxStart >= n {
		return out
	}
	out[adxStart] = meanf(dx[period+1 : adxStart+1])
	for i := adxStart + 1; i < n; i++ {
		out[i] = (out[i-1]*float64(period-1) + dx[i]) / float64(period)
	}
	return out
}

// wilderSmoothSeries applies Wilder's smoothing (first value is the
// sum of the first `period` entries starting at index 1, then the
// running update prev - prev/period + x).
func wilderSmoothSeries(xs []float64, period int) []float64 {
	n := len(xs)
	out := make([]float64, n)
	if n <= period {
		return out
	}
	out[period] = sumf(xs[1 : period+1])
	for i := period + 1; i < n; i++ {
		out[i] = out[i-1] - out[i-1]/float64(period) + xs[i]
	}
	return out
}

func sumf(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

func meanf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return sumf(xs) / float64(len(xs))
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

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
