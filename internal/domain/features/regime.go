package features

import (
	"math"
	"sort"
)

// VolatilityRegime classifies each bar's vol into 0 (low), 1 (normal),
// or 2 (high) against the trailing lookback's 25th/75th percentiles.
func VolatilityRegime(vol []float64, lowPct, highPct float64, lookback int) []int {
	n := len(vol)
	out := make([]int, n)
	for i := range out {
		out[i] = 1
	}
	for i := lookback; i < n; i++ {
		hist := vol[i-lookback : i]
		lowThresh := percentile(hist, lowPct)
		highThresh := percentile(hist, highPct)
		switch {
		case vol[i] < lowThresh:
			out[i] = 0
		case vol[i] > highThresh:
			out[i] = 2
		default:
			out[i] = 1
		}
	}
	return out
}

// TrendRegime classifies each bar as 0 (ranging) or 1 (trending) via a
// directional-movement ratio: |sum(returns)| / sum(|returns|) over the
// ADX period, trending above 0.3.
func TrendRegime(prices []float64, adxPeriod int) []int {
	n := len(prices)
	out := make([]int, n)
	if n < adxPeriod*2 {
		return out
	}
	for i := adxPeriod; i < n; i++ {
		window := prices[i-adxPeriod : i]
		var totalReturn, totalMovement float64
		for j := 1; j < len(window); j++ {
			r := (window[j] - window[j-1]) / window[j-1]
			totalReturn += r
			totalMovement += math.Abs(r)
		}
		if totalMovement > 0 {
			strength := math.Abs(totalReturn) / totalMovement
			if strength > 0.3 {
				out[i] = 1
			}
		}
	}
	return out
}

// HurstExponent estimates a rolling Hurst exponent via simplified R/S
// analysis across a few lags; defaults to 0.5 (random walk) wherever
// there isn't enough history for at least two lag points.
func HurstExponent(prices []float64, maxLag int) []float64 {
	n := len(prices)
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5
	}
	window := maxLag * 2
	if window > n/2 {
		window = n / 2
	}
	if window <= 0 {
		return out
	}
	candidateLags := []int{10, 20, 40}

	for i := window; i < n; i++ {
		segment := prices[i-window : i]
		var lags []int
		for _, lag := range candidateLags {
			if lag < window/2 {
				lags = append(lags, lag)
			}
		}
		if len(lags) < 2 {
			continue
		}

		type point struct{ lag int; rs float64 }
		var points []point
		for _, lag := range lags {
			nSub := window / lag
			var rsList []float64
			for j := 0; j < nSub; j++ {
				sub := segment[j*lag : (j+1)*lag]
				if len(sub) < 2 {
					continue
				}
				mean := meanf(sub)
				cum := 0.0
				maxC, minC := 0.0, 0.0
				for k, v := range sub {
					cum += v - mean
					if k == 0 || cum > maxC {
						maxC = cum
					}
					if k == 0 || cum < minC {
						minC = cum
					}
				}
				r := maxC - minC
				s := stdevSample(sub)
				if s > 0 {
					rsList = append(rsList, r/s)
				}
			}
			if len(rsList) > 0 {
				points = append(points, point{lag: lag, rs: meanf(rsList)})
			}
		}
		if len(points) < 2 {
			continue
		}
		logLags := make([]float64, len(points))
		logRS := make([]float64, len(points))
		for k, p := range points {
			logLags[k] = math.Log(float64(p.lag))
			logRS[k] = math.Log(p.rs)
		}
		slope := linregSlope(logLags, logRS)
		out[i] = clip(slope, 0, 1)
	}
	return out
}

func percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func linregSlope(x, y []float64) float64 {
	n := float64(len(x))
	if n < 2 {
		return 0
	}
	mx, my := meanf(x), meanf(y)
	var num, den float64
	for i := range x {
		dx := x[i] - mx
		num += dx * (y[i] - my)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return num / den
}
