package features

import "math"

// LogReturns computes r_t = ln(P_t / P_{t-periods}); the first `periods`
// entries are 0 (insufficient history).
func LogReturns(prices []float64, periods int) []float64 {
	out := make([]float64, len(prices))
	if len(prices) <= periods {
		return out
	}
	for i := periods; i < len(prices); i++ {
		out[i] = math.Log(prices[i] / prices[i-periods])
	}
	return out
}

// RealizedVolatility is the rolling stdev of returns over window,
// annualized by sqrt(252) when requested. Windows with insufficient
// history fall back to a 0.15 floor, matching the reference
// implementation's NaN-fill behavior.
func RealizedVolatility(returns []float64, window int, annualize bool) []float64 {
	out := make([]float64, len(returns))
	for i := range out {
		out[i] = 0.15
	}
	for i := window - 1; i < len(returns); i++ {
		slice := returns[i-window+1 : i+1]
		s := stdevSample(slice)
		if annualize {
			s *= math.Sqrt(252)
		}
		out[i] = s
	}
	return out
}

// EWMAVolatility is RiskMetrics-style EWMA variance:
// sigma^2_t = decay*sigma^2_{t-1} + (1-decay)*r^2_{t-1}.
func EWMAVolatility(returns []float64, decay float64, annualize bool) []float64 {
	n := len(returns)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	variance := make([]float64, n)
	variance[0] = returns[0] * returns[0]
	if variance[0] == 0 {
		variance[0] = 0.0001
	}
	for i := 1; i < n; i++ {
		variance[i] = decay*variance[i-1] + (1-decay)*returns[i-1]*returns[i-1]
	}
	for i := 0; i < n; i++ {
		v := math.Sqrt(variance[i])
		if annualize {
			v *= math.Sqrt(252)
		}
		out[i] = v
	}
	return out
}

// Momentum computes P_t/P_{t-lb} - 1 for each lookback.
func Momentum(prices []float64, lookbacks []int) map[string][]float64 {
	result := make(map[string][]float64, len(lookbacks))
	for _, lb := range lookbacks {
		out := make([]float64, len(prices))
		if len(prices) > lb {
			for i := lb; i < len(prices); i++ {
				out[i] = prices[i]/prices[i-lb] - 1
			}
		}
		result[momentumKey(lb)] = out
	}
	return result
}

func momentumKey(lb int) string {
	switch lb {
	case 5:
		return "momentum_5"
	case 10:
		return "momentum_10"
	case 20:
		return "momentum_20"
	case 60:
		return "momentum_60"
	default:
		return "momentum_custom"
	}
}

// VWAPDeviation is (P - VWAP)/VWAP over a rolling window.
func VWAPDeviation(prices, volume []float64, window int) []float64 {
	n := len(prices)
	out := make([]float64, n)
	for i := window; i < n; i++ {
		p := prices[i-window : i]
		v := volume[i-window : i]
		var pv, vsum float64
		for j := range p {
			pv += p[j] * v[j]
			vsum += v[j]
		}
		if vsum > 0 {
			vwap := pv / vsum
			if vwap > 0 {
				out[i] = (prices[i] - vwap) / vwap
			}
		}
	}
	return out
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
