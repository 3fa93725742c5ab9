package execution

import (
	"math"
	"math/rand"
	"time"
)

// ChildOrder is one slice of a sliced parent order, scheduled at an
// offset from submission time.
type ChildOrder struct {
	Quantity        float64
	ScheduledOffset time.Duration
}

// BuildTWAPSchedule slices total into numSlices child orders spread
// evenly across totalMinutes. The last slice absorbs any remainder.
// When randomizePct is 0, slices are exactly equal and evenly spaced;
// otherwise each non-final slice is jittered uniformly in [0.9, 1.1]x
// base, and its timing offset is jittered uniformly within
// +/- randomizePct*interval.
func BuildTWAPSchedule(total, totalMinutes float64, numSlices int, randomizePct float64, rng *rand.Rand) []ChildOrder {
	if numSlices <= 0 {
		return nil
	}
	base := total / float64(numSlices)
	intervalSeconds := totalMinutes * 60 / float64(numSlices)

	out := make([]ChildOrder, numSlices)
	var cumulative float64
	for i := 0; i < numSlices; i++ {
		var qty float64
		if i == numSlices-1 {
			qty = total - cumulative
		} else {
			qty = base
			if randomizePct > 0 && rng != nil {
				qty *= 0.9 + rng.Float64()*0.2
			}
		}
		cumulative += qty

		offsetSeconds := intervalSeconds * float64(i)
		if randomizePct > 0 && rng != nil {
			offsetSeconds += (rng.Float64()*2 - 1) * randomizePct * intervalSeconds
		}
		out[i] = ChildOrder{Quantity: qty, ScheduledOffset: time.Duration(offsetSeconds * float64(time.Second))}
	}
	return out
}

// DefaultVolumeProfile returns the U-shaped default VWAP volume
// profile over numSlices points, normalized to sum to 1:
// p(x) = 0.5 + 2*(x-0.5)^2, x in [0, 1].
func DefaultVolumeProfile(numSlices int) []float64 {
	if numSlices <= 0 {
		return nil
	}
	profile := make([]float64, numSlices)
	var sum float64
	for i := 0; i < numSlices; i++ {
		var x float64
		if numSlices > 1 {
			x = float64(i) / float64(numSlices-1)
		}
		p := 0.5 + 2*math.Pow(x-0.5, 2)
		profile[i] = p
		sum += p
	}
	for i := range profile {
		profile[i] /= sum
	}
	return profile
}

// BuildVWAPSchedule slices total by a (normalized) volume profile
// across totalMinutes.
func BuildVWAPSchedule(total, totalMinutes float64, profile []float64) []ChildOrder {
	n := len(profile)
	if n == 0 {
		return nil
	}
	intervalSeconds := totalMinutes * 60 / float64(n)
	out := make([]ChildOrder, n)
	for i, p := range profile {
		out[i] = ChildOrder{
			Quantity:        total * p,
			ScheduledOffset: time.Duration(intervalSeconds * float64(i) * float64(time.Second)),
		}
	}
	return out
}

// VWAPTheoreticalPrice computes Sum(p_i*v_i)/Sum(v_i) for a realized
// profile and price series of equal length.
func VWAPTheoreticalPrice(profile, prices []float64) float64 {
	var num, den float64
	for i := range profile {
		num += profile[i] * prices[i]
		den += profile[i]
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// TWAPTheoreticalPrice is the arithmetic mean of slice prices.
func TWAPTheoreticalPrice(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	var sum float64
	for _, p := range prices {
		sum += p
	}
	return sum / float64(len(prices))
}

// VolumeProfile tracks a VWAP participation profile that adapts toward
// realized volumes via EWMA with the given learning rate.
type VolumeProfile struct {
	weights      []float64
	learningRate float64
}

// NewVolumeProfile starts from the U-shaped default for numSlices.
func NewVolumeProfile(numSlices int, learningRate float64) *VolumeProfile {
	return &VolumeProfile{weights: DefaultVolumeProfile(numSlices), learningRate: learningRate}
}

// Weights returns the current normalized profile.
func (v *VolumeProfile) Weights() []float64 { return v.weights }

// UpdateFromRealized nudges each weight toward the realized (normalized)
// volume shape by learningRate, then renormalizes.
func (v *VolumeProfile) UpdateFromRealized(realizedVolumes []float64) {
	if len(realizedVolumes) != len(v.weights) {
		return
	}
	var total float64
	for _, r := range realizedVolumes {
		total += r
	}
	if total == 0 {
		return
	}
	var sum float64
	for i, r := range realizedVolumes {
		normalized := r / total
		v.weights[i] = v.weights[i]*(1-v.learningRate) + normalized*v.learningRate
		sum += v.weights[i]
	}
	if sum > 0 {
		for i := range v.weights {
			v.weights[i] /= sum
		}
	}
}
