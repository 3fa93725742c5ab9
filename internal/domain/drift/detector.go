// Package drift implements the Drift Detector: KS and PSI tests
// against bounded reference windows per feature, prediction-error
// drift, and the should_retrain policy.
package drift

import (
	"math"
	"sort"
)

const (
	defaultWindowSize = 1000
	ksAlpha           = 0.05
	psiThreshold      = 0.25
	psiFloor          = 1e-4
	recentTestWindow  = 100
)

// Severity buckets a drift test's magnitude.
type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Result is the outcome of one drift test.
type Result struct {
	Statistic     float64
	PValue        float64
	DriftDetected bool
	Severity      Severity
	Feature       string
}

// Detector holds bounded reference windows per feature and a rolling
// log of recent test results for should_retrain / get_drift_summary.
type Detector struct {
	windowSize int
	references map[string][]float64
	recent     []Result
}

// New constructs a Detector with the given reference window size
// (spec default 1000).
func New(windowSize int) *Detector {
	if windowSize <= 0 {
		windowSize = defaultWindowSize
	}
	return &Detector{windowSize: windowSize, references: make(map[string][]float64)}
}

// SetReference replaces the reference distribution for a feature,
// bounded to the configured window size (most recent values kept).
func (d *Detector) SetReference(feature string, values []float64) {
	if len(values) > d.windowSize {
		values = values[len(values)-d.windowSize:]
	}
	cp := make([]float64, len(values))
	copy(cp, values)
	d.references[feature] = cp
}

// TestKS runs a two-sample Kolmogorov-Smirnov test of current against
// the stored reference for feature.
func (d *Detector) TestKS(feature string, current []float64) Result {
	ref := d.references[feature]
	res := ksTest(ref, current)
	res.Feature = feature
	d.record(res)
	return res
}

// TestPSI bins the reference into 10 percentile bins (infinite end
// edges) and computes the Population Stability Index against current.
func (d *Detector) TestPSI(feature string, current []float64) Result {
	ref := d.references[feature]
	res := psiTest(ref, current)
	res.Feature = feature
	d.record(res)
	return res
}

// TestAllFeatures runs both KS and PSI for every feature with a stored
// reference and current sample, keeping whichever result has the
// larger test statistic when either flags drift.
func (d *Detector) TestAllFeatures(currents map[string][]float64) map[string]Result {
	out := make(map[string]Result, len(currents))
	for feature, current := range currents {
		ks := ksTest(d.references[feature], current)
		psi := psiTest(d.references[feature], current)
		best := ks
		if psi.Statistic > ks.Statistic {
			best = psi
		}
		best.Feature = feature
		d.record(best)
		out[feature] = best
	}
	return out
}

// TestPredictionError runs a KS test of (pred - actual) against a
// reference window of the same quantity.
func (d *Detector) TestPredictionError(name string, predictions, actuals, referenceErrors []float64) Result {
	n := len(predictions)
	if len(actuals) < n {
		n = len(actuals)
	}
	errors := make([]float64, n)
	for i := 0; i < n; i++ {
		errors[i] = predictions[i] - actuals[i]
	}
	res := ksTest(referenceErrors, errors)
	res.Feature = name
	d.record(res)
	return res
}

func (d *Detector) record(r Result) {
	d.recent = append(d.recent, r)
	if len(d.recent) > recentTestWindow {
		d.recent = d.recent[len(d.recent)-recentTestWindow:]
	}
}

// ShouldRetrain reports true if the recent drift rate (over the last
// 100 recorded tests) exceeds threshold, or any high-severity drift was
// recorded in that window.
func (d *Detector) ShouldRetrain(threshold float64) bool {
	summary := d.GetDriftSummary()
	if summary.HighCount > 0 {
		return true
	}
	return summary.DriftRate > threshold
}

// Summary aggregates the recent test log for diagnostics.
type Summary struct {
	DriftRate        float64
	SeverityCounts   map[Severity]int
	HighCount        int
	DriftingFeatures map[string]bool
}

// GetDriftSummary reports drift rate, per-severity counts, and the set
// of currently-drifting feature names over the last 100 recorded
// tests.
func (d *Detector) GetDriftSummary() Summary {
	summary := Summary{
		SeverityCounts:   make(map[Severity]int),
		DriftingFeatures: make(map[string]bool),
	}
	if len(d.recent) == 0 {
		return summary
	}
	var driftCount int
	for _, r := range d.recent {
		summary.SeverityCounts[r.Severity]++
		if r.Severity == SeverityHigh {
			summary.HighCount++
		}
		if r.DriftDetected {
			driftCount++
			summary.DriftingFeatures[r.Feature] = true
		}
	}
	summary.DriftRate = float64(driftCount) / float64(len(d.recent))
	return summary
}

// ksTest computes the two-sample KS statistic and an asymptotic
// p-value, classifying severity by the statistic's magnitude.
func ksTest(reference, current []float64) Result {
	if len(reference) == 0 || len(current) == 0 {
		return Result{Severity: SeverityNone}
	}
	ref := append([]float64(nil), reference...)
	cur := append([]float64(nil), current...)
	sort.Float64s(ref)
	sort.Float64s(cur)

	stat := ksStatistic(ref, cur)
	n1, n2 := float64(len(ref)), float64(len(cur))
	enSize := math.Sqrt(n1 * n2 / (n1 + n2))
	p := ksPValue(stat, enSize)

	detected := p < ksAlpha
	return Result{
		Statistic:     stat,
		PValue:        p,
		DriftDetected: detected,
		Severity:      ksSeverity(stat, detected),
	}
}

func ksStatistic(ref, cur []float64) float64 {
	i, j := 0, 0
	var cdf1, cdf2, maxDiff float64
	n1, n2 := float64(len(ref)), float64(len(cur))
	for i < len(ref) && j < len(cur) {
		if ref[i] <= cur[j] {
			i++
			cdf1 = float64(i) / n1
		} else {
			j++
			cdf2 = float64(j) / n2
		}
		diff := math.Abs(cdf1 - cdf2)
		if diff > maxDiff {
			maxDiff = diff
		}
	}
	return maxDiff
}

// ksPValue uses the Kolmogorov asymptotic approximation
// Q(x) = 2*sum((-1)^(k-1)*exp(-2*k^2*x^2)) for x = en*stat.
func ksPValue(stat, enSize float64) float64 {
	x := enSize * stat
	if x < 0.2 {
		return 1.0
	}
	var sum float64
	for k := 1; k <= 100; k++ {
		term := math.Exp(-2 * float64(k*k) * x * x)
		if k%2 == 1 {
			sum += term
		} else {
			sum -= term
		}
	}
	p := 2 * sum
	return clip(p, 0, 1)
}

func ksSeverity(stat float64, detected bool) Severity {
	if !detected {
		return SeverityNone
	}
	switch {
	case stat > 0.3:
		return SeverityHigh
	case stat > 0.15:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// psiTest bins reference into 10 percentile bins with infinite end
// edges, then computes PSI = Sum((a-e)*ln(a/e)) with a small-probability
// floor. psi_pvalue = 1 - PSI is kept exactly as a diagnostic scalar —
// not a statistically meaningful p-value.
func psiTest(reference, current []float64) Result {
	if len(reference) < 10 || len(current) == 0 {
		return Result{Severity: SeverityNone}
	}
	edges := percentileBinEdges(reference, 10)
	expected := binProportions(reference, edges)
	actual := binProportions(current, edges)

	var psi float64
	for i := range expected {
		e := math.Max(expected[i], psiFloor)
		a := math.Max(actual[i], psiFloor)
		psi += (a - e) * math.Log(a/e)
	}

	detected := psi >= psiThreshold
	return Result{
		Statistic:     psi,
		PValue:        1 - psi,
		DriftDetected: detected,
		Severity:      psiSeverity(psi),
	}
}

func psiSeverity(psi float64) Severity {
	switch {
	case psi >= 0.25:
		return SeverityHigh
	case psi >= 0.1:
		return SeverityMedium
	case psi >= 0.05:
		return SeverityLow
	default:
		return SeverityNone
	}
}

// percentileBinEdges returns numBins-1 interior edges at evenly spaced
// percentiles of sorted data, bracketed conceptually by -Inf/+Inf.
func percentileBinEdges(data []float64, numBins int) []float64 {
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	edges := make([]float64, numBins-1)
	for i := range edges {
		p := float64(i+1) / float64(numBins)
		edges[i] = percentile(sorted, p)
	}
	return edges
}

func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := p * float64(n-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func binProportions(data, edges []float64) []float64 {
	counts := make([]float64, len(edges)+1)
	for _, v := range data {
		bin := sort.SearchFloat64s(edges, v)
		counts[bin]++
	}
	total := float64(len(data))
	props := make([]float64, len(counts))
	for i, c := range counts {
		if total > 0 {
			props[i] = c / total
		}
	}
	return props
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
