package core

// PositionSize is produced by the sizer and may be scaled exactly once
// more by the risk manager. Capped is sticky: once true, it stays true
// through subsequent scaling.
type PositionSize struct {
	PercentOfNAV  float64
	DollarAmount  float64
	NumUnits      float64
	VolScalar     float64
	RawSignal     float64
	Capped        bool
}

// Scale returns a new PositionSize with every magnitude multiplied by
// factor. Sign is preserved; Capped is carried forward unconditionally
// (sticky), never cleared by scaling.
func (p PositionSize) Scale(factor float64) PositionSize {
	return PositionSize{
		PercentOfNAV: p.PercentOfNAV * factor,
		DollarAmount: p.DollarAmount * factor,
		NumUnits:     p.NumUnits * factor,
		VolScalar:    p.VolScalar,
		RawSignal:    p.RawSignal,
		Capped:       p.Capped,
	}
}

// RiskCheckResult is produced by the risk gate per proposed position.
type RiskCheckResult struct {
	Approved         bool
	Violations       []string
	AdjustedPosition *PositionSize
	RiskScore        float64
}
