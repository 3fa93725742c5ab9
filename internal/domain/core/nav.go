package core

// Drawdown computes (peak-current)/peak, 0 when peak is 0. Both the
// Risk Manager and the Performance Tracker track their own peak-NAV
// series independently and call this same pure helper; neither reads
// the other's state.
func Drawdown(peakNAV, currentNAV float64) float64 {
	if peakNAV == 0 {
		return 0
	}
	return (peakNAV - currentNAV) / peakNAV
}
