package rfpulse

// OOKEstimator tracks the adaptive noise-floor (low) and carrier-level
// (high) envelope estimates described in spec §4.B. It persists across
// packets — it is learned online and is never reset by a packet
// boundary, only ever nudged by every envelope sample it sees.
type OOKEstimator struct {
	Low  int
	High int
}

// NewOOKEstimator returns an estimator with Low seeded at zero and High at
// OOKMinHighLevel, so both start inside their bounds; the low estimate
// will converge onto the noise floor within a few thousand IDLE samples.
func NewOOKEstimator() *OOKEstimator {
	return &OOKEstimator{High: OOKMinHighLevel}
}

// UpdateLow folds one IDLE-phase envelope sample into the low (noise
// floor) estimate. The `+sign(delta)` term is a fixed-point bias: without
// it, integer division of a small delta by OOKEstLowRatio can truncate to
// zero forever and the estimator would never move off its seed value.
func (e *OOKEstimator) UpdateLow(am int) {
	delta := am - e.Low
	e.Low += delta / OOKEstLowRatio
	e.Low += sign(delta)
	if e.Low > OOKMaxLowLevel {
		e.Low = OOKMaxLowLevel
	}
	// The high estimate has no IDLE-phase EMA of its own (§4.B); its
	// EMA runs in UpdateHigh once a pulse is seen. Until then it must
	// not sit below the 8x-low default, or the rising threshold collapses
	// to half the noise floor and every noise sample looks like a pulse.
	// Ratchet it up to the 8x-low default without disturbing a higher
	// value already learned from a real pulse.
	if floor := e.DefaultHigh(); e.High < floor {
		e.High = floor
	}
}

// UpdateHigh folds one PULSE-phase envelope sample into the high
// (carrier level) estimate, clipped to the configured band.
func (e *OOKEstimator) UpdateHigh(am int) {
	e.High += (am - e.High) / OOKEstHighRatio
	e.High = clip(e.High, OOKMinHighLevel, OOKMaxHighLevel)
}

// DefaultHigh returns the high estimate implied purely by the current low
// estimate, used before any PULSE has been observed to seed High.
func (e *OOKEstimator) DefaultHigh() int {
	return clip(OOKHighLowRatio*e.Low, OOKMinHighLevel, OOKMaxHighLevel)
}

// Thresholds computes the rising/falling comparison thresholds for the
// current estimator state. If levelLimit is non-zero it replaces the
// computed midpoint entirely; hysteresis is still derived from whichever
// threshold is in effect, and the caller must keep feeding UpdateLow /
// UpdateHigh regardless of levelLimit so that clearing it later resumes
// from a live estimate rather than a stale one (spec §9).
func (e *OOKEstimator) Thresholds(levelLimit int) (rising, falling int) {
	thr := e.Low + (e.High-e.Low)/2
	if levelLimit != 0 {
		thr = levelLimit
	}
	hyst := thr / 8
	return thr + hyst, thr - hyst
}
