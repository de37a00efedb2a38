package rfpulse

// Numeric contract shared by the OOK estimator, FSK tracker, and detector.
// These values are reproduced exactly from the specification; do not
// "clean up" the magic numbers, they encode the behavior of the original
// envelope/discriminator tuning.
const (
	OOKHighLowRatio = 8
	OOKMinHighLevel = 1000
	OOKMaxHighLevel = 16384
	OOKMaxLowLevel  = 8192
	OOKEstHighRatio = 64
	OOKEstLowRatio  = 1024

	FSKDefaultFMDelta = 6000
	FSKEstRatio       = 32

	// PDMinPulseSamples is the minimum run length accepted as a real
	// pulse or gap; shorter runs are spurious and are coalesced away by
	// both the OOK detector and the FSK tracker.
	PDMinPulseSamples = 10

	// PDMinPulses is the FSK entry count that must be exceeded inside
	// the first AM pulse before the detector will declare the packet FSK
	// rather than OOK.
	PDMinPulses = 3

	PDMaxGapRatio = 10
	PDMinGapMS    = 10
	PDMaxGapMS    = 800

	// MaxHistBins bounds the pulse analyzer's histogram bin count.
	MaxHistBins = 16

	// HistTolerance is the relative-tolerance width used by the
	// histogram's bin-equivalence predicate: |x-y| < tolerance*max(x,y).
	HistTolerance = 0.20
)

func clip(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func iabs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
