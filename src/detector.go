package rfpulse

import "github.com/charmbracelet/log"

// DetectorState is the 4-valued tag driving the top-level OOK packet
// detector.
type DetectorState int

const (
	StateIdle DetectorState = iota
	StatePulse
	StateGapStart
	StateGap
)

func (s DetectorState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StatePulse:
		return "PULSE"
	case StateGapStart:
		return "GAP_START"
	case StateGap:
		return "GAP"
	default:
		return "UNKNOWN"
	}
}

// Detector return codes, per spec §4.D / §6.
const (
	ResultNeedMoreData = 0
	ResultOOKReady     = 1
	ResultFSKReady     = 2
)

// DetectorContext holds everything the streaming detector needs between
// calls to Process: the OOK/FSK estimators, the top-level state machine's
// accumulators, and the chunk-resumption cursor. The source this spec was
// distilled from keeps this in a file-scope singleton; here it is an
// explicit, caller-owned value so multiple radios can be demodulated
// concurrently, each with its own context (spec §5/§9).
type DetectorContext struct {
	OOK *OOKEstimator
	FSK FSKTracker

	State         DetectorState
	PulseLength   int
	MaxPulse      int
	DataCounter   int
	LeadInCounter int

	// FSKF1Est is the detector's own per-packet carrier-frequency
	// estimate, updated every PULSE-phase sample independently of the
	// FSK tracker's own tone estimates (spec §4.D PULSE).
	FSKF1Est int

	SamplesPerMS int

	log *log.Logger
}

// NewDetectorContext returns a freshly IDLE context. fs is the sample
// rate in Hz, used to convert PD_MIN_GAP_MS / PD_MAX_GAP_MS into sample
// counts.
func NewDetectorContext(fs int) *DetectorContext {
	return &DetectorContext{
		OOK:          NewOOKEstimator(),
		SamplesPerMS: fs / 1000,
		log:          NewLogger("detector"),
	}
}

// Process feeds one chunk of time-aligned AM/FM samples through the
// detector, resuming from wherever a previous call left off if a packet
// was emitted mid-chunk. It returns ResultNeedMoreData, ResultOOKReady,
// or ResultFSKReady per spec §6. chunkOffset is the absolute sample
// index of am[0]/fm[0] in the overall session stream; levelLimit, if
// non-zero, overrides the adaptive threshold (spec §4.B).
func (d *DetectorContext) Process(am, fm []int16, levelLimit int, chunkOffset int64, amBuf, fskBuf *PulseBuffer) int {
	n := len(am)
	for d.DataCounter < n {
		i := d.DataCounter
		result := d.step(int(am[i]), int(fm[i]), levelLimit, chunkOffset, amBuf, fskBuf)
		d.DataCounter++
		if result != ResultNeedMoreData {
			return result
		}
	}
	d.DataCounter = 0
	return ResultNeedMoreData
}

func (d *DetectorContext) step(amN, fmN, levelLimit int, chunkOffset int64, amBuf, fskBuf *PulseBuffer) int {
	switch d.State {
	case StateIdle:
		return d.stepIdle(amN, levelLimit, chunkOffset, amBuf, fskBuf)
	case StatePulse:
		return d.stepPulse(amN, fmN, levelLimit, amBuf, fskBuf)
	case StateGapStart:
		return d.stepGapStart(amN, fmN, levelLimit, amBuf, fskBuf)
	case StateGap:
		return d.stepGap(amN, levelLimit, amBuf)
	default:
		d.log.Error("detector reached unreachable state; forcing IDLE", "err", ErrUnknownState, "state", d.State)
		d.State = StateIdle
		return ResultNeedMoreData
	}
}

func (d *DetectorContext) stepIdle(amN, levelLimit int, chunkOffset int64, amBuf, fskBuf *PulseBuffer) int {
	rising, _ := d.OOK.Thresholds(levelLimit)
	if d.LeadInCounter > OOKEstLowRatio && amN > rising {
		amBuf.Clear()
		fskBuf.Clear()
		amBuf.Offset = chunkOffset + int64(d.DataCounter)
		fskBuf.Offset = amBuf.Offset
		d.FSK.Reset()
		d.PulseLength = 1
		d.MaxPulse = 0
		d.FSKF1Est = 0
		d.State = StatePulse
		return ResultNeedMoreData
	}
	d.OOK.UpdateLow(amN)
	if d.LeadInCounter <= OOKEstLowRatio {
		d.LeadInCounter++
	}
	return ResultNeedMoreData
}

func (d *DetectorContext) stepPulse(amN, fmN, levelLimit int, amBuf, fskBuf *PulseBuffer) int {
	d.PulseLength++
	_, falling := d.OOK.Thresholds(levelLimit)
	if amN < falling {
		if amBuf.Empty() {
			// The falling edge belongs to the first AM pulse just like
			// every other sample inside it; skipping it here would leave
			// the FSK tracker's run length for this boundary one sample
			// short (spec §4.D: "in either case ... feed this FM sample
			// to the FSK tracker").
			d.FSK.Step(fmN, fskBuf)
		}
		if d.PulseLength < PDMinPulseSamples {
			d.State = StateIdle
			return ResultNeedMoreData
		}
		if err := amBuf.Push(d.PulseLength, 0); err != nil {
			return d.forceEndOfPacket(amBuf)
		}
		if d.PulseLength > d.MaxPulse {
			d.MaxPulse = d.PulseLength
		}
		d.PulseLength = 0
		d.State = StateGapStart
		return ResultNeedMoreData
	}

	d.OOK.UpdateHigh(amN)
	d.FSKF1Est += (fmN - d.FSKF1Est) / OOKEstHighRatio

	if amBuf.Empty() {
		d.FSK.Step(fmN, fskBuf)
		if r := d.tryDeclareFSK(fskBuf); r != ResultNeedMoreData {
			return r
		}
		if d.FSK.State == FSKError {
			d.log.Warn("fsk tracker desynced mid-pulse", "err", ErrFSKDesync)
		}
	}
	return ResultNeedMoreData
}

func (d *DetectorContext) stepGapStart(amN, fmN, levelLimit int, amBuf, fskBuf *PulseBuffer) int {
	d.PulseLength++
	rising, _ := d.OOK.Thresholds(levelLimit)
	if amN > rising {
		// Glitch: the dip was too brief to be a real gap; merge it back
		// into one continuous pulse.
		d.PulseLength += amBuf.LastPulse()
		amBuf.Pop()
		d.State = StatePulse
		return ResultNeedMoreData
	}

	if amBuf.Num == 1 {
		if r := d.tryDeclareFSK(fskBuf); r != ResultNeedMoreData {
			return r
		}
	}

	if d.PulseLength >= PDMinPulseSamples {
		d.State = StateGap
		return ResultNeedMoreData
	}

	if amBuf.Num == 1 {
		d.FSK.Step(fmN, fskBuf)
	}
	return ResultNeedMoreData
}

func (d *DetectorContext) stepGap(amN, levelLimit int, amBuf *PulseBuffer) int {
	d.PulseLength++
	rising, _ := d.OOK.Thresholds(levelLimit)
	if amN > rising {
		amBuf.SetLastGap(d.PulseLength)
		d.PulseLength = 0
		if amBuf.Full() {
			return d.emitOOK(amBuf)
		}
		d.State = StatePulse
	}

	if (d.PulseLength > PDMaxGapRatio*d.MaxPulse && d.PulseLength > PDMinGapMS*d.SamplesPerMS) ||
		d.PulseLength > PDMaxGapMS*d.SamplesPerMS {
		amBuf.SetLastGap(d.PulseLength)
		return d.emitOOK(amBuf)
	}
	return ResultNeedMoreData
}

// tryDeclareFSK checks whether the FSK tracker has accumulated enough
// entries to declare the in-progress candidate packet FSK rather than
// OOK, performing the terminal commit and stamping estimates if so.
func (d *DetectorContext) tryDeclareFSK(fskBuf *PulseBuffer) int {
	if fskBuf.Num <= PDMinPulses {
		return ResultNeedMoreData
	}
	d.FSK.Finish(fskBuf)
	fskBuf.Modulation = ModulationFSK
	fskBuf.OOKLow, fskBuf.OOKHigh = d.OOK.Low, d.OOK.High
	fskBuf.FSKF1, fskBuf.FSKF2 = d.FSK.F1Est, d.FSK.F2Est
	d.State = StateIdle
	return ResultFSKReady
}

func (d *DetectorContext) emitOOK(amBuf *PulseBuffer) int {
	amBuf.Modulation = ModulationOOK
	amBuf.OOKLow, amBuf.OOKHigh = d.OOK.Low, d.OOK.High
	amBuf.FSKF1, amBuf.FSKF2 = d.FSKF1Est, d.FSK.F2Est
	d.State = StateIdle
	return ResultOOKReady
}

// forceEndOfPacket is invoked when a Push hits PDMaxPulses; per spec §7
// BUFFER_FULL is not a failure, it deterministically becomes an
// end-of-packet. The triggering pulse itself is dropped — its gap
// cannot be measured without storing it — and the buffer's existing
// last entry (committed by the previous GAP transition) is emitted as-is.
func (d *DetectorContext) forceEndOfPacket(amBuf *PulseBuffer) int {
	d.log.Debug("pulse buffer full, forcing end of packet", "err", ErrBufferFull)
	return d.emitOOK(amBuf)
}
