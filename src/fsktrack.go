package rfpulse

// FSKState is the 4-valued tag driving the tone tracker.
type FSKState int

const (
	FSKInit FSKState = iota
	FSKF1
	FSKF2
	FSKError
)

func (s FSKState) String() string {
	switch s {
	case FSKInit:
		return "INIT"
	case FSKF1:
		return "F1"
	case FSKF2:
		return "F2"
	case FSKError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FSKTracker splits an FM discriminator stream into F1/F2 pulse and gap
// runs while it runs inside the first pulse of a candidate AM packet
// (spec §4.C). It is reset to its zero value at every IDLE->PULSE
// transition of the outer detector.
type FSKTracker struct {
	State      FSKState
	RunLength  int
	F1Est      int
	F2Est      int
}

// Reset zeros the tracker, as happens on every IDLE->PULSE transition.
func (t *FSKTracker) Reset() {
	*t = FSKTracker{}
}

// Step folds one FM sample into the tracker, mutating buf (the
// in-progress FSK pulse buffer) as runs are committed. The outer detector
// calls it only inside the first AM pulse of the current candidate
// packet and during the GAP_START phase right after that pulse.
func (t *FSKTracker) Step(f int, buf *PulseBuffer) {
	switch t.State {
	case FSKInit:
		t.stepInit(f, buf)
	case FSKF1:
		t.stepF1(f, buf)
	case FSKF2:
		t.stepF2(f, buf)
	case FSKError:
		// sticky until the outer detector resets us on the next IDLE
	}
}

func (t *FSKTracker) stepInit(f int, buf *PulseBuffer) {
	t.RunLength++
	if t.RunLength < PDMinPulseSamples {
		// Fast priming: chase the first sample's tone aggressively
		// until we have enough run length to trust a boundary check.
		t.F1Est = (t.F1Est + f) / 2
		return
	}

	if iabs(f-t.F1Est) > FSKDefaultFMDelta/2 {
		if f > t.F1Est {
			// The tone we've been priming on was actually the low
			// tone (F2): the run so far is a gap after a synthetic
			// zero-width leading pulse.
			_ = buf.Push(0, t.RunLength)
			t.F2Est = t.F1Est
			t.F1Est = f
			t.State = FSKF1
		} else {
			// The primed tone was the high tone (F1): store it as
			// the first pulse, with its gap still to come.
			_ = buf.Push(t.RunLength, 0)
			t.F2Est = f
			t.State = FSKF2
		}
		t.RunLength = 1
		return
	}

	t.F1Est += (f - t.F1Est) / FSKEstRatio
}

func (t *FSKTracker) stepF1(f int, buf *PulseBuffer) {
	t.RunLength++
	if iabs(f-t.F1Est) > iabs(f-t.F2Est) {
		if t.RunLength >= PDMinPulseSamples {
			if err := buf.Push(t.RunLength, 0); err != nil {
				t.State = FSKError
				return
			}
			if buf.Full() {
				t.State = FSKError
				return
			}
			t.State = FSKF2
			t.RunLength = 1
			return
		}
		t.rewind(buf, buf.LastGap())
		return
	}
	t.F1Est += (f - t.F1Est) / FSKEstRatio
}

func (t *FSKTracker) stepF2(f int, buf *PulseBuffer) {
	t.RunLength++
	if iabs(f-t.F2Est) > iabs(f-t.F1Est) {
		if t.RunLength >= PDMinPulseSamples {
			buf.SetLastGap(t.RunLength)
			t.State = FSKF1
			t.RunLength = 1
			return
		}
		t.rewindToF1(buf, buf.LastPulse())
		return
	}
	t.F2Est += (f - t.F2Est) / FSKEstRatio
}

// rewind undoes a too-short F1 run that looked like a boundary: the
// previous committed entry is popped and its gap becomes the new
// accumulating run length, continuing in F2. If the popped entry was the
// leading synthetic zero-width pulse (or the buffer was already empty),
// the run so far was entirely that entry's gap and the tone assignment
// was backwards — swap and start over from INIT.
func (t *FSKTracker) rewind(buf *PulseBuffer, lastGap int) {
	poppedPulse := buf.LastPulse()
	if !buf.Empty() {
		buf.Pop()
	}
	t.RunLength = lastGap
	t.State = FSKF2
	if buf.Empty() && poppedPulse == 0 {
		t.F1Est, t.F2Est = t.F2Est, t.F1Est
		t.State = FSKInit
		t.RunLength = 0
	}
}

// rewindToF1 is rewind's mirror image for a too-short F2 run: the popped
// entry's pulse becomes the accumulating run, continuing in F1. It
// returns to INIT with swapped estimates whenever the pop empties the
// buffer.
func (t *FSKTracker) rewindToF1(buf *PulseBuffer, lastPulse int) {
	if !buf.Empty() {
		buf.Pop()
	}
	t.RunLength = lastPulse
	t.State = FSKF1
	if buf.Empty() {
		t.F1Est, t.F2Est = t.F2Est, t.F1Est
		t.State = FSKInit
		t.RunLength = 0
	}
}

// Finish performs the terminal commit the outer detector triggers when it
// declares the candidate packet FSK (from PULSE or GAP_START): whatever
// run was in progress is stored without waiting for one more tone
// boundary.
func (t *FSKTracker) Finish(buf *PulseBuffer) {
	switch t.State {
	case FSKF1:
		_ = buf.Push(t.RunLength, 0)
	case FSKF2:
		buf.SetLastGap(t.RunLength)
	}
}
