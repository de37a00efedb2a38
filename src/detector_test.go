package rfpulse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const testFS = 250000

// runToCompletion feeds am/fm through a fresh detector in one chunk and
// collects every emitted packet (copies, since the buffers are reused).
func runToCompletion(am, fm []int16) []PulseBuffer {
	det := NewDetectorContext(testFS)
	var amBuf, fskBuf PulseBuffer
	var packets []PulseBuffer

	for {
		result := det.Process(am, fm, 0, 0, &amBuf, &fskBuf)
		switch result {
		case ResultOOKReady:
			packets = append(packets, amBuf)
			amBuf.Clear()
		case ResultFSKReady:
			packets = append(packets, fskBuf)
			fskBuf.Clear()
		case ResultNeedMoreData:
			return packets
		}
	}
}

// runInChunks feeds am/fm through a fresh detector split into chunks of
// size n, preserving detector state across calls the way a real streaming
// caller would.
func runInChunks(am, fm []int16, n int) []PulseBuffer {
	det := NewDetectorContext(testFS)
	var amBuf, fskBuf PulseBuffer
	var packets []PulseBuffer

	for off := 0; off < len(am); off += n {
		end := off + n
		if end > len(am) {
			end = len(am)
		}
		chunkAM := am[off:end]
		chunkFM := fm[off:end]
		for {
			result := det.Process(chunkAM, chunkFM, 0, int64(off), &amBuf, &fskBuf)
			if result == ResultOOKReady {
				packets = append(packets, amBuf)
				amBuf.Clear()
				continue
			}
			if result == ResultFSKReady {
				packets = append(packets, fskBuf)
				fskBuf.Clear()
				continue
			}
			break
		}
	}
	return packets
}

func constant(n int, v int16) []int16 {
	s := make([]int16, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func appendRun(dst []int16, n int, v int16) []int16 {
	return append(dst, constant(n, v)...)
}

// buildOOKPWM constructs scenario 2: a single OOK-PWM burst of two pulses,
// preceded by enough quiet samples to saturate lead_in_counter so the
// burst itself triggers cleanly at its first rising edge.
func buildOOKPWM() (am, fm []int16) {
	am = appendRun(am, OOKEstLowRatio+100, 40)
	am = appendRun(am, 250, 4000)
	am = appendRun(am, 500, 40)
	am = appendRun(am, 750, 4000)
	am = appendRun(am, 80000, 40)
	fm = make([]int16, len(am))
	return am, fm
}

func TestScenarioNoiseEmitsNothing(t *testing.T) {
	am := make([]int16, 200000)
	fm := make([]int16, 200000)
	for i := range am {
		// Deterministic pseudo-noise around a 50 floor, well under the
		// rising threshold the low estimator converges to.
		am[i] = int16(45 + (i*7919)%11)
		fm[i] = int16((i*104729)%400 - 200)
	}
	packets := runToCompletion(am, fm)
	assert.Empty(t, packets)
}

func TestScenarioOOKPWMBurst(t *testing.T) {
	am, fm := buildOOKPWM()
	packets := runToCompletion(am, fm)
	require.Len(t, packets, 1)

	p := packets[0]
	assert.Equal(t, ModulationOOK, p.Modulation)
	require.Equal(t, 2, p.Num)
	assert.InDelta(t, 250, p.Pulse[0], 5)
	assert.InDelta(t, 750, p.Pulse[1], 5)
	assert.InDelta(t, 500, p.Gap[0], 5)
	// The gap ends the packet as soon as the end-of-packet ratio test
	// trips (PD_MAX_GAP_RATIO * max_pulse), well before all 80,000
	// trailing low samples are consumed.
	assert.Greater(t, p.Gap[1], PDMaxGapRatio*750)

	analyzer := NewAnalyzer()
	desc := analyzer.Analyze(&p)
	assert.Equal(t, "OOK-PWM (fixed gap)", desc.Modulation)
}

func TestScenarioFSKPCM(t *testing.T) {
	var am, fm []int16
	am = appendRun(am, OOKEstLowRatio+100, 40)
	fm = appendRun(fm, OOKEstLowRatio+100, 0)
	am = appendRun(am, 20000, 3000)
	toggle := false
	for len(fm) < len(am) {
		f := int16(-6000)
		if toggle {
			f = 6000
		}
		toggle = !toggle
		n := 20
		if remaining := len(am) - len(fm); remaining < n {
			n = remaining
		}
		fm = appendRun(fm, n, f)
	}

	packets := runToCompletion(am, fm)
	// Because the carrier never dips, the detector returns to IDLE and
	// immediately re-triggers PULSE on the very next sample: a continuous
	// FSK carrier yields a run of short FSK packets rather than one long
	// one. Each must still be classified FSK with more than PD_MIN_PULSES
	// entries (the declare threshold).
	require.NotEmpty(t, packets)
	for _, p := range packets {
		assert.Equal(t, ModulationFSK, p.Modulation)
		assert.Greater(t, p.Num, PDMinPulses)
	}
}

func TestScenarioChunkBoundaryRobustness(t *testing.T) {
	am, fm := buildOOKPWM()
	whole := runToCompletion(am, fm)
	chunked := runInChunks(am, fm, 37)

	require.Len(t, whole, 1)
	require.Len(t, chunked, 1)
	assert.Equal(t, whole[0].Num, chunked[0].Num)
	for i := 0; i < whole[0].Num; i++ {
		assert.Equal(t, whole[0].Pulse[i], chunked[0].Pulse[i])
		assert.Equal(t, whole[0].Gap[i], chunked[0].Gap[i])
	}
}

func TestScenarioBufferOverflow(t *testing.T) {
	var am, fm []int16
	am = appendRun(am, OOKEstLowRatio+100, 40)
	for i := 0; i < 1025; i++ {
		am = appendRun(am, 20, 4000)
		am = appendRun(am, 40, 40)
	}
	fm = make([]int16, len(am))

	packets := runToCompletion(am, fm)
	require.NotEmpty(t, packets)
	assert.Equal(t, PDMaxPulses, packets[0].Num)
}

func TestScenarioManchester(t *testing.T) {
	var am, fm []int16
	am = appendRun(am, OOKEstLowRatio+100, 40)
	// Alternating high/low runs: pulses and gaps both take the widths
	// {80, 160}, so the periods fall into three classes {160, 240, 320}.
	// The trailing quiet run is longer than PDMinGapMS so the packet ends.
	widths := []int{80, 80, 80, 160, 160, 80, 160, 160, 80, 80}
	high := true
	for _, w := range widths {
		v := int16(40)
		if high {
			v = 4000
		}
		am = appendRun(am, w, v)
		high = !high
	}
	am = appendRun(am, 4000, 40)
	fm = make([]int16, len(am))

	packets := runToCompletion(am, fm)
	require.Len(t, packets, 1)

	analyzer := NewAnalyzer()
	desc := analyzer.Analyze(&packets[0])
	assert.Contains(t, []string{"Manchester", "OOK-PWM (fixed period)"}, desc.Modulation)
}

// TestChunkIndependence is property P1: splitting a stream anywhere must
// not change the sequence of emitted packets.
func TestChunkIndependence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		am, fm := buildOOKPWM()
		chunkSize := rapid.IntRange(1, 5000).Draw(t, "chunkSize")

		whole := runToCompletion(am, fm)
		chunked := runInChunks(am, fm, chunkSize)

		if len(whole) != len(chunked) {
			t.Fatalf("chunk size %d: got %d packets, want %d", chunkSize, len(chunked), len(whole))
		}
		for i := range whole {
			if whole[i].Num != chunked[i].Num {
				t.Fatalf("chunk size %d: packet %d Num mismatch: %d vs %d", chunkSize, i, chunked[i].Num, whole[i].Num)
			}
			for j := 0; j < whole[i].Num; j++ {
				if whole[i].Pulse[j] != chunked[i].Pulse[j] || whole[i].Gap[j] != chunked[i].Gap[j] {
					t.Fatalf("chunk size %d: packet %d entry %d mismatch", chunkSize, i, j)
				}
			}
		}
	})
}

// TestPacketContainment is property P2.
func TestPacketContainment(t *testing.T) {
	packets := runToCompletion(buildOOKPWM())
	for _, p := range packets {
		assert.LessOrEqual(t, p.Num, PDMaxPulses)
		for i := 0; i < p.Num; i++ {
			if i < p.Num-1 {
				assert.GreaterOrEqual(t, p.Pulse[i], PDMinPulseSamples)
			}
		}
	}
}

// TestDetectorLevelBoundsStayInRange is property P5 exercised through the
// full detector rather than the estimator in isolation.
func TestDetectorLevelBoundsStayInRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(100, 2000).Draw(t, "n")
		am := make([]int16, n)
		fm := make([]int16, n)
		for i := range am {
			am[i] = int16(rapid.IntRange(0, 8000).Draw(t, "am"))
			fm[i] = int16(rapid.IntRange(-8000, 8000).Draw(t, "fm"))
		}

		det := NewDetectorContext(testFS)
		var amBuf, fskBuf PulseBuffer
		det.Process(am, fm, 0, 0, &amBuf, &fskBuf)

		if det.OOK.Low > OOKMaxLowLevel {
			t.Fatalf("Low escaped bound: %d", det.OOK.Low)
		}
		if det.OOK.High < OOKMinHighLevel || det.OOK.High > OOKMaxHighLevel {
			t.Fatalf("High escaped bound: %d", det.OOK.High)
		}
	})
}

func TestDetectorStateString(t *testing.T) {
	assert.Equal(t, "IDLE", StateIdle.String())
	assert.Equal(t, "PULSE", StatePulse.String())
	assert.Equal(t, "GAP_START", StateGapStart.String())
	assert.Equal(t, "GAP", StateGap.String())
}
