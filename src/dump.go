package rfpulse

import (
	"fmt"
	"io"
	"time"

	"github.com/lestrrat-go/strftime"
)

// pulseMarkBit is OR'd into the raw-dump byte while a sample falls
// inside a pulse, distinguishing it from the gap's bare marker byte.
const pulseMarkBit = 0x02

// DumpRaw renders buf as a packed byte-per-sample window: each pulse
// writes (0x01|pulseMarkBit) for pulse_width samples and 0x01 for
// gap_width samples, clipped to len(dst) (spec §6 "Raw dump format").
// It returns the number of bytes written.
func DumpRaw(dst []byte, buf *PulseBuffer) int {
	n := 0
	write := func(value byte, count int) bool {
		for ; count > 0 && n < len(dst); count-- {
			dst[n] = value
			n++
		}
		return n < len(dst)
	}
	for i := 0; i < buf.Num; i++ {
		if !write(0x01|pulseMarkBit, buf.Pulse[i]) {
			return n
		}
		if !write(0x01, buf.Gap[i]) {
			return n
		}
	}
	return n
}

// VCD wire identifiers, matching the source's three named signals.
const (
	vcdFrameID = "/"
	vcdAMID    = "'"
	vcdFMID    = "\""
)

// WriteVCD renders buf as a Value Change Dump with FRAME/AM/FM wires
// (spec §6 "VCD format"). Timescale is 1us for fs<=500kHz, else 100ns;
// the sample->time-unit scale factor follows the same split.
func WriteVCD(w io.Writer, buf *PulseBuffer, fs int) error {
	timescale := "1 us"
	scale := 1e6 / float64(fs)
	if fs > 500_000 {
		timescale = "100 ns"
		scale = 1e7 / float64(fs)
	}

	bw := &vcdWriter{w: w}
	bw.printf("$timescale %s $end\n", timescale)
	bw.printf("$scope module rtl_433 $end\n")
	bw.printf("$var wire 1 %s FRAME $end\n", vcdFrameID)
	bw.printf("$var wire 1 %s AM $end\n", vcdAMID)
	bw.printf("$var wire 1 %s FM $end\n", vcdFMID)
	bw.printf("$upscope $end\n")
	bw.printf("$enddefinitions $end\n")
	bw.printf("#0\n$dumpvars\n1%s\n0%s\n0%s\n$end\n", vcdFrameID, vcdAMID, vcdFMID)

	t := 0.0
	tick := func(am, fm int) {
		bw.printf("#%d\n%d%s\n%d%s\n", int64(t), am, vcdAMID, fm, vcdFMID)
		t += scale
	}

	fsk := buf.Modulation == ModulationFSK
	for i := 0; i < buf.Num; i++ {
		am, fm := 1, 0
		if fsk {
			fm = 1
		}
		tick(am, fm)
		t += scale * float64(buf.Pulse[i]-1)
		am, fm = 0, 0
		tick(am, fm)
		t += scale * float64(buf.Gap[i]-1)
	}
	bw.printf("#%d\n0%s\n", int64(t), vcdFrameID)
	return bw.err
}

type vcdWriter struct {
	w   io.Writer
	err error
}

func (v *vcdWriter) printf(format string, args ...any) {
	if v.err != nil {
		return
	}
	_, v.err = fmt.Fprintf(v.w, format, args...)
}

// DumpFilename expands a strftime pattern (as rtl_433's own -w flag
// does) against t, the way the teacher's WAV/log writers derive a
// filename from the capture's start time.
func DumpFilename(pattern string, t time.Time) (string, error) {
	f, err := strftime.New(pattern)
	if err != nil {
		return "", err
	}
	return f.FormatString(t), nil
}
