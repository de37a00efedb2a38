// Command pulsegen writes synthetic AM/FM int16 sample streams to stdout,
// one scenario per invocation, for exercising the detector without a
// live radio. It plays the same role as the source's gen_tone: a quick
// signal generator to pair with a decoder under test.
package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

func main() {
	scenario := pflag.StringP("scenario", "s", "ook-ppm", "Signal to generate: ook-ppm, ook-pwm, fsk-pcm, manchester, noise, continuous-fsk.")
	sampleRate := pflag.IntP("sample-rate", "r", 250000, "Sample rate in Hz.")
	seconds := pflag.Float64P("seconds", "t", 0.5, "Duration to generate, in seconds.")
	out := pflag.StringP("output", "o", "-", "Output file, or - for stdout.")
	help := pflag.Bool("help", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "pulsegen writes interleaved int16 AM/FM sample pairs for detector testing.\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTION]...\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(1)
	}

	w := io.Writer(os.Stdout)
	if *out != "-" {
		f, err := os.Create(*out)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	n := int(float64(*sampleRate) * *seconds)
	am, fm := generate(*scenario, *sampleRate, n)

	for i := 0; i < n; i++ {
		if err := binary.Write(bw, binary.LittleEndian, am[i]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err := binary.Write(bw, binary.LittleEndian, fm[i]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

// generate produces n samples of AM/FM for the named scenario. Pulse and
// gap widths are whole milliseconds at the given sample rate. The OOK
// scenarios repeat their pattern to the end of the stream with no gap
// long enough for the detector's end-of-packet test, so an OOK packet is
// emitted from them only once the pulse buffer fills.
func generate(scenario string, fs, n int) (am, fm []int16) {
	am = make([]int16, n)
	fm = make([]int16, n)

	const low, high = 200, 12000
	samplesPerMS := fs / 1000

	switch scenario {
	case "noise":
		for i := range am {
			am[i] = int16(low + (i*37)%80)
			fm[i] = int16((i * 53) % 400)
		}

	case "ook-ppm":
		short := 2 * samplesPerMS
		longGap := 6 * samplesPerMS
		writePWM(am, short, short, longGap, low, high)

	case "ook-pwm":
		pulseShort := 1 * samplesPerMS
		pulseLong := 3 * samplesPerMS
		gap := 4 * samplesPerMS
		i := 0
		for i < n {
			i = writePulse(am, i, pulseShort, gap, high, low)
			i = writePulse(am, i, pulseLong, gap, high, low)
		}

	case "manchester":
		half := 1 * samplesPerMS
		i := 0
		for i < n {
			i = writePulse(am, i, half, half, high, low)
		}

	case "fsk-pcm":
		bit := 1 * samplesPerMS
		i := 0
		toggle := false
		for i < n {
			f := int16(-3000)
			if toggle {
				f = 3000
			}
			toggle = !toggle
			for j := 0; j < bit && i < n; j++ {
				am[i] = high
				fm[i] = f
				i++
			}
		}

	case "continuous-fsk":
		i := 0
		toggle := false
		run := 5 * samplesPerMS
		for i < n {
			f := int16(-3000)
			if toggle {
				f = 3000
			}
			toggle = !toggle
			for j := 0; j < run && i < n; j++ {
				am[i] = high
				fm[i] = f
				i++
			}
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown scenario %q\n", scenario)
		os.Exit(1)
	}
	return am, fm
}

func writePulse(am []int16, i, pulseWidth, gapWidth int, high, low int16) int {
	for j := 0; j < pulseWidth && i < len(am); j++ {
		am[i] = high
		i++
	}
	for j := 0; j < gapWidth && i < len(am); j++ {
		am[i] = low
		i++
	}
	return i
}

func writePWM(am []int16, pulseWidth, shortGap, longGap int, low, high int16) {
	i := 0
	toggle := false
	for i < len(am) {
		gap := shortGap
		if toggle {
			gap = longGap
		}
		toggle = !toggle
		i = writePulse(am, i, pulseWidth, gap, high, low)
	}
}
