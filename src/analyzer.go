package rfpulse

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/stat"
)

// ModulationDescriptor is the external contract the analyzer hands to a
// downstream line-code demodulator (spec §4.E / §6).
type ModulationDescriptor struct {
	Modulation string
	ShortLimit int
	LongLimit  int
	ResetLimit int
	SyncWidth  int
	Decodable  bool
}

// Analyzer classifies a completed PulseBuffer's shape into one of the
// line codes rtl_433-style decoders expect. It holds no state of its own
// — every call is a pure function of its inputs (spec §5).
type Analyzer struct {
	log *log.Logger
}

// NewAnalyzer returns an Analyzer. A *log.Logger is attached only for the
// "No clue"/diagnostic log lines Analyze and Report emit; it carries no
// state that affects classification.
func NewAnalyzer() *Analyzer {
	return &Analyzer{log: NewLogger("analyzer")}
}

// Analyze builds the pulse/gap/period histograms and applies spec §4.E's
// classification table, returning exactly one ModulationDescriptor.
func (a *Analyzer) Analyze(buf *PulseBuffer) ModulationDescriptor {
	if buf.Num == 0 {
		return ModulationDescriptor{Modulation: "No clue"}
	}
	if buf.Num == 1 {
		return ModulationDescriptor{Modulation: "Single pulse / noise"}
	}

	pulses := &Histogram{}
	gaps := &Histogram{}
	periods := &Histogram{}
	for i := 0; i < buf.Num; i++ {
		pulses.Add(buf.Pulse[i])
		if i < buf.Num-1 {
			gaps.Add(buf.Gap[i])
			periods.Add(buf.Pulse[i] + buf.Gap[i])
		}
	}
	for _, h := range []*Histogram{pulses, gaps, periods} {
		h.Fuse()
		h.SortByMean()
	}

	p, g, r := pulses.Bins, gaps.Bins, periods.Bins
	P, G, R := len(p), len(g), len(r)

	switch {
	case P == 1 && G == 1:
		return ModulationDescriptor{Modulation: "Unmodulated / preamble"}

	case P == 1 && G > 1:
		return ModulationDescriptor{
			Modulation: "OOK-PPM",
			ShortLimit: round((g[0].Mean() + g[1].Mean()) / 2),
			LongLimit:  g[1].Max + 1,
			ResetLimit: g[G-1].Max + 1,
			Decodable:  true,
		}

	case P == 2 && G == 1:
		long := g[0].Max + 1
		return ModulationDescriptor{
			Modulation: "OOK-PWM (fixed gap)",
			ShortLimit: round((p[0].Mean() + p[1].Mean()) / 2),
			LongLimit:  long,
			ResetLimit: long,
			Decodable:  true,
		}

	case P == 2 && G == 2 && R == 1:
		long := g[G-1].Max + 1
		return ModulationDescriptor{
			Modulation: "OOK-PWM (fixed period)",
			ShortLimit: round((p[0].Mean() + p[1].Mean()) / 2),
			LongLimit:  long,
			ResetLimit: long,
			Decodable:  true,
		}

	case P == 2 && G == 2 && R == 3:
		return ModulationDescriptor{
			Modulation: "Manchester",
			ShortLimit: round(p[0].Mean()),
			LongLimit:  0,
			ResetLimit: g[G-1].Max + 1,
			Decodable:  true,
		}

	case P == 2 && G >= 3:
		return ModulationDescriptor{
			Modulation: "OOK-PWM (multi-packet)",
			ShortLimit: round((p[0].Mean() + p[1].Mean()) / 2),
			LongLimit:  g[1].Max + 1,
			ResetLimit: g[G-1].Max + 1,
			Decodable:  true,
		}

	case P >= 3 && G >= 3 && looksLikeFSKPCM(p, g):
		short := round(p[0].Mean())
		return ModulationDescriptor{
			Modulation: "FSK-PCM (NRZ)",
			ShortLimit: short,
			LongLimit:  short,
			ResetLimit: 1024 * short,
			Decodable:  true,
		}

	case P == 3:
		byCount := append([]HistBin(nil), p...)
		sortByCount(byCount)
		sync, b1, b2 := byCount[0], byCount[1], byCount[2]
		short, long := b1, b2
		if short.Mean() > long.Mean() {
			short, long = long, short
		}
		return ModulationDescriptor{
			Modulation: "OOK-PWM (with sync)",
			SyncWidth:  round(sync.Mean()),
			ShortLimit: round(short.Mean()),
			LongLimit:  round(long.Mean()),
			ResetLimit: g[G-1].Max + 1,
			Decodable:  true,
		}

	default:
		a.log.Info("no clue", "pulses", P, "gaps", G, "periods", R)
		return ModulationDescriptor{Modulation: "No clue"}
	}
}

// looksLikeFSKPCM checks whether the pulse and gap bins all land near
// integer multiples {1,2,3} of the shortest pulse bin's mean, within
// ±mean/8 — the signature of an NRZ bit clock riding on the detector's
// pulse/gap split.
func looksLikeFSKPCM(p, g []HistBin) bool {
	unit := p[0].Mean()
	if unit == 0 {
		return false
	}
	tol := unit / 8
	check := func(bins []HistBin) bool {
		for _, b := range bins {
			m := b.Mean()
			matched := false
			for _, k := range [...]float64{1, 2, 3} {
				if m > k*unit-tol && m < k*unit+tol {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		}
		return true
	}
	return check(p) && check(g)
}

func sortByCount(bins []HistBin) {
	for i := 1; i < len(bins); i++ {
		for j := i; j > 0 && bins[j-1].Count > bins[j].Count; j-- {
			bins[j-1], bins[j] = bins[j], bins[j-1]
		}
	}
}

func round(f float64) int {
	if f < 0 {
		return int(f - 0.5)
	}
	return int(f + 0.5)
}

// Report renders the human-readable analyzer output: the pulse count,
// total packet span in ms, the pulse-width mean and variance, level
// estimates in raw units, and FSK tone offsets in kHz (computed against
// the Nyquist half-bandwidth fs/2). Gap and period distributions are not
// printed. station tags the report with the
// receiver's fixed location, when configured; the zero StationConfig
// omits the line.
func (a *Analyzer) Report(buf *PulseBuffer, fs int, desc ModulationDescriptor, station StationConfig) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Pulse packet @ sample %d, modulation=%s (%s)\n",
		buf.Offset, buf.Modulation, desc.Modulation)

	if station.Callsign != "" {
		ll := station.LatLng()
		fmt.Fprintf(&sb, "  station=%s lat=%.4f lng=%.4f\n",
			station.Callsign, ll.Lat.Degrees(), ll.Lng.Degrees())
	}

	spanSamples := 0
	pulseWidths := make([]float64, 0, buf.Num)
	for i := 0; i < buf.Num; i++ {
		pulseWidths = append(pulseWidths, float64(buf.Pulse[i]))
		spanSamples += buf.Pulse[i]
		if i < buf.Num-1 {
			spanSamples += buf.Gap[i]
		}
	}
	fmt.Fprintf(&sb, "  pulses=%d span=%.3fms\n", buf.Num, 1000*float64(spanSamples)/float64(fs))

	if len(pulseWidths) > 1 {
		mean, variance := stat.MeanVariance(pulseWidths, nil)
		fmt.Fprintf(&sb, "  pulse width mean=%.1f variance=%.1f\n", mean, variance)
	}

	fmt.Fprintf(&sb, "  ook_low=%d ook_high=%d\n", buf.OOKLow, buf.OOKHigh)

	nyquist := float64(fs) / 2
	f1kHz := float64(buf.FSKF1) / 32767 * nyquist / 1000
	f2kHz := float64(buf.FSKF2) / 32767 * nyquist / 1000
	fmt.Fprintf(&sb, "  fsk_f1=%.2fkHz fsk_f2=%.2fkHz\n", f1kHz, f2kHz)

	if desc.Decodable {
		fmt.Fprintf(&sb, "  short=%d long=%d reset=%d sync=%d\n",
			desc.ShortLimit, desc.LongLimit, desc.ResetLimit, desc.SyncWidth)
	} else {
		fmt.Fprintf(&sb, "  %s\n", desc.Modulation)
	}
	return sb.String()
}
