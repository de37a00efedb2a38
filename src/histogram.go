package rfpulse

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// HistBin is one equivalence class of a Histogram: a running count/sum
// plus the extremes observed, all derived online as samples are binned.
type HistBin struct {
	Count    int
	Sum      int
	Min, Max int
}

// Mean returns the bin's running average width.
func (b HistBin) Mean() float64 {
	if b.Count == 0 {
		return 0
	}
	return float64(b.Sum) / float64(b.Count)
}

// Histogram groups sample widths into up to MaxHistBins equivalence
// classes under the spec's relative-tolerance predicate: two samples
// match iff |x-y| < HistTolerance*max(x,y) (spec §3).
type Histogram struct {
	Bins []HistBin
}

// withinTolerance reports whether x and y fall in the same bin under the
// 20%-relative-tolerance rule.
func withinTolerance(x, y float64) bool {
	m := floats.Max([]float64{x, y})
	return math.Abs(x-y) < HistTolerance*m
}

// Add bins one sample width, linearly probing existing bins before
// opening a new one. Samples that don't fit any existing bin and arrive
// once the histogram is already at capacity are dropped, matching the
// fixed MaxHistBins budget of the source analyzer.
func (h *Histogram) Add(x int) {
	fx := float64(x)
	for i := range h.Bins {
		b := &h.Bins[i]
		if withinTolerance(fx, b.Mean()) {
			b.Count++
			b.Sum += x
			if x < b.Min {
				b.Min = x
			}
			if x > b.Max {
				b.Max = x
			}
			return
		}
	}
	if len(h.Bins) >= MaxHistBins {
		return
	}
	h.Bins = append(h.Bins, HistBin{Count: 1, Sum: x, Min: x, Max: x})
}

// Fuse pair-wise merges bins whose means are within tolerance until the
// bin set is stable (spec §4.E step 3, property P3).
func (h *Histogram) Fuse() {
	for {
		merged := false
		for i := 0; i < len(h.Bins); i++ {
			for j := i + 1; j < len(h.Bins); j++ {
				if !withinTolerance(h.Bins[i].Mean(), h.Bins[j].Mean()) {
					continue
				}
				h.Bins[i].Count += h.Bins[j].Count
				h.Bins[i].Sum += h.Bins[j].Sum
				if h.Bins[j].Min < h.Bins[i].Min {
					h.Bins[i].Min = h.Bins[j].Min
				}
				if h.Bins[j].Max > h.Bins[i].Max {
					h.Bins[i].Max = h.Bins[j].Max
				}
				h.Bins = append(h.Bins[:j], h.Bins[j+1:]...)
				merged = true
				break
			}
			if merged {
				break
			}
		}
		if !merged {
			return
		}
	}
}

// SortByMean orders the bins ascending by mean, and drops a single
// leading mean-zero bin (the FSK-initial synthetic entry), which per
// spec §9 must happen strictly after binning/fusion, never before.
func (h *Histogram) SortByMean() {
	for i := 1; i < len(h.Bins); i++ {
		for j := i; j > 0 && h.Bins[j-1].Mean() > h.Bins[j].Mean(); j-- {
			h.Bins[j-1], h.Bins[j] = h.Bins[j], h.Bins[j-1]
		}
	}
	if len(h.Bins) > 0 && h.Bins[0].Mean() == 0 {
		h.Bins = h.Bins[1:]
	}
}
