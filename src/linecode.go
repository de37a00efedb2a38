package rfpulse

import "github.com/charmbracelet/log"

// LineDecoder is the external collaborator spec §1 calls out by name but
// puts out of scope: the PPM/PWM/PCM/Manchester bit-recovery layer that
// turns a classified pulse packet into bits. This repo defines the
// interface and the dispatch table only; decoders here just acknowledge
// the packet.
type LineDecoder interface {
	// Decode is handed the packet after its terminating gap has been
	// normalized to desc.ResetLimit+1 (see PrepareForDecode).
	Decode(buf *PulseBuffer, desc ModulationDescriptor)
	Name() string
}

// loggingDecoder is a trivial LineDecoder that only logs; it exists so
// the dispatch table has something real to exercise per modulation
// class without pulling real bit-recovery logic into this layer.
type loggingDecoder struct {
	name string
	log  *log.Logger
}

func (d *loggingDecoder) Name() string { return d.name }

func (d *loggingDecoder) Decode(buf *PulseBuffer, desc ModulationDescriptor) {
	d.log.Debug("dispatching packet",
		"decoder", d.name, "pulses", buf.Num, "short", desc.ShortLimit,
		"long", desc.LongLimit, "reset", desc.ResetLimit, "sync", desc.SyncWidth)
}

// NewLineDecoders returns the PPM/PWM/PCM/Manchester decoder set keyed
// by the Modulation string Analyze produces.
func NewLineDecoders() map[string]LineDecoder {
	logger := NewLogger("linecode")
	names := []string{
		"OOK-PPM",
		"OOK-PWM (fixed gap)",
		"OOK-PWM (fixed period)",
		"OOK-PWM (multi-packet)",
		"OOK-PWM (with sync)",
		"Manchester",
		"FSK-PCM (NRZ)",
	}
	decoders := make(map[string]LineDecoder, len(names))
	for _, n := range names {
		decoders[n] = &loggingDecoder{name: n, log: logger}
	}
	return decoders
}

// PrepareForDecode overwrites the source buffer's last gap with
// desc.ResetLimit+1, guaranteeing packet-termination semantics for every
// OOK line decoder regardless of how the real trailing gap measured
// (spec §4.E, final paragraph). It is a no-op for non-decodable
// descriptors.
func PrepareForDecode(buf *PulseBuffer, desc ModulationDescriptor) {
	if !desc.Decodable || buf.Num == 0 {
		return
	}
	buf.SetLastGap(desc.ResetLimit + 1)
}

// Dispatch prepares buf for decode and hands it to the LineDecoder
// registered for desc.Modulation, if any. It returns false (and logs at
// Info) when there is no matching decoder — spec §7's NO_MATCH case,
// which is not an error, just an absence of decode.
func Dispatch(decoders map[string]LineDecoder, buf *PulseBuffer, desc ModulationDescriptor, log *log.Logger) bool {
	if !desc.Decodable {
		log.Info("no clue, skipping downstream demod", "modulation", desc.Modulation)
		return false
	}
	dec, ok := decoders[desc.Modulation]
	if !ok {
		log.Info("no decoder registered for modulation", "modulation", desc.Modulation)
		return false
	}
	PrepareForDecode(buf, desc)
	dec.Decode(buf, desc)
	return true
}
