package rfpulse

import "errors"

// Error taxonomy from spec §7. BUFFER_FULL is handled internally (it
// deterministically becomes an end-of-packet, never surfaced to the
// caller as a failure); FSK_DESYNC and UNKNOWN_STATE are logged
// diagnostically by the detector and recovered from automatically. They
// are exported so callers or tests can assert on the taxonomy via
// errors.Is against whatever the logger observed, but the detector never
// returns them from Process.
var (
	// ErrFSKDesync marks the FSK tracker's sticky ERROR state, entered
	// when its buffer overflows mid-detection.
	ErrFSKDesync = errors.New("rfpulse: fsk tracker desynced")

	// ErrUnknownState marks the detector's defensive default branch.
	ErrUnknownState = errors.New("rfpulse: detector reached unknown state")
)
