package rfpulse

import (
	"os"

	"github.com/charmbracelet/log"
)

// defaultLogger is used by any DetectorContext or Analyzer created
// without an explicit logger, matching the teacher's habit of a single
// package-level logger shared by all of a channel's demodulators.
var defaultLogger = log.NewWithOptions(os.Stderr, log.Options{
	Prefix: "rfpulse",
})

// NewLogger returns a component-tagged sub-logger, e.g.
// NewLogger("detector") or NewLogger("analyzer").
func NewLogger(component string) *log.Logger {
	return defaultLogger.With("component", component)
}
