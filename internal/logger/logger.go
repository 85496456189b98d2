// Package logger sets up the process-wide structured logger.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

// Init initializes the default logger to write to stderr.
func Init(debug, noColor bool) {
	InitTo(os.Stderr, debug, noColor)
}

// InitTo initializes the default logger to write to w. Only warnings and
// errors are shown unless debug is set.
func InitTo(w io.Writer, debug, noColor bool) {
	log.SetDefault(log.NewWithOptions(w,
		log.Options{
			ReportCaller:    debug,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          "GRAMQ",
		}))

	if debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	log.SetColorProfile(termenv.ANSI256)
	if noColor {
		log.SetColorProfile(termenv.Ascii)
	}
}
