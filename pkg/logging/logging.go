// Package logging provides level-gated, prefix-scoped logging for the
// virtual filesystem core and its daemon.
package logging

import (
	"log"
	"os"
)

func init() {
	// Set the global logger to use standard output. Individual loggers still
	// gate on their own level before ever reaching here.
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
}

// NewRoot creates a new root logger at the specified level. Components
// derive scoped subloggers from it via Sublogger.
func NewRoot(level Level) *Logger {
	return &Logger{level: level}
}
