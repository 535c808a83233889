// Package repairlog is a minimal wrapper around an io.Writer, gated by a
// verbosity flag so the search loop can emit progress without callers
// paying for string formatting when nobody asked for it.
package repairlog

import (
	"fmt"
	"io"
)

// Logger writes progress and diagnostic lines for a single solve run.
type Logger struct {
	io.Writer
	Verbose bool
}

// New returns a Logger that writes to w. Verbose lines are suppressed
// until the caller sets Verbose to true.
func New(w io.Writer) *Logger {
	return &Logger{Writer: w}
}

// Logf always logs a formatted string, regardless of verbosity.
func (l *Logger) Logf(f string, args ...interface{}) {
	fmt.Fprintf(l, f, args...)
}

// Verbosef logs a formatted line, prefixed with `conflictrepair: `, but
// only when the logger is in verbose mode.
func (l *Logger) Verbosef(format string, args ...interface{}) {
	if !l.Verbose {
		return
	}
	fmt.Fprintf(l, "conflictrepair: "+format+"\n", args...)
}

// Warnf logs a warning line, prefixed with `conflictrepair: warning: `,
// regardless of verbosity. Used for recoverable per-line input errors
// and degraded-extractor notices.
func (l *Logger) Warnf(format string, args ...interface{}) {
	fmt.Fprintf(l, "conflictrepair: warning: "+format+"\n", args...)
}
