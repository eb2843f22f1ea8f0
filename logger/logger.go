// This file is part of Gopher2600.
//
// Gopher2600 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher2600 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher2600.  If not, see <https://www.gnu.org/licenses/>.

// Package logger is a small ring-buffer logger used to record soft failures
// raised while writing or reading caches. Nothing in this module panics or
// returns an error because of a logged condition; logging is purely
// informational and is never required for correctness.
package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Permission is consulted before a log entry is recorded. This allows
// call sites to centrally mute categories of logging (tests, for example)
// without threading a boolean through every call.
type Permission interface {
	AllowLogging() bool
}

type allowAll struct{}

func (allowAll) AllowLogging() bool { return true }

// Allow is a Permission that always allows logging.
var Allow Permission = allowAll{}

type entry struct {
	tag    string
	detail string
}

func (e entry) String() string {
	return fmt.Sprintf("%s: %s", e.tag, e.detail)
}

// Logger is a capped, in-memory ring of log entries.
type Logger struct {
	crit    sync.Mutex
	entries []entry
	cap     int
}

// NewLogger creates a Logger that retains at most capacity entries, discarding
// the oldest entry once that capacity is reached.
func NewLogger(capacity int) *Logger {
	return &Logger{cap: capacity}
}

// Log adds a new entry to the log if permission allows it. detail is
// rendered according to its dynamic type: an error's Error() string, a
// fmt.Stringer's String() result, or the %v formatting of anything else.
func (l *Logger) Log(permission Permission, tag string, detail interface{}) {
	if permission == nil || !permission.AllowLogging() {
		return
	}

	l.crit.Lock()
	defer l.crit.Unlock()

	l.entries = append(l.entries, entry{tag: tag, detail: detailString(detail)})
	if len(l.entries) > l.cap {
		l.entries = l.entries[len(l.entries)-l.cap:]
	}
}

// detailString renders detail the way Log documents: error, then Stringer,
// then a %v fallback.
func detailString(detail interface{}) string {
	switch d := detail.(type) {
	case error:
		return d.Error()
	case fmt.Stringer:
		return d.String()
	default:
		return fmt.Sprintf("%v", d)
	}
}

// Logf is like Log but formats detail with fmt.Sprintf.
func (l *Logger) Logf(permission Permission, tag string, format string, args ...interface{}) {
	l.Log(permission, tag, fmt.Sprintf(format, args...))
}

// Clear empties the log.
func (l *Logger) Clear() {
	l.crit.Lock()
	defer l.crit.Unlock()
	l.entries = nil
}

// Write writes every retained entry, oldest first, one per line.
func (l *Logger) Write(w io.Writer) {
	l.crit.Lock()
	defer l.crit.Unlock()

	var s strings.Builder
	for _, e := range l.entries {
		s.WriteString(e.String())
		s.WriteString("\n")
	}
	io.WriteString(w, s.String())
}

// Tail writes the most recent n entries, oldest first. Asking for more
// entries than are present is not an error; Tail writes what it has.
func (l *Logger) Tail(w io.Writer, n int) {
	l.crit.Lock()
	defer l.crit.Unlock()

	start := len(l.entries) - n
	if start < 0 {
		start = 0
	}

	var s strings.Builder
	for _, e := range l.entries[start:] {
		s.WriteString(e.String())
		s.WriteString("\n")
	}
	io.WriteString(w, s.String())
}

// central is the package-level logger used by the free-standing Log/Logf
// functions below, for call sites that don't want to carry a *Logger around.
var central = NewLogger(1000)

// Log records an entry on the central logger.
func Log(permission Permission, tag string, detail interface{}) {
	central.Log(permission, tag, detail)
}

// Logf records a formatted entry on the central logger.
func Logf(permission Permission, tag string, format string, args ...interface{}) {
	central.Logf(permission, tag, format, args...)
}

// Clear empties the central logger.
func Clear() {
	central.Clear()
}

// Write writes the contents of the central logger.
func Write(w io.Writer) {
	central.Write(w)
}

// Tail writes the most recent n entries of the central logger.
func Tail(w io.Writer, n int) {
	central.Tail(w, n)
}
