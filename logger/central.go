// Package logger is the process-wide diagnostic log. Entries are tagged
// ("m68k", "bus", "mac") and kept in a bounded ring; the command line tool
// echoes them to stderr when asked.
package logger

import "io"

// maximum number of entries kept by the central logger
const maxCentral = 512

var central = newLogger(maxCentral)

// Log adds an entry to the central logger.
func Log(perm Permission, tag, detail string) {
	if perm == Allow || perm.AllowLogging() {
		central.log(tag, detail)
	}
}

// Logf adds a formatted entry to the central logger.
func Logf(perm Permission, tag, format string, args ...any) {
	if perm == Allow || perm.AllowLogging() {
		central.logf(tag, format, args...)
	}
}

// Clear removes every entry.
func Clear() {
	central.clear()
}

// Write copies the whole log to output.
func Write(output io.Writer) {
	central.write(output)
}

// Tail writes the last number entries to output.
func Tail(output io.Writer, number int) {
	central.tail(output, number)
}

// SetEcho prints new entries to output as they are added. A nil writer
// turns echoing off.
func SetEcho(output io.Writer) {
	central.setEcho(output)
}

// Entries returns a copy of the current log.
func Entries() []Entry {
	return central.copyEntries()
}
