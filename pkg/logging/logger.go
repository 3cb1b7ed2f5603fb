package logging

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"log"

	"github.com/fatih/color"
)

// writer is an io.Writer that splits its input stream into lines and writes
// those lines to an underlying logger.
type writer struct {
	// callback is the logging callback.
	callback func(string)
	// buffer is any incomplete line fragment left over from a previous write.
	buffer []byte
}

// trimCarriageReturn trims any single trailing carriage return from the end of
// a byte slice.
func trimCarriageReturn(buffer []byte) []byte {
	if len(buffer) > 0 && buffer[len(buffer)-1] == '\r' {
		return buffer[:len(buffer)-1]
	}
	return buffer
}

// Write implements io.Writer.Write.
func (w *writer) Write(buffer []byte) (int, error) {
	w.buffer = append(w.buffer, buffer...)

	var processed int
	remaining := w.buffer
	for {
		index := bytes.IndexByte(remaining, '\n')
		if index == -1 {
			break
		}

		w.callback(string(trimCarriageReturn(remaining[:index])))

		processed += index + 1
		remaining = remaining[index+1:]
	}

	if processed > 0 {
		leftover := len(w.buffer) - processed
		if leftover > 0 {
			copy(w.buffer[:leftover], w.buffer[processed:])
		}
		w.buffer = w.buffer[:leftover]
	}

	return len(buffer), nil
}

// Logger is the main logger type. It has the novel property that it still
// functions if nil, but it doesn't log anything. It wraps the standard
// logger provided by the log package, so it respects any flags set for that
// logger. It is safe for concurrent use.
//
// Unlike the teacher this is derived from, verbosity is carried on the
// Logger instance rather than a package-level global: every run constructs
// its own Logger from the resolved command-line verbosity and threads it
// explicitly to the walker and reconciler.
type Logger struct {
	// prefix is any prefix specified for the logger.
	prefix string
	// level is the verbosity threshold below which diagnostics are dropped.
	level Level
}

// New constructs a root Logger at the given verbosity level.
func New(level Level) *Logger {
	return &Logger{level: level}
}

// Sublogger creates a new sublogger with the specified name, inheriting the
// parent's level.
func (l *Logger) Sublogger(name string) *Logger {
	if l == nil {
		return nil
	}

	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}

	return &Logger{prefix: prefix, level: l.level}
}

// Level reports the logger's configured verbosity threshold.
func (l *Logger) Level() Level {
	if l == nil {
		return LevelError
	}
	return l.level
}

// output is the internal logging method.
func (l *Logger) output(calldepth int, line string) {
	if l.prefix != "" {
		line = fmt.Sprintf("[%s] %s", l.prefix, line)
	}
	log.Output(calldepth, line)
}

// enabled reports whether a message at the given level should be emitted.
func (l *Logger) enabled(level Level) bool {
	return l != nil && l.level >= level
}

// Print logs information with semantics equivalent to fmt.Print at LevelWarn.
func (l *Logger) Print(v ...interface{}) {
	if l.enabled(LevelWarn) {
		l.output(3, fmt.Sprint(v...))
	}
}

// Printf logs information with semantics equivalent to fmt.Printf at LevelWarn.
func (l *Logger) Printf(format string, v ...interface{}) {
	if l.enabled(LevelWarn) {
		l.output(3, fmt.Sprintf(format, v...))
	}
}

// Println logs information with semantics equivalent to fmt.Println at LevelWarn.
func (l *Logger) Println(v ...interface{}) {
	if l.enabled(LevelWarn) {
		l.output(3, fmt.Sprintln(v...))
	}
}

// Writer returns an io.Writer that writes lines using Println.
func (l *Logger) Writer() io.Writer {
	if l == nil {
		return ioutil.Discard
	}
	return &writer{callback: func(s string) { l.Println(s) }}
}

// Info logs one-line-per-modified-file output: the `-v` tier.
func (l *Logger) Info(v ...interface{}) {
	if l.enabled(LevelInfo) {
		l.output(3, fmt.Sprint(v...))
	}
}

// Infof is Info with Printf-style formatting.
func (l *Logger) Infof(format string, v ...interface{}) {
	if l.enabled(LevelInfo) {
		l.output(3, fmt.Sprintf(format, v...))
	}
}

// Debug logs one-line-per-scanned-file output: the `-vv` tier.
func (l *Logger) Debug(v ...interface{}) {
	if l.enabled(LevelDebug) {
		l.output(3, fmt.Sprint(v...))
	}
}

// Debugf is Debug with Printf-style formatting.
func (l *Logger) Debugf(format string, v ...interface{}) {
	if l.enabled(LevelDebug) {
		l.output(3, fmt.Sprintf(format, v...))
	}
}

// DebugWriter returns an io.Writer that writes lines using Debug.
func (l *Logger) DebugWriter() io.Writer {
	if l == nil {
		return ioutil.Discard
	}
	return &writer{callback: func(s string) { l.Debug(s) }}
}

// Warn logs advisory diagnostics (filesystem loop, special-file skip,
// exclude-marker hit) with a yellow "Warning:" prefix. These are visible at
// every level except below LevelError, matching the error-taxonomy table's
// "Advisory ... logged, do not abort" entries.
func (l *Logger) Warn(err error) {
	if l.enabled(LevelError) {
		l.output(3, color.YellowString("Warning: %v", err))
	}
}

// Error logs fatal or per-record error information with a red "Error:" prefix.
func (l *Logger) Error(err error) {
	if l.enabled(LevelError) {
		l.output(3, color.RedString("Error: %v", err))
	}
}
