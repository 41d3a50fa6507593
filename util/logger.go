// Package util holds the plumbing shared by the console packages:
// levelled logging, the terminal relay loop, pooled read buffers and
// address helpers.
package util

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel is the -v count a Logger was built with.
type LogLevel int

const (
	LogQuiet LogLevel = iota
	LogNormal
	LogVerbose
	LogDebug
)

// logSink is the destination shared by a Logger and every child made
// with Named.
type logSink struct {
	mu         sync.Mutex
	w          io.Writer
	timestamps bool
}

// Logger writes "[TAG] prefix: message" lines to stderr.  Error lines
// are always written; the rest depend on the level.
type Logger struct {
	level  LogLevel
	prefix string // "session 1b9d: " for a session child
	sink   *logSink
}

// NewLogger returns a Logger for the given -v count.  Debug loggers
// start with timestamps on.
func NewLogger(verbosity int) *Logger {
	return &Logger{
		level: LogLevel(verbosity),
		sink:  &logSink{w: os.Stderr, timestamps: verbosity >= int(LogDebug)},
	}
}

// Named returns a child that prefixes its messages with name.  The
// child shares the parent's output and timestamp setting.
func (l *Logger) Named(name string) *Logger {
	return &Logger{level: l.level, prefix: l.prefix + name + ": ", sink: l.sink}
}

// SetTimestamps turns clock prefixes on or off for l and its children.
func (l *Logger) SetTimestamps(on bool) {
	l.sink.mu.Lock()
	l.sink.timestamps = on
	l.sink.mu.Unlock()
}

// SetOutput redirects l and its children.
func (l *Logger) SetOutput(w io.Writer) {
	l.sink.mu.Lock()
	l.sink.w = w
	l.sink.mu.Unlock()
}

// Level returns the verbosity l was built with.
func (l *Logger) Level() LogLevel { return l.level }

func (l *Logger) Error(format string, args ...interface{}) {
	l.logf(LogQuiet, "ERR", format, args)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.logf(LogNormal, "WRN", format, args)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.logf(LogNormal, "INF", format, args)
}

// Verbose carries session lifecycle messages (-vv).
func (l *Logger) Verbose(format string, args ...interface{}) {
	l.logf(LogVerbose, "VRB", format, args)
}

// Debug carries per-command dispatch messages (-vvv).
func (l *Logger) Debug(format string, args ...interface{}) {
	l.logf(LogDebug, "DBG", format, args)
}

func (l *Logger) logf(min LogLevel, tag, format string, args []interface{}) {
	if l.level < min {
		return
	}

	var line strings.Builder
	msg := fmt.Sprintf(format, args...)

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	if l.sink.timestamps {
		line.WriteString(time.Now().Format("15:04:05.000 "))
	}
	fmt.Fprintf(&line, "[%s] %s%s\n", tag, l.prefix, msg)
	io.WriteString(l.sink.w, line.String()) //nolint:errcheck
}
