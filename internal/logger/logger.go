// Package logger provides leveled logging for the docia CLI.
//
// Debug and Info lines are printed only in verbose mode (--verbose) and
// trace ingestion and retrieval. Warnings are always printed: they report
// files that could not be read and searches that degraded to no results.
// All output goes to stderr so it never mixes with command output.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level is the severity of a log line.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
)

// String returns the tag printed in front of a line.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables Debug and Info output.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects log output. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Enabled reports whether lines at level are currently printed.
func Enabled(level Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled(level)
}

func enabled(level Level) bool {
	return verbose || level >= LevelWarn
}

func logf(level Level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !enabled(level) {
		return
	}
	fmt.Fprintf(output, "["+level.String()+"] "+format+"\n", args...)
}

// Debug prints a trace message in verbose mode.
func Debug(format string, args ...any) {
	logf(LevelDebug, format, args...)
}

// Info prints a progress message in verbose mode.
func Info(format string, args ...any) {
	logf(LevelInfo, format, args...)
}

// Warn prints a warning.
func Warn(format string, args ...any) {
	logf(LevelWarn, format, args...)
}

// Since prints a Debug line suffixed with the time elapsed since start,
// rounded to the millisecond.
func Since(start time.Time, format string, args ...any) {
	if !Enabled(LevelDebug) {
		return
	}
	elapsed := time.Since(start).Round(time.Millisecond)
	logf(LevelDebug, format+" (%s)", append(args, elapsed)...)
}

// Section prints a section header in verbose mode.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}
