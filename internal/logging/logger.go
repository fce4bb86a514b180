// Package logging provides a small leveled logger with optional color and
// an optional file sink. A single Logger is shared by all jobs; per-job
// lines carry the production id in the message.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

type colorSet struct {
	red, green, yellow, blue, cyan, reset string
}

var ansi = colorSet{
	red:    "\033[1;91m",
	green:  "\033[1;92m",
	yellow: "\033[1;93m",
	blue:   "\033[1;94m",
	cyan:   "\033[1;96m",
	reset:  "\033[0m",
}

type Logger struct {
	mu      sync.Mutex
	colors  colorSet
	file    *os.File
	verbose bool
}

// New builds a Logger. colorMode is "always", "never", or "auto"; logFile,
// when non-empty, receives an uncolored copy of every line.
func New(colorMode, logFile string, verbose bool) (*Logger, error) {
	l := &Logger{verbose: verbose}

	enable := false
	switch colorMode {
	case "always":
		enable = true
	case "never":
		enable = false
	default:
		enable = isTerminal(os.Stdout) && os.Getenv("NO_COLOR") == "" &&
			strings.ToLower(os.Getenv("TERM")) != "dumb"
	}
	if enable {
		l.colors = ansi
	}

	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		l.file = f
	}
	return l, nil
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

func (l *Logger) line(level, color, text string) {
	ts := time.Now().Format("2006-01-02 15:04:05")
	plain := ts + " [" + level + "] " + text + "\n"

	l.mu.Lock()
	defer l.mu.Unlock()

	out := os.Stdout
	if level == "ERROR" {
		out = os.Stderr
	}
	if color != "" {
		_, _ = io.WriteString(out, ts+" "+color+"["+level+"]"+l.colors.reset+" "+text+"\n")
	} else {
		_, _ = io.WriteString(out, plain)
	}
	if l.file != nil {
		_, _ = io.WriteString(l.file, plain)
	}
}

func (l *Logger) Info(format string, args ...any) {
	l.line("INFO", l.colors.blue, fmt.Sprintf(format, args...))
}

func (l *Logger) Success(format string, args ...any) {
	l.line("SUCCESS", l.colors.green, fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(format string, args ...any) {
	l.line("WARN", l.colors.yellow, fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...any) {
	l.line("ERROR", l.colors.red, fmt.Sprintf(format, args...))
}

// Debug logs only when the logger was built verbose.
func (l *Logger) Debug(format string, args ...any) {
	if !l.verbose {
		return
	}
	l.line("DEBUG", l.colors.cyan, fmt.Sprintf(format, args...))
}
