// Package logger provides centralized logging for the kill switch.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/apex/log/handlers/multi"
	"github.com/apex/log/handlers/text"
)

// Verbosity selects how much diagnostic output is shown.
type Verbosity int

const (
	LevelNormal Verbosity = iota
	LevelVerbose
	LevelDebug
)

// VerbosityFromCount maps the number of -v flags to a Verbosity.
func VerbosityFromCount(n int) Verbosity {
	switch {
	case n <= 0:
		return LevelNormal
	case n == 1:
		return LevelVerbose
	default:
		return LevelDebug
	}
}

// Level returns the apex/log level for v.
func (v Verbosity) Level() log.Level {
	switch v {
	case LevelVerbose:
		return log.InfoLevel
	case LevelDebug:
		return log.DebugLevel
	default:
		return log.WarnLevel
	}
}

func (v Verbosity) String() string {
	switch v {
	case LevelVerbose:
		return "verbose"
	case LevelDebug:
		return "debug"
	default:
		return "normal"
	}
}

// Options configures Init.
type Options struct {
	Verbosity Verbosity
	// File, when set, receives a plain-text copy of every entry.
	File string
	// Writer receives console output. Defaults to os.Stderr.
	Writer io.Writer
}

var (
	logMutex sync.Mutex
	logFile  *os.File
	logPath  string
	std      = &log.Logger{Handler: cli.New(os.Stderr), Level: log.WarnLevel}
)

// Init installs the console handler and, optionally, a log file.
func Init(opts Options) error {
	logMutex.Lock()
	defer logMutex.Unlock()

	closeUnsafe()

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	var handler log.Handler = cli.New(w)

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logFile = f
		logPath = opts.File
		handler = multi.New(handler, text.New(f))
	}

	std = &log.Logger{Handler: handler, Level: opts.Verbosity.Level()}
	return nil
}

// Close closes the log file.
func Close() {
	logMutex.Lock()
	defer logMutex.Unlock()
	if logFile != nil {
		std = &log.Logger{Handler: cli.New(os.Stderr), Level: std.Level}
	}
	closeUnsafe()
}

func closeUnsafe() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
		logPath = ""
	}
}

// GetLogPath returns the path to the log file, or "" when none is open.
func GetLogPath() string {
	logMutex.Lock()
	defer logMutex.Unlock()
	return logPath
}

// Log returns the active logger for structured use.
func Log() log.Interface {
	logMutex.Lock()
	defer logMutex.Unlock()
	return std
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	Log().Infof(format, args...)
}

// Debug logs a debug message
func Debug(format string, args ...interface{}) {
	Log().Debugf(format, args...)
}

// Warning logs a warning message
func Warning(format string, args ...interface{}) {
	Log().Warnf(format, args...)
}
