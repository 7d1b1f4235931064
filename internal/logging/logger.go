// Package logging writes shutter's diagnostic log to a file. The terminal
// belongs to the TUI, so nothing here touches stdout.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// Logger is the global logger. It discards output until Init is called.
	Logger = log.New(io.Discard)

	logFile *os.File
)

// Init opens <dir>/shutter-YYYY-MM-DD.log and routes the global logger to it.
// level is a charmbracelet/log level name ("debug", "info", ...).
func Init(dir, level string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("shutter-%s.log", time.Now().Format("2006-01-02")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}

	logFile = f
	Logger = log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           lvl,
	})
	return nil
}

// SetOutput points the global logger at w (tests, CLI subcommands).
func SetOutput(w io.Writer, level log.Level) {
	Logger = log.NewWithOptions(w, log.Options{Level: level})
}

// Close flushes and closes the log file.
func Close() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	Logger = log.New(io.Discard)
}

// Debug logs a debug message.
func Debug(msg string, keyvals ...interface{}) { Logger.Debug(msg, keyvals...) }

// Info logs an info message.
func Info(msg string, keyvals ...interface{}) { Logger.Info(msg, keyvals...) }

// Warn logs a warning.
func Warn(msg string, keyvals ...interface{}) { Logger.Warn(msg, keyvals...) }

// Error logs an error.
func Error(msg string, keyvals ...interface{}) { Logger.Error(msg, keyvals...) }

// WithPrefix returns a child logger tagged with prefix.
func WithPrefix(prefix string) *log.Logger { return Logger.WithPrefix(prefix) }
