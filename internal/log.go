package internal

import (
	"io"
	"log"
	"os"
	"strings"
)

// LogLevel represents different logging verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

// Logger provides leveled logging
type Logger struct {
	level LogLevel
	out   *log.Logger
}

// NewLogger creates a new logger with the specified level writing to stderr
func NewLogger(level LogLevel) *Logger {
	return NewLoggerTo(level, os.Stderr)
}

// NewLoggerTo creates a logger writing to w
func NewLoggerTo(level LogLevel, w io.Writer) *Logger {
	return &Logger{level: level, out: log.New(w, "", log.LstdFlags)}
}

// ParseLogLevel maps ERROR/WARN/INFO/DEBUG/TRACE to a level
func ParseLogLevel(s string) (LogLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LogLevelError, true
	case "WARN":
		return LogLevelWarn, true
	case "INFO":
		return LogLevelInfo, true
	case "DEBUG":
		return LogLevelDebug, true
	case "TRACE":
		return LogLevelTrace, true
	}
	return LogLevelInfo, false
}

// NewDefaultLogger creates a logger based on LOG_LEVEL environment variable
func NewDefaultLogger() *Logger {
	level, _ := ParseLogLevel(os.Getenv("LOG_LEVEL"))
	return NewLogger(level)
}

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.logf(LogLevelError, "[ERROR] ", format, args...)
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	l.logf(LogLevelWarn, "[WARN] ", format, args...)
}

// Info logs info messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.logf(LogLevelInfo, "[INFO] ", format, args...)
}

// Debug logs debug messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.logf(LogLevelDebug, "[DEBUG] ", format, args...)
}

// Trace logs trace messages
func (l *Logger) Trace(format string, args ...interface{}) {
	l.logf(LogLevelTrace, "[TRACE] ", format, args...)
}

func (l *Logger) logf(level LogLevel, tag, format string, args ...interface{}) {
	if l == nil || l.level < level {
		return
	}
	l.out.Printf(tag+format, args...)
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	return l.level
}

// Global logger instance
var DefaultLogger = NewDefaultLogger()
