package logger

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Level represents the severity level of a log message.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	NoticeLevel
	ErrorLevel
)

// ParseLevel converts a level name such as "info" or "DEBUG" to a Level
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info":
		return InfoLevel, nil
	case "notice":
		return NoticeLevel, nil
	case "error":
		return ErrorLevel, nil
	}
	return InfoLevel, fmt.Errorf("unknown log level: %s", s)
}

// Layer identifies which side of the two-layer network a message is about.
// Settlement is the Bitcoin base chain, Execution is the EVM layer running the pool.
type Layer int

const (
	None Layer = iota
	Settlement
	Execution
)

var layerPrefixes = map[Layer]string{
	None:       "",
	Settlement: "[BTC] ",
	Execution:  "[EVM] ",
}

var colors = map[Layer]color.Attribute{
	None:       color.FgWhite,
	Settlement: color.FgYellow,
	Execution:  color.FgHiBlue,
}

// Logger is a simple interface for logging messages.
type Logger interface {
	// Info logs an informational message.
	Info(format string, args ...interface{})
	InfoWithLayer(layer Layer, format string, args ...interface{})

	// Error logs an error message.
	Error(format string, args ...interface{})
	ErrorWithLayer(layer Layer, format string, args ...interface{})

	// Debug logs a debug message.
	Debug(format string, args ...interface{})
	DebugWithLayer(layer Layer, format string, args ...interface{})

	// Notice logs a notice message.
	Notice(format string, args ...interface{})
	NoticeWithLayer(layer Layer, format string, args ...interface{})
}

// EmptyLogger is a simple implementation of the Logger interface that does nothing.
type EmptyLogger struct{}

var _ Logger = (*EmptyLogger)(nil)

func (l *EmptyLogger) Info(_ string, _ ...interface{})                     {}
func (l *EmptyLogger) InfoWithLayer(_ Layer, _ string, _ ...interface{})   {}
func (l *EmptyLogger) Error(_ string, _ ...interface{})                    {}
func (l *EmptyLogger) ErrorWithLayer(_ Layer, _ string, _ ...interface{})  {}
func (l *EmptyLogger) Debug(_ string, _ ...interface{})                    {}
func (l *EmptyLogger) DebugWithLayer(_ Layer, _ string, _ ...interface{})  {}
func (l *EmptyLogger) Notice(_ string, _ ...interface{})                   {}
func (l *EmptyLogger) NoticeWithLayer(_ Layer, _ string, _ ...interface{}) {}

// StdLogger is a standard implementation of the Logger interface that logs messages to the console.
type StdLogger struct {
	enableColoring bool
	level          Level
	mu             sync.Mutex
}

var _ Logger = (*StdLogger)(nil)

func NewStdLogger(enableColoring bool, level Level) *StdLogger {
	return &StdLogger{
		enableColoring: enableColoring,
		level:          level,
	}
}

// formatMessage formats the log message with the level, layer prefix, and coloring if enabled.
func (l *StdLogger) formatMessage(level Level, layer Layer, format string) string {
	prefix := layerPrefixes[layer]
	if l.enableColoring && prefix != "" {
		prefix = color.New(colors[layer]).Sprint(prefix)
	}

	var levelStr string
	switch level {
	case DebugLevel:
		levelStr = "[DEBUG]  "
	case InfoLevel:
		levelStr = "[INFO]   "
	case NoticeLevel:
		levelStr = "[NOTICE] "
	case ErrorLevel:
		levelStr = "[ERROR]  "
	}

	return levelStr + prefix + format
}

func (l *StdLogger) logf(level Level, layer Layer, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level <= level {
		log.Printf(l.formatMessage(level, layer, format), args...)
	}
}

func (l *StdLogger) Info(format string, args ...interface{}) {
	l.logf(InfoLevel, None, format, args...)
}

func (l *StdLogger) InfoWithLayer(layer Layer, format string, args ...interface{}) {
	l.logf(InfoLevel, layer, format, args...)
}

func (l *StdLogger) Error(format string, args ...interface{}) {
	l.logf(ErrorLevel, None, format, args...)
}

func (l *StdLogger) ErrorWithLayer(layer Layer, format string, args ...interface{}) {
	l.logf(ErrorLevel, layer, format, args...)
}

func (l *StdLogger) Debug(format string, args ...interface{}) {
	l.logf(DebugLevel, None, format, args...)
}

func (l *StdLogger) DebugWithLayer(layer Layer, format string, args ...interface{}) {
	l.logf(DebugLevel, layer, format, args...)
}

func (l *StdLogger) Notice(format string, args ...interface{}) {
	l.logf(NoticeLevel, None, format, args...)
}

func (l *StdLogger) NoticeWithLayer(layer Layer, format string, args ...interface{}) {
	l.logf(NoticeLevel, layer, format, args...)
}
