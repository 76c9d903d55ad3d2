// logging.go: Pluggable logging for the extension registry
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goextensions

import (
	"sync"
)

// Logger defines the pluggable logging interface used by the registry.
//
// Any logging framework can be plugged in through a small adapter. The
// library ships a zap adapter (see ZapAdapter), a silent NoOpLogger and a
// capturing TestLogger.
//
// Arguments after the message are key-value pairs:
//
//	logger.Warn("Duplicate extension name ignored",
//	    "extension_point", "filter",
//	    "extension_name", "log")
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, args ...any)

	// Info logs an info message with optional key-value pairs
	Info(msg string, args ...any)

	// Warn logs a warning message with optional key-value pairs
	Warn(msg string, args ...any)

	// Error logs an error message with optional key-value pairs
	Error(msg string, args ...any)

	// With returns a new logger with persistent context key-value pairs
	With(args ...any) Logger
}

// NewLogger creates a Logger from supported logger types.
//
// Supported types:
//   - Logger interface: used directly
//   - *zap.Logger: wrapped in a ZapAdapter
//   - nil: NoOpLogger
//
// Any other type panics; this is a programming error at wiring time.
func NewLogger(logger any) Logger {
	switch l := logger.(type) {
	case Logger:
		return l
	case nil:
		return NewNoOpLogger()
	default:
		if adapted, ok := adaptZap(logger); ok {
			return adapted
		}
		panic("unsupported logger type: expected Logger interface, *zap.Logger or nil")
	}
}

// NoOpLogger discards all log messages.
type NoOpLogger struct{}

// NewNoOpLogger creates a new no-operation logger.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

// Debug implements Logger interface (no-op)
func (n *NoOpLogger) Debug(msg string, args ...any) {}

// Info implements Logger interface (no-op)
func (n *NoOpLogger) Info(msg string, args ...any) {}

// Warn implements Logger interface (no-op)
func (n *NoOpLogger) Warn(msg string, args ...any) {}

// Error implements Logger interface (no-op)
func (n *NoOpLogger) Error(msg string, args ...any) {}

// With implements Logger interface (no-op)
func (n *NoOpLogger) With(args ...any) Logger {
	return n
}

// TestLogger captures log messages so tests can assert on them.
// Loggers derived through With share the capture buffer of their parent.
type TestLogger struct {
	state  *testLogState
	fields []any
}

type testLogState struct {
	mu       sync.RWMutex
	messages []TestLogMessage
}

// TestLogMessage represents a captured log message for testing.
type TestLogMessage struct {
	Level   string
	Message string
	Args    []any
}

// NewTestLogger creates a new test logger.
func NewTestLogger() *TestLogger {
	return &TestLogger{state: &testLogState{}}
}

func (t *TestLogger) record(level, msg string, args []any) {
	all := make([]any, 0, len(t.fields)+len(args))
	all = append(all, t.fields...)
	all = append(all, args...)

	t.state.mu.Lock()
	defer t.state.mu.Unlock()
	t.state.messages = append(t.state.messages, TestLogMessage{
		Level:   level,
		Message: msg,
		Args:    all,
	})
}

// Debug implements Logger interface (captures message)
func (t *TestLogger) Debug(msg string, args ...any) { t.record("DEBUG", msg, args) }

// Info implements Logger interface (captures message)
func (t *TestLogger) Info(msg string, args ...any) { t.record("INFO", msg, args) }

// Warn implements Logger interface (captures message)
func (t *TestLogger) Warn(msg string, args ...any) { t.record("WARN", msg, args) }

// Error implements Logger interface (captures message)
func (t *TestLogger) Error(msg string, args ...any) { t.record("ERROR", msg, args) }

// With implements Logger interface
func (t *TestLogger) With(args ...any) Logger {
	fields := make([]any, 0, len(t.fields)+len(args))
	fields = append(fields, t.fields...)
	fields = append(fields, args...)
	return &TestLogger{state: t.state, fields: fields}
}

// Messages returns a copy of every captured message.
func (t *TestLogger) Messages() []TestLogMessage {
	t.state.mu.RLock()
	defer t.state.mu.RUnlock()
	out := make([]TestLogMessage, len(t.state.messages))
	copy(out, t.state.messages)
	return out
}

// HasMessage checks if the logger captured a message at level with the exact text.
func (t *TestLogger) HasMessage(level, message string) bool {
	return t.CountMessages(level, message) > 0
}

// CountMessages counts captured messages at level with the exact text.
func (t *TestLogger) CountMessages(level, message string) int {
	t.state.mu.RLock()
	defer t.state.mu.RUnlock()
	count := 0
	for _, msg := range t.state.messages {
		if msg.Level == level && msg.Message == message {
			count++
		}
	}
	return count
}

// Clear removes all captured messages.
func (t *TestLogger) Clear() {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()
	t.state.messages = t.state.messages[:0]
}

// DefaultLogger returns the logger used when none is configured.
func DefaultLogger() Logger {
	return NewNoOpLogger()
}
