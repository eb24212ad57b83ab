package logger

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// LogMessage represents a captured log message
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
	Error   error
}

// TestLogger captures every message for assertions. Child loggers created
// with WithField(s) or WithError record into the same parent.
type TestLogger struct {
	mu       sync.Mutex
	messages []LogMessage
	buffer   bytes.Buffer
	nop      zerolog.Logger
}

// NewTestLogger creates a new test logger
func NewTestLogger() *TestLogger {
	return &TestLogger{nop: zerolog.Nop()}
}

func (l *TestLogger) root() scopedTestLogger {
	return scopedTestLogger{sink: l}
}

func (l *TestLogger) Debug(msg string) { l.root().Debug(msg) }
func (l *TestLogger) Info(msg string)  { l.root().Info(msg) }
func (l *TestLogger) Warn(msg string)  { l.root().Warn(msg) }
func (l *TestLogger) Error(msg string) { l.root().Error(msg) }
func (l *TestLogger) Fatal(msg string) { l.root().Fatal(msg) }

func (l *TestLogger) DebugWithFields(msg string, f map[string]interface{}) {
	l.root().DebugWithFields(msg, f)
}
func (l *TestLogger) InfoWithFields(msg string, f map[string]interface{}) {
	l.root().InfoWithFields(msg, f)
}
func (l *TestLogger) WarnWithFields(msg string, f map[string]interface{}) {
	l.root().WarnWithFields(msg, f)
}
func (l *TestLogger) ErrorWithFields(msg string, f map[string]interface{}) {
	l.root().ErrorWithFields(msg, f)
}
func (l *TestLogger) FatalWithFields(msg string, f map[string]interface{}) {
	l.root().FatalWithFields(msg, f)
}

func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return l.root().WithField(key, value)
}
func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	return l.root().WithFields(fields)
}
func (l *TestLogger) WithError(err error) Logger             { return l.root().WithError(err) }
func (l *TestLogger) WithContext(ctx context.Context) Logger { return l }
func (l *TestLogger) GetZerolog() *zerolog.Logger            { return &l.nop }

func (l *TestLogger) record(m LogMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = append(l.messages, m)

	fmt.Fprintf(&l.buffer, "[%s] %s", m.Level, m.Message)
	if len(m.Fields) > 0 {
		fmt.Fprintf(&l.buffer, " fields=%v", m.Fields)
	}
	if m.Error != nil {
		fmt.Fprintf(&l.buffer, " error=%v", m.Error)
	}
	l.buffer.WriteByte('\n')
}

// GetMessages returns a copy of all captured log messages
func (l *TestLogger) GetMessages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()

	messages := make([]LogMessage, len(l.messages))
	copy(messages, l.messages)
	return messages
}

// GetMessagesByLevel returns all messages of a specific level ("WARN", "INFO", ...)
func (l *TestLogger) GetMessagesByLevel(level string) []LogMessage {
	var filtered []LogMessage
	for _, msg := range l.GetMessages() {
		if msg.Level == level {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

// HasMessage checks if a message with the given text was logged
func (l *TestLogger) HasMessage(text string) bool {
	for _, msg := range l.GetMessages() {
		if msg.Message == text {
			return true
		}
	}
	return false
}

// HasError checks if an error level message was logged
func (l *TestLogger) HasError() bool {
	return len(l.GetMessagesByLevel("ERROR")) > 0
}

// Clear clears all captured messages
func (l *TestLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = l.messages[:0]
	l.buffer.Reset()
}

// String returns all log messages as text, one per line
func (l *TestLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.buffer.String()
}

// scopedTestLogger carries fields and an error for a TestLogger
type scopedTestLogger struct {
	sink   *TestLogger
	fields map[string]interface{}
	err    error
}

func (s scopedTestLogger) log(level, msg string, extra map[string]interface{}) {
	var fields map[string]interface{}
	if len(s.fields)+len(extra) > 0 {
		fields = s.merge(extra)
	}
	s.sink.record(LogMessage{Level: level, Message: msg, Fields: fields, Error: s.err})
}

func (s scopedTestLogger) merge(extra map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(s.fields)+len(extra))
	for k, v := range s.fields {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

func (s scopedTestLogger) Debug(msg string) { s.log("DEBUG", msg, nil) }
func (s scopedTestLogger) Info(msg string)  { s.log("INFO", msg, nil) }
func (s scopedTestLogger) Warn(msg string)  { s.log("WARN", msg, nil) }
func (s scopedTestLogger) Error(msg string) { s.log("ERROR", msg, nil) }
func (s scopedTestLogger) Fatal(msg string) { s.log("FATAL", msg, nil) }

func (s scopedTestLogger) DebugWithFields(msg string, f map[string]interface{}) {
	s.log("DEBUG", msg, f)
}
func (s scopedTestLogger) InfoWithFields(msg string, f map[string]interface{}) {
	s.log("INFO", msg, f)
}
func (s scopedTestLogger) WarnWithFields(msg string, f map[string]interface{}) {
	s.log("WARN", msg, f)
}
func (s scopedTestLogger) ErrorWithFields(msg string, f map[string]interface{}) {
	s.log("ERROR", msg, f)
}
func (s scopedTestLogger) FatalWithFields(msg string, f map[string]interface{}) {
	s.log("FATAL", msg, f)
}

func (s scopedTestLogger) WithField(key string, value interface{}) Logger {
	return s.WithFields(map[string]interface{}{key: value})
}

func (s scopedTestLogger) WithFields(fields map[string]interface{}) Logger {
	return scopedTestLogger{sink: s.sink, fields: s.merge(fields), err: s.err}
}

func (s scopedTestLogger) WithError(err error) Logger {
	return scopedTestLogger{sink: s.sink, fields: s.fields, err: err}
}

func (s scopedTestLogger) WithContext(ctx context.Context) Logger { return s }
func (s scopedTestLogger) GetZerolog() *zerolog.Logger            { return &s.sink.nop }
