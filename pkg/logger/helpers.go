package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs a completed HTTP exchange at a level matching its status
func LogRequest(l Logger, method, path string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"path":        path,
		"status_code": statusCode,
		"duration_ms": float64(duration.Microseconds()) / 1000,
	}

	switch {
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		l.WarnWithFields("HTTP request client error", fields)
	default:
		l.DebugWithFields("HTTP request completed", fields)
	}
}

// LogPage logs one fetched page of a resource stream
func LogPage(l Logger, stream string, page, items, total int, cursor string) {
	l.DebugWithFields("Fetched page", map[string]interface{}{
		"stream": stream,
		"page":   page,
		"items":  items,
		"total":  total,
		"cursor": cursor,
	})
}

// LogWalkStop logs why a walk over stream ended
func LogWalkStop(l Logger, stream, reason string, pages, total int) {
	l.InfoWithFields("Walk finished", map[string]interface{}{
		"stream": stream,
		"reason": reason,
		"pages":  pages,
		"total":  total,
	})
}

// LogRateLimit logs a wait imposed by the request limiter
func LogRateLimit(l Logger, path string, waited time.Duration) {
	l.WithFields(map[string]interface{}{
		"path":   path,
		"waited": waited,
		"action": "rate_limited",
	}).Debug("Request delayed by rate limiter")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
