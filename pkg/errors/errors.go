package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType classifies a crawl failure
type ErrorType string

const (
	// ErrorTypeTransport covers network failures, non-2xx responses and undecodable bodies
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeSchema means a response decoded but lacked the keys needed to continue
	ErrorTypeSchema ErrorType = "schema"
	// ErrorTypeInput means the caller supplied a target that cannot be parsed
	ErrorTypeInput ErrorType = "input"

	// Refinements of transport failures derived from HTTP status codes
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
)

// Error is a typed crawl error
type Error struct {
	Type    ErrorType
	Op      string
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}

	if e.Op == "" {
		if e.Code != 0 {
			return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, msg)
		}
		return fmt.Sprintf("%s error: %s", e.Type, msg)
	}
	if e.Code != 0 {
		return fmt.Sprintf("%s: %s error (code %d): %s", e.Op, e.Type, e.Code, msg)
	}
	return fmt.Sprintf("%s: %s error: %s", e.Op, e.Type, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Transport builds a transport failure for op
func Transport(op string, code int, err error) *Error {
	return &Error{Type: ErrorTypeTransport, Op: op, Code: code, Err: err}
}

// Schema builds a schema failure for op
func Schema(op, format string, args ...interface{}) *Error {
	return &Error{Type: ErrorTypeSchema, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Input builds a fatal input failure for op
func Input(op, message string, err error) *Error {
	return &Error{Type: ErrorTypeInput, Op: op, Message: message, Err: err}
}

// FromStatus maps an HTTP status code to a typed error
func FromStatus(op string, status int, message string) *Error {
	t := ErrorTypeTransport
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		t = ErrorTypeAuth
	case status == http.StatusTooManyRequests:
		t = ErrorTypeRateLimit
	case status == http.StatusNotFound:
		t = ErrorTypeNotFound
	case status >= 500:
		t = ErrorTypeServerError
	}
	return &Error{Type: t, Op: op, Message: message, Code: status}
}

// TypeOf returns the type of the first *Error in err's chain, or "" if none
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ""
}

// IsFatal reports whether err must propagate regardless of failure policy
func IsFatal(err error) bool {
	return TypeOf(err) == ErrorTypeInput
}

// IsSchema reports whether err is a schema failure
func IsSchema(err error) bool {
	return TypeOf(err) == ErrorTypeSchema
}

// IsTransport reports whether err is a transport failure or one of its refinements
func IsTransport(err error) bool {
	switch TypeOf(err) {
	case ErrorTypeTransport, ErrorTypeAuth, ErrorTypeRateLimit, ErrorTypeNotFound, ErrorTypeServerError:
		return true
	default:
		return false
	}
}
