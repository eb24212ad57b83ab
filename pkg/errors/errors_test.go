package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "schema with op",
			err:  Schema("decode comments", "missing key %q", "comments"),
			want: `decode comments: schema error: missing key "comments"`,
		},
		{
			name: "transport with code",
			err:  Transport("GET /api", 502, fmt.Errorf("bad gateway")),
			want: "GET /api: transport error (code 502): bad gateway",
		},
		{
			name: "input with cause",
			err:  Input("", "invalid note url", fmt.Errorf("empty id")),
			want: "input error: invalid note url: empty id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorType
	}{
		{http.StatusUnauthorized, ErrorTypeAuth},
		{http.StatusForbidden, ErrorTypeAuth},
		{http.StatusTooManyRequests, ErrorTypeRateLimit},
		{http.StatusNotFound, ErrorTypeNotFound},
		{http.StatusBadGateway, ErrorTypeServerError},
		{http.StatusTeapot, ErrorTypeTransport},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := FromStatus("op", tt.status, "msg")
			assert.Equal(t, tt.want, err.Type)
			assert.True(t, IsTransport(err))
			assert.False(t, IsFatal(err))
		})
	}
}

func TestClassificationThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("walk user notes: %w", Input("parse", "bad url", nil))
	assert.True(t, IsFatal(wrapped))
	assert.False(t, IsSchema(wrapped))

	schema := fmt.Errorf("page 2: %w", Schema("decode", "no items"))
	assert.True(t, IsSchema(schema))
	assert.False(t, IsTransport(schema))

	assert.Equal(t, ErrorType(""), TypeOf(stderrors.New("plain")))
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := Transport("GET", 0, cause)
	assert.ErrorIs(t, err, cause)
}
