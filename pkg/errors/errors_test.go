package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			err:      New(CodeTransport, "connection failed"),
			expected: "[TRANSPORT] connection failed",
		},
		{
			name:     "with underlying error",
			err:      Wrap(CodeAuth, "auth failed", errors.New("401")),
			expected: "[AUTH] auth failed: 401",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := Wrap(CodeDecode, "decode failed", underlying)

	unwrapped := err.Unwrap()
	assert.Equal(t, underlying, unwrapped)
}

func TestAppError_Is(t *testing.T) {
	err1 := New(CodeTransport, "error 1")
	err2 := New(CodeTransport, "error 2")
	err3 := New(CodeAuth, "error 3")

	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, err3))
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     string
		expected bool
	}{
		{"matching transport", ErrTransport, CodeTransport, true},
		{"wrapped cursor lost", Wrap(CodeCursorLost, "cursor expired", errors.New("404")), CodeCursorLost, true},
		{"other code", ErrAuth, CodeTransport, false},
		{"nil error", nil, CodeTransport, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Is(tt.err, tt.code))
		})
	}
}

func TestNewEdgeAttrNonNumeric(t *testing.T) {
	err := NewEdgeAttrNonNumeric("edges/e1", "weight", "not-a-number")

	assert.Equal(t, CodeEdgeAttrNonNum, err.Code)
	assert.Contains(t, err.Error(), "Could not insert edge")
	assert.Contains(t, err.Error(), "Edge data must be a numeric value")
	assert.Contains(t, err.Error(), "edges/e1")
	assert.Contains(t, err.Error(), "weight")
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "app error",
			err:      New(CodeShapeMismatch, "ragged matrix"),
			expected: CodeShapeMismatch,
		},
		{
			name:     "wrapped app error",
			err:      Wrap(CodeUnknownCollection, "no such collection", errors.New("inner")),
			expected: CodeUnknownCollection,
		},
		{
			name:     "standard error",
			err:      errors.New("standard error"),
			expected: CodeUnknown,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: CodeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetErrorCode(tt.err))
		})
	}
}

func TestGetErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "app error",
			err:      New(CodeTypeError, "expected float64, got string"),
			expected: "expected float64, got string",
		},
		{
			name:     "standard error",
			err:      errors.New("standard error"),
			expected: "standard error",
		},
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetErrorMessage(tt.err))
		})
	}
}
