// Package errors defines the tagged error type used across the ingest engine.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for the application. Each corresponds to one of the error
// kinds an ingest run can terminate with.
const (
	CodeRequestInvalid    = "REQUEST_INVALID"
	CodeTransport         = "TRANSPORT"
	CodeAuth              = "AUTH"
	CodeHTTPStatus        = "HTTP_STATUS"
	CodeDecode            = "DECODE"
	CodeCursorLost        = "CURSOR_LOST"
	CodeShapeMismatch     = "SHAPE_MISMATCH"
	CodeTypeError         = "TYPE_ERROR"
	CodeEdgeAttrNonNum    = "EDGE_ATTR_NON_NUMERIC"
	CodeUnknownCollection = "UNKNOWN_COLLECTION"
	CodeUnknown           = "UNKNOWN_ERROR"
	CodeConfigError       = "CONFIG_ERROR"
)

// AppError represents an application error with a code, a message, and an
// optionally wrapped cause.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target by code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(code string, err error, format string, args ...any) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// Sentinel error values, one per ingest error kind. Use errors.Is against
// these, or GetErrorCode/errors.As against *AppError for the full value.
var (
	// ErrRequestInvalid marks a malformed metagraph or graph config (C9).
	ErrRequestInvalid = New(CodeRequestInvalid, "invalid request")
	// ErrTransport marks a network-level failure talking to the database.
	ErrTransport = New(CodeTransport, "transport error")
	// ErrAuth marks an authentication failure (bad credentials, expired JWT).
	ErrAuth = New(CodeAuth, "authentication error")
	// ErrHTTPStatus marks a non-2xx response from the database's HTTP API.
	ErrHTTPStatus = New(CodeHTTPStatus, "unexpected http status")
	// ErrDecode marks a failure decoding a cursor batch or column value.
	ErrDecode = New(CodeDecode, "decode error")
	// ErrCursorLost marks a cursor that expired or was evicted server-side
	// before every batch was consumed.
	ErrCursorLost = New(CodeCursorLost, "cursor lost")
	// ErrShapeMismatch marks feature values whose widths disagree within one
	// column (e.g. a vector row of a different length than earlier rows).
	ErrShapeMismatch = New(CodeShapeMismatch, "shape mismatch")
	// ErrTypeError marks a value that could not be coerced to the expected type.
	ErrTypeError = New(CodeTypeError, "type error")
	// ErrEdgeAttrNonNumeric marks a non-numeric value in an edge attribute
	// column requested for a COO/feature load.
	ErrEdgeAttrNonNumeric = New(CodeEdgeAttrNonNum, "edge attribute not numeric")
	// ErrUnknownCollection marks a collection name referenced by the metagraph
	// that does not exist in the target database.
	ErrUnknownCollection = New(CodeUnknownCollection, "unknown collection")
	// ErrConfigError marks a configuration validation failure.
	ErrConfigError = New(CodeConfigError, "configuration error")
)

// NewEdgeAttrNonNumeric builds the EdgeAttrNonNumeric error for a specific
// edge and attribute. The message intentionally contains the two literal
// substrings callers and tests match on: "Could not insert edge" and
// "Edge data must be a numeric value".
func NewEdgeAttrNonNumeric(edgeID, attribute string, value any) *AppError {
	return &AppError{
		Code: CodeEdgeAttrNonNum,
		Message: fmt.Sprintf(
			"Could not insert edge %s: Edge data must be a numeric value, got %q=%v",
			edgeID, attribute, value,
		),
	}
}

// Is reports whether err (or an error it wraps) carries the given code.
func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, or CodeUnknown.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetErrorMessage extracts the error message from an error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
