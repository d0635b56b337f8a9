// Package errors provides the coded errors shared by the bpcgraph library,
// CLI and HTTP API.
//
// Every failure that crosses a package boundary carries a [Code]. Codes fall
// into four groups:
//   - INVALID_*: malformed graphs, configurations, operations, files or paths
//   - NOT_FOUND, FILE_NOT_FOUND: missing resources
//   - UNREACHABLE_TARGET, BUDGET_EXCEEDED, CANCELLED: how a search ended
//   - INTERNAL_ERROR, UNSUPPORTED: everything else
//
// A code decides the HTTP status the API answers with ([HTTPStatus]).
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidGraph, "pin %s/%s references unknown box", box, pin)
//	if errors.Is(err, errors.ErrCodeInvalidGraph) {
//	    // reject the input
//	}
//
//	err = errors.Wrap(errors.ErrCodeInvalidFormat, cause, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidGraph     Code = "INVALID_GRAPH"
	ErrCodeInvalidConfig    Code = "INVALID_CONFIG"
	ErrCodeInvalidOperation Code = "INVALID_OPERATION"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"
	ErrCodeInvalidPath      Code = "INVALID_PATH"

	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	ErrCodeUnreachable    Code = "UNREACHABLE_TARGET"
	ErrCodeBudgetExceeded Code = "BUDGET_EXCEEDED"
	ErrCodeCancelled      Code = "CANCELLED"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

type codeInfo struct {
	status  int
	invalid bool
}

var codes = map[Code]codeInfo{
	ErrCodeInvalidInput:     {http.StatusBadRequest, true},
	ErrCodeInvalidGraph:     {http.StatusBadRequest, true},
	ErrCodeInvalidConfig:    {http.StatusBadRequest, true},
	ErrCodeInvalidOperation: {http.StatusBadRequest, true},
	ErrCodeInvalidFormat:    {http.StatusBadRequest, true},
	ErrCodeInvalidPath:      {http.StatusBadRequest, true},
	ErrCodeNotFound:         {http.StatusNotFound, false},
	ErrCodeFileNotFound:     {http.StatusNotFound, false},
	// A failed search is a result, not a request error. These only reach
	// the API when a caller asks for the error itself.
	ErrCodeUnreachable:    {http.StatusUnprocessableEntity, false},
	ErrCodeBudgetExceeded: {http.StatusUnprocessableEntity, false},
	ErrCodeCancelled:      {http.StatusServiceUnavailable, false},
	ErrCodeInternal:       {http.StatusInternalServerError, false},
	ErrCodeUnsupported:    {http.StatusNotImplemented, false},
}

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an error with code and a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an error with code and a formatted message around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the outermost *Error in err's chain has code.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode returns the code of the outermost *Error in err's chain, or ""
// when there is none.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message of the outermost *Error without its code,
// or err.Error() for uncoded errors.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsInvalid reports whether err carries one of the INVALID_* codes.
func IsInvalid(err error) bool {
	return codes[GetCode(err)].invalid
}

// HTTPStatus maps err to a response status by its code. Uncoded errors are
// internal errors.
func HTTPStatus(err error) int {
	if info, ok := codes[GetCode(err)]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}
