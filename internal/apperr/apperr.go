// Package apperr defines the stable, caller-visible error classification
// used across the processing pipeline. Every failure that reaches the HTTP
// boundary carries one of these codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Code identifies a stable failure classification.
type Code string

// Stable classification codes. These are part of the API contract and
// must not be renamed.
const (
	CodeNoInput           Code = "NO_INPUT"
	CodeUnsupportedMedia  Code = "UNSUPPORTED_MEDIA"
	CodeInputTooLarge     Code = "INPUT_TOO_LARGE"
	CodeInvalidPath       Code = "INVALID_PATH"
	CodeProbeUnavailable  Code = "PROBE_UNAVAILABLE"
	CodeProbeFailed       Code = "PROBE_FAILED"
	CodeConversionTimeout Code = "CONVERSION_TIMEOUT"
	CodeConversionFailed  Code = "CONVERSION_FAILED"
	CodeUnknown           Code = "UNKNOWN"
)

// maxToolOutput bounds how much external-tool stderr may be carried in an
// error message surfaced to callers.
const maxToolOutput = 2048

// Error is a classified pipeline error. Message is safe to show to callers;
// Err holds the underlying cause for logging.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// New creates a classified error without an underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a classified error wrapping an underlying cause.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf extracts the classification code from err, or CodeUnknown when
// err carries no classification.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// MessageOf extracts the caller-safe message from err, or a generic
// fallback when err carries no classification.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}

// HTTPStatus maps a classification code to an HTTP response status.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNoInput, CodeInvalidPath:
		return http.StatusBadRequest
	case CodeUnsupportedMedia:
		return http.StatusUnsupportedMediaType
	case CodeInputTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeProbeFailed:
		return http.StatusUnprocessableEntity
	case CodeProbeUnavailable:
		return http.StatusServiceUnavailable
	case CodeConversionTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// TruncateToolOutput bounds external-tool output (stderr) before it is
// embedded in an error message, keeping the tail since ffmpeg and ffprobe
// report the actual failure last.
func TruncateToolOutput(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxToolOutput {
		return s
	}
	return "..." + s[len(s)-maxToolOutput:]
}
