package predict

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies why a prediction request failed
type ErrorKind string

const (
	// KindNetwork means the service could not be reached
	KindNetwork ErrorKind = "network"

	// KindServer means the service answered with a non-2xx status
	KindServer ErrorKind = "server"

	// KindDecode means the body was not the expected JSON shape
	KindDecode ErrorKind = "decode"

	// KindMalformed means the prediction parsed but has the wrong structure
	KindMalformed ErrorKind = "malformed"
)

// Sentinels for errors.Is; matching compares Kind only.
var (
	ErrNetwork   = &UploadError{Kind: KindNetwork}
	ErrServer    = &UploadError{Kind: KindServer}
	ErrDecode    = &UploadError{Kind: KindDecode}
	ErrMalformed = &UploadError{Kind: KindMalformed}
)

// UploadError is returned for every failed prediction request
type UploadError struct {
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *UploadError) Error() string {
	parts := []string{fmt.Sprintf("type=%s", e.Kind)}

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%s", e.Cause.Error()))
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying error
func (e *UploadError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an UploadError of the same kind
func (e *UploadError) Is(target error) bool {
	if ue, ok := target.(*UploadError); ok {
		return e.Kind == ue.Kind
	}
	return false
}

// NewError creates an upload error
func NewError(kind ErrorKind, message string) *UploadError {
	return &UploadError{Kind: kind, Message: message}
}

// NewErrorWithCause creates an upload error with an underlying cause
func NewErrorWithCause(kind ErrorKind, message string, cause error) *UploadError {
	return &UploadError{Kind: kind, Message: message, Cause: cause}
}

// NewServerError creates a server error carrying the HTTP status
func NewServerError(status int, message string) *UploadError {
	return &UploadError{Kind: KindServer, Message: message, StatusCode: status}
}

// KindOf returns the kind of err, or "" when err is not an UploadError
func KindOf(err error) ErrorKind {
	var ue *UploadError
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return ""
}
