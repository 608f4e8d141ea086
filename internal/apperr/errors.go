// Package apperr defines the error taxonomy for calls against the remote service.
package apperr

import (
	"errors"
	"fmt"
)

// Kind discriminates the failure classes of a remote call.
type Kind int

const (
	// KindHTTP is a non-2xx response from the service.
	KindHTTP Kind = iota + 1
	// KindDecode is a 2xx response whose body does not match the expected shape.
	KindDecode
	// KindTransport is a network-level failure (connection refused, timeout).
	KindTransport
)

// RequestError describes a failed call to the remote service.
//
// For KindHTTP the message is the response body text when non-empty,
// otherwise a synthesized "<METHOD> <path> failed (HTTP <status>)" line.
// For KindTransport the transport's native message is preserved.
type RequestError struct {
	Kind    Kind
	Method  string
	Path    string
	Status  int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause, if any.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// NewHTTP builds a KindHTTP error from a response status and body text.
func NewHTTP(method, path string, status int, body string) *RequestError {
	msg := body
	if msg == "" {
		msg = fmt.Sprintf("%s %s failed (HTTP %d)", method, path, status)
	}
	return &RequestError{
		Kind:    KindHTTP,
		Method:  method,
		Path:    path,
		Status:  status,
		Message: msg,
	}
}

// NewDecode builds a KindDecode error wrapping the decode cause.
func NewDecode(method, path string, err error) *RequestError {
	return &RequestError{
		Kind:    KindDecode,
		Method:  method,
		Path:    path,
		Message: fmt.Sprintf("%s %s: decode response: %v", method, path, err),
		Err:     err,
	}
}

// NewTransport builds a KindTransport error wrapping the transport cause.
func NewTransport(method, path string, err error) *RequestError {
	return &RequestError{
		Kind:    KindTransport,
		Method:  method,
		Path:    path,
		Message: fmt.Sprintf("%s %s: %v", method, path, err),
		Err:     err,
	}
}

// KindOf returns the Kind of err when it is (or wraps) a RequestError,
// and zero otherwise.
func KindOf(err error) Kind {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Kind
	}
	return 0
}
