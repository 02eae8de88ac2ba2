package types

import (
	"errors"
	"fmt"
)

// ErrorKind discriminates the expected failure conditions. Callers branch
// on the kind rather than on error strings.
type ErrorKind string

const (
	ErrInvalidManifest ErrorKind = "invalid-manifest"
	ErrNotFound        ErrorKind = "not-found"
	ErrTransport       ErrorKind = "transport"
	ErrRateLimited     ErrorKind = "rate-limited"
	ErrHashMismatch    ErrorKind = "hash-mismatch"
	ErrOversized       ErrorKind = "oversized"
)

// Error is the discriminated failure result returned for all expected
// conditions: parse failures, missing manifests, transport trouble,
// integrity mismatches. Unexpected defects still surface as plain errors.
type Error struct {
	Kind ErrorKind
	URI  string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.URI != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.URI, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds an Error with a formatted message.
func Errorf(kind ErrorKind, uri, format string, args ...any) *Error {
	return &Error{Kind: kind, URI: uri, Msg: fmt.Sprintf(format, args...)}
}

// WrapError attaches a kind and URI to an underlying error.
func WrapError(kind ErrorKind, uri string, err error) *Error {
	return &Error{Kind: kind, URI: uri, Err: err}
}

// KindOf returns the kind of err, or "" if err carries no kind.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err (or anything it wraps) has the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// IsNotFound reports whether err is a not-found condition. Discovery
// treats these as soft signals to keep probing other locations.
func IsNotFound(err error) bool {
	return IsKind(err, ErrNotFound)
}
