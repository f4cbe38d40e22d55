package types

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes the failures the core components report. The HTTP
// layer maps each kind to a transport status; the core never retries.
type ErrorKind string

const (
	KindAlreadyRegistered ErrorKind = "already_registered"
	KindNotFound          ErrorKind = "not_found"
	KindInvalidSubject    ErrorKind = "invalid_subject"
	KindUnauthorized      ErrorKind = "unauthorized"
	KindPatientInactive   ErrorKind = "patient_inactive"
	KindIndexOutOfRange   ErrorKind = "index_out_of_range"
	KindNotOwner          ErrorKind = "not_owner"
	KindEmptyField        ErrorKind = "empty_field"
	KindEncryptionFailed  ErrorKind = "encryption_failed"
	KindDecryptionFailed  ErrorKind = "decryption_failed"
	KindRemoteUnavailable ErrorKind = "remote_unavailable"
	KindInternal          ErrorKind = "internal"
)

// Error is the structured error carried across component boundaries.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates an error of the given kind.
func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates an error of the given kind wrapping a cause.
func WrapError(kind ErrorKind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// IsKind reports whether err is (or wraps) an Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
