// Package apperr defines the registry's error taxonomy.
package apperr

import (
	"errors"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown         Code = "UNKNOWN"
	CodeMissingField    Code = "MISSING_FIELD"
	CodeInvalidCategory Code = "INVALID_CATEGORY"
	CodeInvalidImage    Code = "INVALID_IMAGE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeDuplicateTitle  Code = "DUPLICATE_TITLE"
	CodeCorruptState    Code = "CORRUPT_STATE"
	CodeStorageFailure  Code = "STORAGE_FAILURE"
	CodeMalformedBody   Code = "MALFORMED_BODY"
)

// HTTPStatus maps a code to the status the transport layer answers with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeMissingField, CodeInvalidCategory, CodeInvalidImage, CodeMalformedBody:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeDuplicateTitle:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error carrying a code, a human-readable message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code, so the
// sentinels below work with errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrMissingField    = &Error{Code: CodeMissingField}
	ErrInvalidCategory = &Error{Code: CodeInvalidCategory}
	ErrInvalidImage    = &Error{Code: CodeInvalidImage}
	ErrNotFound        = &Error{Code: CodeNotFound}
	ErrDuplicateTitle  = &Error{Code: CodeDuplicateTitle}
	ErrCorruptState    = &Error{Code: CodeCorruptState}
	ErrStorageFailure  = &Error{Code: CodeStorageFailure}
	ErrMalformedBody   = &Error{Code: CodeMalformedBody}
)

// New builds an Error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds an Error around cause. A nil cause yields nil.
func Wrap(code Code, message string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Cause: cause}
}

// GetCode extracts the code from any error, CodeUnknown for foreign errors.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// Message returns the human-readable message of a domain error, falling
// back to err.Error() for foreign errors.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
