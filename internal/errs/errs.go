// Package errs defines the error kinds the customer API reports to clients.
//
// Every failure that reaches the dispatch boundary is converted into an
// *Error, which carries the kind string sent to the client, the HTTP status
// and, for validation failures, the offending field.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the machine-readable error name returned in the "error" field.
type Kind string

const (
	KindMalformedInput    Kind = "MalformedInput"
	KindValidation        Kind = "ValidationError"
	KindStoreWriteFailed  Kind = "StoreWriteFailed"
	KindStoreReadFailed   Kind = "StoreReadFailed"
	KindConfigUnavailable Kind = "ConfigUnavailable"
	KindNotFound          Kind = "NotFound"
	KindMethodNotAllowed  Kind = "MethodNotAllowed"
	KindInternal          Kind = "InternalError"
)

// Error is a classified failure.
type Error struct {
	Kind    Kind
	Message string
	Status  int

	// Field is set for KindValidation.
	Field string

	// Err is the underlying cause. It is logged, never sent to the client.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// As extracts an *Error from err. Unclassified errors become KindInternal.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func Malformed(message string, cause error) *Error {
	return &Error{Kind: KindMalformedInput, Message: message, Status: http.StatusBadRequest, Err: cause}
}

// Validation reports an invalid or missing field. The message always names
// the field.
func Validation(field, message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: fmt.Sprintf("%s: %s", field, message),
		Status:  http.StatusBadRequest,
		Field:   field,
	}
}

func StoreWrite(cause error) *Error {
	return &Error{Kind: KindStoreWriteFailed, Message: "failed to save customer", Status: http.StatusBadGateway, Err: cause}
}

func StoreRead(cause error) *Error {
	return &Error{Kind: KindStoreReadFailed, Message: "failed to list customers", Status: http.StatusBadGateway, Err: cause}
}

func ConfigUnavailable(cause error) *Error {
	return &Error{Kind: KindConfigUnavailable, Message: "service configuration is unavailable", Status: http.StatusInternalServerError, Err: cause}
}

func NotFound(method, path string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("no route for %s %s", method, path), Status: http.StatusNotFound}
}

func MethodNotAllowed(method, path string) *Error {
	return &Error{Kind: KindMethodNotAllowed, Message: fmt.Sprintf("method %s not allowed on %s", method, path), Status: http.StatusMethodNotAllowed}
}

// Internal hides the cause behind the generic status text.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: http.StatusText(http.StatusInternalServerError), Status: http.StatusInternalServerError, Err: cause}
}
