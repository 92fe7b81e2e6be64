// Package domainerrors provides coded errors for the identity workflow.
//
// Services translate infrastructure sentinels (pkg/platform/sentinel) into
// these errors; the HTTP layer translates codes into status lines. Handlers
// and tests should match on codes via HasCode, never on message text.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies an error for transport mapping and caller branching.
type Code string

const (
	// CodeInvalidInput covers malformed or missing input, caught before any
	// store access.
	CodeInvalidInput Code = "invalid_input"
	// CodeConflict covers uniqueness violations on insert (duplicate email or
	// identity document).
	CodeConflict Code = "conflict"
	// CodeNotFound means a referenced id or email does not exist.
	CodeNotFound Code = "not_found"
	// CodeUnauthorized covers credential failures. The message never reveals
	// whether the email exists.
	CodeUnauthorized Code = "unauthorized"
	// CodeVerificationPending is a routing signal, not a fault: credentials
	// were correct but the account has not been verified. Meta carries the
	// account's current state.
	CodeVerificationPending Code = "verification_pending"
	// CodeForbidden means the caller is authenticated but not allowed.
	CodeForbidden Code = "forbidden"
	// CodeUnavailable is a transient infrastructure fault, safe to retry.
	CodeUnavailable Code = "unavailable"
	// CodeInvariantViolation marks a broken domain invariant (programmer or
	// data error, not user input).
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal is the fallback for everything unexpected.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. Meta carries machine-readable detail the
// transport layer may expose (for example the verification state on a
// verification_pending error).
type Error struct {
	Code    Code
	Message string
	Meta    map[string]string
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause, preserved for
// errors.Is/As chains.
func Wrap(cause error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// WithMeta returns the error with an added meta key. The receiver is returned
// to allow chaining at construction sites.
func (e *Error) WithMeta(key, value string) *Error {
	if e.Meta == nil {
		e.Meta = make(map[string]string, 1)
	}
	e.Meta[key] = value
	return e
}

// HasCode reports whether err (or anything it wraps) is a domain error with
// the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, or CodeInternal if err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MetaValue returns the meta value for key, or "" when absent.
func MetaValue(err error, key string) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Meta[key]
	}
	return ""
}

// ToHTTPStatus maps a code to its HTTP status line.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeConflict:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeVerificationPending, CodeForbidden:
		return http.StatusForbidden
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
