// Package domainerrors provides coded errors for the trust engine. Services
// return these so the transport layer can translate them into HTTP responses
// without inspecting error strings.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code identifies a category of domain failure. Every error the engine hands
// back to a caller carries exactly one code.
type Code string

const (
	CodeValidation   Code = "validation_error"
	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeInternal     Code = "internal_error"

	// Trust and lifecycle failures. These are caller input problems, never
	// transient faults; the engine does not retry them.
	CodeOutsideGeofence   Code = "outside_geofence"
	CodeSelfVerification  Code = "self_verification_forbidden"
	CodeReportNotOpen     Code = "report_not_open_for_verification"
	CodeIllegalTransition Code = "illegal_transition"
	CodeAlreadyDrawn      Code = "already_drawn"
	CodePeriodNotEnded    Code = "period_not_ended"
)

// Error is the coded error type returned by services.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a coded error with a caller-facing message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for uncoded
// errors so nothing leaks infrastructure detail to callers.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the status the transport layer should respond
// with. All engine errors are recoverable by the caller.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest, CodeOutsideGeofence, CodePeriodNotEnded:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden, CodeSelfVerification:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeReportNotOpen, CodeIllegalTransition, CodeAlreadyDrawn:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
