package types

import (
	"errors"
	"fmt"
)

// ErrorCode is the stable identifier of a rejection. Automation keys on it
// to tell "retry later" from "never valid".
type ErrorCode string

const (
	CodeInvalidState      ErrorCode = "InvalidState"
	CodeUnauthorized      ErrorCode = "Unauthorized"
	CodeNotEligible       ErrorCode = "NotEligible"
	CodeRotationBlocked   ErrorCode = "RotationBlocked"
	CodeAlreadyPending    ErrorCode = "AlreadyPending"
	CodeTimeoutNotElapsed ErrorCode = "TimeoutNotElapsed"
	CodeNotFound          ErrorCode = "NotFound"
)

// Error is a rejection carrying a stable code and a descriptive message.
type Error struct {
	Code ErrorCode
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Msg
}

// Is matches errors of the same code. A target without message matches any
// message of that code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Msg == "" || t.Msg == e.Msg)
}

// Retryable reports whether waiting may turn the rejection into a success.
func (e *Error) Retryable() bool {
	switch e.Code {
	case CodeRotationBlocked, CodeTimeoutNotElapsed, CodeAlreadyPending:
		return true
	default:
		return false
	}
}

func NewError(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

var (
	ErrInvalidState      = &Error{Code: CodeInvalidState}
	ErrUnauthorized      = &Error{Code: CodeUnauthorized}
	ErrNotEligible       = &Error{Code: CodeNotEligible}
	ErrRotationBlocked   = &Error{Code: CodeRotationBlocked}
	ErrAlreadyPending    = &Error{Code: CodeAlreadyPending}
	ErrTimeoutNotElapsed = &Error{Code: CodeTimeoutNotElapsed}
	ErrNotFound          = &Error{Code: CodeNotFound}
)

// CodeOf extracts the code of err, or "" when err carries none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
