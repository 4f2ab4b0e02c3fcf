package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers and transports.
type Kind string

const (
	KindUnauthenticated Kind = "Unauthenticated"
	KindForbidden       Kind = "Forbidden"
	KindConflict        Kind = "Conflict"
	KindNotFound        Kind = "NotFound"
	KindValidation      Kind = "Validation"
)

// Conflict reasons returned by the shift and review state machines.
const (
	ReasonAlreadyClockedIn       = "AlreadyClockedIn"
	ReasonNoActiveShift          = "NoActiveShift"
	ReasonBreakAlreadyActive     = "BreakAlreadyActive"
	ReasonNoActiveBreak          = "NoActiveBreak"
	ReasonAlreadyVerified        = "AlreadyVerified"
	ReasonNotPending             = "NotPending"
	ReasonShiftStillActive       = "ShiftStillActive"
	ReasonConcurrentModification = "ConcurrentModification"
	ReasonActionInFlight         = "ActionInFlight"
)

// Error is the error type every service in this module returns for
// expected failures. Anything else is an internal error.
type Error struct {
	Kind   Kind
	Reason string
	Msg    string
}

func (e *Error) Error() string {
	switch {
	case e.Reason != "" && e.Msg != "":
		return fmt.Sprintf("%s(%s): %s", e.Kind, e.Reason, e.Msg)
	case e.Reason != "":
		return fmt.Sprintf("%s(%s)", e.Kind, e.Reason)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return string(e.Kind)
}

// Is matches on Kind and, when the target carries one, Reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

func Unauthenticated(msg string) *Error { return &Error{Kind: KindUnauthenticated, Msg: msg} }
func Forbidden(msg string) *Error       { return &Error{Kind: KindForbidden, Msg: msg} }
func NotFound(msg string) *Error        { return &Error{Kind: KindNotFound, Msg: msg} }
func Validation(msg string) *Error      { return &Error{Kind: KindValidation, Msg: msg} }

// Conflict reports a violated state-machine precondition.
func Conflict(reason, msg string) *Error {
	return &Error{Kind: KindConflict, Reason: reason, Msg: msg}
}

// KindOf returns the Kind of err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ReasonOf returns the conflict reason carried by err, if any.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}
