package geolocation

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodePermissionDenied    Code = "permission_denied"
	CodePositionUnavailable Code = "position_unavailable"
	CodeTimeout             Code = "timeout"
	CodeUnsupported         Code = "unsupported"
)

// Error is a geolocation failure. Two errors match under errors.Is when their
// codes are equal, so callers compare against the sentinels below.
type Error struct {
	Code Code
	Err  error
}

var (
	ErrPermissionDenied    = &Error{Code: CodePermissionDenied}
	ErrPositionUnavailable = &Error{Code: CodePositionUnavailable}
	ErrTimeout             = &Error{Code: CodeTimeout}
	ErrUnsupported         = &Error{Code: CodeUnsupported}

	ErrNotWatching   = errors.New("geolocation: no active subscription")
	ErrInvalidSample = errors.New("geolocation: invalid sample coordinate")
)

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("geolocation %s: %v", e.Code, e.Err)
	}
	return "geolocation " + string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Transient reports whether the failure may clear on a manual retry.
func (e *Error) Transient() bool {
	return e.Code == CodePositionUnavailable || e.Code == CodeTimeout
}

func newError(code Code, err error) *Error {
	return &Error{Code: code, Err: err}
}

// ParseCode maps a client-reported code to its sentinel. Unknown codes are
// treated as position unavailable.
func ParseCode(s string) *Error {
	switch Code(s) {
	case CodePermissionDenied:
		return ErrPermissionDenied
	case CodeTimeout:
		return ErrTimeout
	case CodeUnsupported:
		return ErrUnsupported
	default:
		return ErrPositionUnavailable
	}
}
