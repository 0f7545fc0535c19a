package directory

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the transport can pick a status code.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuthorization
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error is a failure detected by the directory at the point of violation.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works
// regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrValidation    = &Error{Kind: KindValidation, Msg: "invalid request"}
	ErrAuthorization = &Error{Kind: KindAuthorization, Msg: "unauthorized"}
	ErrForbidden     = &Error{Kind: KindForbidden, Msg: "forbidden"}
	ErrNotFound      = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrConflict      = &Error{Kind: KindConflict, Msg: "conflict"}
)

func newError(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or KindUnknown for errors the directory did not raise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
