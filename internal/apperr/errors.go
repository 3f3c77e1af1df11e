package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed operation. Only two kinds exist: the caller sent
// something invalid, or the caller is not allowed to do it.
type Kind int

const (
	KindBadRequest Kind = iota + 1
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Error is returned by every service operation that rejects its input.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func BadRequest(format string, args ...any) error {
	return &Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func IsBadRequest(err error) bool { return KindOf(err) == KindBadRequest }

func IsForbidden(err error) bool { return KindOf(err) == KindForbidden }

// HTTPStatus maps err to the status code the API layer responds with.
// Anything that is not an *Error is an internal failure.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
