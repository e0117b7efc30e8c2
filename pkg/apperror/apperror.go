package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so callers can react without parsing messages.
type Kind string

const (
	KindInvalidInput              Kind = "invalid_input"
	KindInvalidToken              Kind = "invalid_token"
	KindNotFound                  Kind = "not_found"
	KindForbidden                 Kind = "forbidden"
	KindInvalidTransition         Kind = "invalid_transition"
	KindPreconditionFailed        Kind = "precondition_failed"
	KindAlreadyRedeemed           Kind = "already_redeemed"
	KindRefundPrerequisiteMissing Kind = "refund_prerequisite_missing"
	KindInternal                  Kind = "internal"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrInvalidInput              = &Error{Kind: KindInvalidInput}
	ErrInvalidToken              = &Error{Kind: KindInvalidToken}
	ErrNotFound                  = &Error{Kind: KindNotFound}
	ErrForbidden                 = &Error{Kind: KindForbidden}
	ErrInvalidTransition         = &Error{Kind: KindInvalidTransition}
	ErrPreconditionFailed        = &Error{Kind: KindPreconditionFailed}
	ErrAlreadyRedeemed           = &Error{Kind: KindAlreadyRedeemed}
	ErrRefundPrerequisiteMissing = &Error{Kind: KindRefundPrerequisiteMissing}
	ErrInternal                  = &Error{Kind: KindInternal}
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// KindOf returns the kind of the first *Error in the chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// HTTPStatus maps a kind to the status code the API answers with.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindInvalidInput, KindInvalidToken:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidTransition, KindAlreadyRedeemed:
		return http.StatusConflict
	case KindPreconditionFailed:
		return http.StatusPreconditionFailed
	case KindRefundPrerequisiteMissing:
		return http.StatusPreconditionRequired
	default:
		return http.StatusInternalServerError
	}
}
