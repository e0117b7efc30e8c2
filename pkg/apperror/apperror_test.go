package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := New(KindPreconditionFailed, "booking must be paid before it can be confirmed")

	assert.ErrorIs(t, err, ErrPreconditionFailed)
	assert.NotErrorIs(t, err, ErrInvalidTransition)

	wrapped := fmt.Errorf("confirm booking: %w", err)
	assert.ErrorIs(t, wrapped, ErrPreconditionFailed)
	assert.Equal(t, KindPreconditionFailed, KindOf(wrapped))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("connection reset")))
}

func TestErrorMessage(t *testing.T) {
	cause := errors.New("no rows")
	err := Wrap(KindNotFound, "booking not found", cause)

	assert.Equal(t, "booking not found: no rows", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "forbidden", (&Error{Kind: KindForbidden}).Error())
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindInvalidInput:              http.StatusBadRequest,
		KindInvalidToken:              http.StatusBadRequest,
		KindNotFound:                  http.StatusNotFound,
		KindForbidden:                 http.StatusForbidden,
		KindInvalidTransition:         http.StatusConflict,
		KindAlreadyRedeemed:           http.StatusConflict,
		KindPreconditionFailed:        http.StatusPreconditionFailed,
		KindRefundPrerequisiteMissing: http.StatusPreconditionRequired,
		KindInternal:                  http.StatusInternalServerError,
	}

	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), string(kind))
	}
}
