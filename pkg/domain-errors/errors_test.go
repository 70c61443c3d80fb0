package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodes(t *testing.T) {
	t.Run("HasCode matches direct errors", func(t *testing.T) {
		err := New(CodeNotFound, "club not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeConflict))
	})

	t.Run("HasCode sees through wrapping", func(t *testing.T) {
		err := fmt.Errorf("handler: %w", New(CodeForbidden, "not recruiting"))
		assert.True(t, HasCode(err, CodeForbidden))
	})

	t.Run("uncoded errors report internal", func(t *testing.T) {
		err := errors.New("disk on fire")
		assert.Equal(t, CodeInternal, CodeOf(err))
		assert.Equal(t, "internal error", MessageOf(err))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("Wrap keeps the cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(cause, CodeUnavailable, "store unreachable")
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, CodeUnavailable, CodeOf(err))
		assert.Equal(t, "store unreachable", MessageOf(err))
	})

	t.Run("Wrap nil is nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "never happens"))
	})

	t.Run("Newf formats the message", func(t *testing.T) {
		err := Newf(CodeCapacity, "defender roster is full (%d)", 5)
		assert.Equal(t, "defender roster is full (5)", MessageOf(err))
	})
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeNotFound:     http.StatusNotFound,
		CodeConflict:     http.StatusConflict,
		CodeCapacity:     http.StatusConflict,
		CodeInvalidState: http.StatusUnprocessableEntity,
		CodeForbidden:    http.StatusForbidden,
		CodeInvalidInput: http.StatusBadRequest,
		CodeUnavailable:  http.StatusServiceUnavailable,
		CodeInternal:     http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, HTTPStatus(code), string(code))
	}
}
