package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, Conflict, KindOf(NewConflict("dup")))
	assert.Equal(t, Forbidden, KindOf(fmt.Errorf("wrapped: %w", NewForbidden("no"))))
	assert.Equal(t, Internal, KindOf(errors.New("boom")))
	assert.Equal(t, Internal, KindOf(nil))
}

func TestIs(t *testing.T) {
	assert.True(t, Is(NewBadRequest("x"), BadRequest))
	assert.False(t, Is(NewBadRequest("x"), NotFound))
	assert.False(t, Is(nil, Internal))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, BadRequest.HTTPStatus())
	assert.Equal(t, http.StatusUnauthorized, Unauthorized.HTTPStatus())
	assert.Equal(t, http.StatusForbidden, Forbidden.HTTPStatus())
	assert.Equal(t, http.StatusNotFound, NotFound.HTTPStatus())
	assert.Equal(t, http.StatusConflict, Conflict.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, Internal.HTTPStatus())
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("db down")
	err := Wrap(Internal, "Registration failed", cause)

	assert.Equal(t, "Registration failed: db down", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Access Denied", NewForbidden("Access Denied").Error())
}
